package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService() *TokenService {
	return NewTokenService(TokenConfig{
		SigningKey: "test-signing-key-not-for-production",
		Issuer:     "https://api.test.local",
		Audience:   "dockpulse-internal",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestTokenService()

	token, expiresAt, err := svc.Generate("worker")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(ServiceTokenExpiry), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "worker", claims.Service)
	assert.Equal(t, "worker", claims.Subject)
	assert.Equal(t, "https://api.test.local", claims.Issuer)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(TokenConfig{
		SigningKey: "a-different-key",
		Issuer:     "https://api.test.local",
		Audience:   "dockpulse-internal",
	})

	token, _, err := svc.Generate("worker")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(TokenConfig{
		SigningKey: "test-signing-key-not-for-production",
		Issuer:     "https://api.test.local",
		Audience:   "some-other-api",
	})

	token, _, err := svc.Generate("worker")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newTestTokenService()

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
