package station

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()

	st, err := New("gbfs-100", "Harbour", 54.35, 18.65, 15)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), st))
	require.NotZero(t, st.ID)

	got, err := repo.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, "gbfs-100", got.ExternalID)
	assert.Equal(t, 15, got.TotalDocks)

	byExt, err := repo.GetByExternalID(context.Background(), "gbfs-100")
	require.NoError(t, err)
	assert.Equal(t, st.ID, byExt.ID)
}

func TestInMemoryRepositoryDuplicateExternalID(t *testing.T) {
	repo := NewInMemoryRepository()

	a, err := New("gbfs-100", "Harbour", 54.35, 18.65, 15)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), a))

	b, err := New("gbfs-100", "Harbour Duplicate", 54.36, 18.66, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Create(context.Background(), b), ErrDuplicateStation)
}

func TestInMemoryRepositoryNotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrStationNotFound)

	_, err = repo.GetByExternalID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrStationNotFound)

	st, err := New("gbfs-1", "Ghost", 54.35, 18.65, 5)
	require.NoError(t, err)
	st.ID = 42
	assert.ErrorIs(t, repo.Update(context.Background(), st), ErrStationNotFound)
}

func TestInMemoryRepositoryUpdate(t *testing.T) {
	repo := NewInMemoryRepository()

	st, err := New("gbfs-100", "Harbour", 54.35, 18.65, 15)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), st))

	require.NoError(t, st.SetCapacity(25))
	st.IsActive = false
	require.NoError(t, repo.Update(context.Background(), st))

	got, err := repo.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.TotalDocks)
	assert.False(t, got.IsActive)
}

func TestInMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()

	st, err := New("gbfs-100", "Harbour", 54.35, 18.65, 15)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), st))

	got, err := repo.Get(context.Background(), st.ID)
	require.NoError(t, err)
	got.Name = "Mutated"

	again, err := repo.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbour", again.Name)
}

func TestNewValidation(t *testing.T) {
	_, err := New("ext", "Bad lat", 95.0, 18.65, 10)
	assert.Error(t, err)

	_, err = New("ext", "Bad docks", 54.35, 18.65, 0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New("ext", "Negative docks", 54.35, 18.65, -3)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}
