package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	p, err := Init(context.Background(), Config{
		ServiceName: "dockpulse-test",
		Enabled:     false,
	})
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Nil(t, p.TracerProvider)
	assert.Nil(t, p.MeterProvider)
	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Meter)

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestDisabledTracerIsUsable(t *testing.T) {
	p, err := Init(context.Background(), Config{
		ServiceName: "dockpulse-test",
		Enabled:     false,
	})
	require.NoError(t, err)

	_, span := p.Tracer.Start(context.Background(), "noop-span")
	span.End()
}
