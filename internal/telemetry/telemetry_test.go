package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/config"
	"go.uber.org/zap"
)

func TestNew_WithoutEndpointIsNoop(t *testing.T) {
	provider, err := New(context.Background(), &config.Config{ServiceName: "eventhub-api"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, provider.Enabled())

	_, span := provider.Tracer().Start(context.Background(), "test")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, provider.Shutdown(context.Background()))
}

func TestNilProviderIsSafe(t *testing.T) {
	var provider *Provider
	assert.NotNil(t, provider.Tracer())
	assert.NoError(t, provider.Shutdown(context.Background()))
}
