package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/qm/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(config.TelemetryConfig{}, "test", zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresServer(t *testing.T) {
	_, err := NewProfiler(config.TelemetryConfig{ProfilingEnabled: true}, "test", zap.NewNop())
	assert.Error(t, err)
}

func TestOperationLabels(t *testing.T) {
	labels := OperationLabels("payment_post", map[string]string{
		ProfilingLabelOperation: "ignored",
		ProfilingLabelTenantID:  "t1",
	})
	assert.Equal(t, "payment_post", labels[ProfilingLabelOperation])
	assert.Equal(t, "t1", labels[ProfilingLabelTenantID])
}

func TestLabelPairs(t *testing.T) {
	pairs := labelPairs(map[string]string{
		"Route":    "/api/v1/sales-orders",
		"http-verb": "POST",
		"empty":    "",
		"!!":       "dropped",
		"long":     strings.Repeat("x", MaxLabelValueLength+10),
	})
	assert.Equal(t, []string{
		"http_verb", "POST",
		"long", strings.Repeat("x", MaxLabelValueLength),
		"route", "/api/v1/sales-orders",
	}, pairs)
}

func TestWithProfilingLabels_SetsPprofLabels(t *testing.T) {
	var got string
	WithProfilingLabels(context.Background(), OperationLabels("legacy_sync", nil), func(ctx context.Context) {
		got, _ = pprof.Label(ctx, ProfilingLabelOperation)
	})
	assert.Equal(t, "legacy_sync", got)
}

func TestWithProfilingLabels_NoLabelsRunsFn(t *testing.T) {
	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
