package observability

import (
	"context"
	"testing"
	"time"

	"fireworks/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsProvider_NilIsSafe(t *testing.T) {
	var mp *MetricsProvider
	assert.NotPanics(t, func() {
		mp.RecordLedgerOperation("purchase", "ok", time.Millisecond)
		mp.RecordReward("manual-click", 3)
		mp.UpdateActiveSessions(1)
		assert.NoError(t, mp.Shutdown(context.Background()))
	})
}

func TestMetricsProvider_DisabledRecordsNothing(t *testing.T) {
	mp := NewMetricsProvider(config.NewTestConfig())
	require.NoError(t, mp.Initialize(context.Background()))
	assert.False(t, mp.isEnabled())
	assert.NotPanics(t, func() { mp.RecordEventPublished("balance_change") })
}

func TestMetricsProvider_RecordsLedgerOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp, err := NewMetricsProviderWithReader(reader)
	require.NoError(t, err)

	mp.RecordLedgerOperation("purchase", "ok", 2*time.Millisecond)
	mp.RecordLedgerOperation("purchase", "insufficient_balance", time.Millisecond)
	mp.RecordReward("auto-click", 5)
	mp.RecordReward("auto-click", 7)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, point := range data.DataPoints {
					sums[m.Name] += point.Value
				}
			}
		}
	}

	assert.Equal(t, int64(2), sums[LedgerOperationsTotal])
	assert.Equal(t, int64(2), sums[RewardsCreditedTotal])
	assert.Equal(t, int64(12), sums[RewardsCreditedAmount])
}
