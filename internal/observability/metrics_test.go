package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue собирает метрики через отдельный реестр и возвращает значение счетчика
func counterValue(t *testing.T, c prometheus.Collector, name string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			var sum float64
			for _, m := range mf.GetMetric() {
				sum += m.GetCounter().GetValue() + m.GetGauge().GetValue()
			}
			return sum
		}
	}
	return 0
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.ReportsCreated.WithLabelValues("critical").Inc()
	a.ReportsCreated.WithLabelValues("info").Inc()
	a.IncidentsClustered.Inc()
	a.ProximityIndexSize.Set(42)

	assert.Equal(t, 2.0, counterValue(t, a.ReportsCreated, "bantaybayan_reports_created_total"))
	assert.Equal(t, 0.0, counterValue(t, b.ReportsCreated, "bantaybayan_reports_created_total"))
	assert.Equal(t, 1.0, counterValue(t, a.IncidentsClustered, "bantaybayan_incidents_clustered_total"))
	assert.Equal(t, 42.0, counterValue(t, a.ProximityIndexSize, "bantaybayan_proximity_index_reports"))
}

func TestNewMetrics_RegistersOnce(t *testing.T) {
	m := NewMetrics()
	t.Cleanup(func() {
		prometheus.Unregister(m.ReportsCreated)
		prometheus.Unregister(m.IncidentsClustered)
		prometheus.Unregister(m.ClusterEvaluations)
		prometheus.Unregister(m.ProximityQueryDuration)
		prometheus.Unregister(m.ProximityIndexSize)
		prometheus.Unregister(m.WeatherRequests)
		prometheus.Unregister(m.WebhookDeliveries)
	})

	assert.Panics(t, func() { NewMetrics() })
}
