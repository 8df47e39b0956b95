package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bantaybayan"

// Metrics - счетчики и гистограммы Prometheus для сервиса
type Metrics struct {
	ReportsCreated     *prometheus.CounterVec // labels: type={info,warning,critical}
	IncidentsClustered prometheus.Counter
	ClusterEvaluations *prometheus.CounterVec // labels: outcome={created,skipped,error}

	ProximityQueryDuration *prometheus.HistogramVec // labels: strategy={scan,s2}
	ProximityIndexSize     prometheus.Gauge

	WeatherRequests   *prometheus.CounterVec // labels: outcome={hit,miss,error,scenario}
	WebhookDeliveries *prometheus.CounterVec // labels: outcome={success,retry,failed}
}

// NewMetrics создает метрики и регистрирует их в реестре Prometheus по умолчанию
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsCreated,
		m.IncidentsClustered,
		m.ClusterEvaluations,
		m.ProximityQueryDuration,
		m.ProximityIndexSize,
		m.WeatherRequests,
		m.WebhookDeliveries,
	)
	return m
}

// NewMetricsForTesting создает незарегистрированные метрики,
// чтобы тесты не падали с "duplicate metrics collector registration".
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_created_total",
			Help:      "Total community reports stored, by report type.",
		}, []string{"type"}),
		IncidentsClustered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incidents_clustered_total",
			Help:      "Total incidents synthesized from report clusters.",
		}),
		ClusterEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_evaluations_total",
			Help:      "Clustering attempts by outcome.",
		}, []string{"outcome"}),
		ProximityQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proximity_query_duration_seconds",
			Help:      "Duration of nearby-report queries by strategy.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"strategy"}),
		ProximityIndexSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "proximity_index_reports",
			Help:      "Number of reports held by the in-memory cell index.",
		}),
		WeatherRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_requests_total",
			Help:      "Weather lookups by outcome.",
		}, []string{"outcome"}),
		WebhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Webhook delivery attempts by outcome.",
		}, []string{"outcome"}),
	}
}
