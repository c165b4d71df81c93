package metrics

import (
	"github.com/JohandeGraaf/busyness-tracker-pi/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cycle outcomes.
const (
	OutcomeDelivered          = "delivered"
	OutcomeBackendUnavailable = "backend_unavailable"
	OutcomeUnreachable        = "unreachable"
	OutcomeRejected           = "rejected"
	OutcomeCanceled           = "canceled"
	OutcomeFailed             = "failed"
)

type Metrics struct {
	Cycles         *prometheus.CounterVec
	Records        *prometheus.CounterVec
	UploadAttempts prometheus.Counter
	CycleDuration  prometheus.Histogram
	Clients        *prometheus.GaugeVec
	LastDelivered  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Cycles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "busyness_cycles_total",
			Help: "Completed report cycles by outcome",
		}, []string{"outcome"}),
		Records: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "busyness_records_total",
			Help: "Sighted devices by classification result",
		}, []string{"result"}),
		UploadAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "busyness_upload_attempts_total",
			Help: "Report delivery attempts including retries",
		}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "busyness_cycle_duration_seconds",
			Help:    "Wall time of one query to upload cycle",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		Clients: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "busyness_clients",
			Help: "Client counts of the last assembled report",
		}, []string{"window", "filter"}),
		LastDelivered: factory.NewGauge(prometheus.GaugeOpts{
			Name: "busyness_last_delivered_timestamp_seconds",
			Help: "Unix time of the last report accepted by the collector",
		}),
	}
}

func (m *Metrics) ObserveCounts(c model.ClientCount) {
	m.Clients.WithLabelValues("5m", "filtered").Set(float64(c.FilteredLast5Mins))
	m.Clients.WithLabelValues("1h", "filtered").Set(float64(c.FilteredLastHour))
	m.Clients.WithLabelValues("5m", "all").Set(float64(c.ClientsLast5Mins))
	m.Clients.WithLabelValues("1h", "all").Set(float64(c.ClientsLastHour))
}
