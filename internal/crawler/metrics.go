package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zilean"

// Metrics counts crawler activity.
type Metrics struct {
	Requests   *prometheus.CounterVec
	Matches    prometheus.Counter
	Duplicates prometheus.Counter
	Skipped    *prometheus.CounterVec
	Dropped    prometheus.Counter
}

// NewMetrics registers the crawler metrics with reg. A nil reg uses a
// private registry, which keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "requests_total",
			Help:      "Riot API calls made by the crawler, by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Matches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "matches_total",
			Help:      "Unique match timelines written.",
		}),
		Duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "duplicates_total",
			Help:      "Match ids skipped because they were already collected.",
		}),
		Skipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "skipped_total",
			Help:      "Players or matches skipped, by reason.",
		}, []string{"reason"}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "crawler",
			Name:      "short_matches_dropped_total",
			Help:      "Matches dropped by compaction for ending before the cutoff.",
		}),
	}
}

func (m *Metrics) request(endpoint string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
}
