package gateway

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Replay results.
const (
	replayCompleted = "completed"
	replayRejected  = "rejected"
	replayFailed    = "failed"
)

// Metrics holds the gateway's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	queued          prometheus.Counter
	replays         *prometheus.CounterVec
}

// NewMetrics creates the gateway collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walletgate",
				Subsystem: "gateway",
				Name:      "refresh_total",
				Help:      "Refresh calls made to the backend, by result",
			},
			[]string{"result"},
		),
		refreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "walletgate",
				Subsystem: "gateway",
				Name:      "refresh_duration_seconds",
				Help:      "Duration of refresh calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		queued: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "walletgate",
				Subsystem: "gateway",
				Name:      "queued_total",
				Help:      "Requests that waited on a refresh started by another request",
			},
		),
		replays: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "walletgate",
				Subsystem: "gateway",
				Name:      "replays_total",
				Help:      "Requests resubmitted with a refreshed access token, by result",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) observeRefresh(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.refreshes.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

func (m *Metrics) observeQueued() {
	if m == nil {
		return
	}
	m.queued.Inc()
}

func (m *Metrics) observeReplay(result string) {
	if m == nil {
		return
	}
	m.replays.WithLabelValues(result).Inc()
}
