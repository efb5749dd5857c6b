package relay

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/livelink/internal/scene"
)

// Poll outcomes recorded in livelink_polls_total.
const (
	PollResultOK      = "ok"
	PollResultError   = "error"
	PollResultSkipped = "skipped"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	Pushed    *prometheus.CounterVec
	Applied   prometheus.Counter
	Queued    *prometheus.CounterVec
	Dropped   *prometheus.CounterVec
	Delivered *prometheus.CounterVec
	Polls     *prometheus.CounterVec
	Pending   *prometheus.GaugeVec
}

// NewMetrics creates the relay collectors and registers them on reg.
// A nil reg leaves the collectors unregistered (still usable, never scraped).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "pushed_records_total",
			Help:      "Change records received by push, by source side.",
		}, []string{"source"}),
		Applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "applied_records_total",
			Help:      "Change records applied directly to the engine.",
		}),
		Queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "queued_records_total",
			Help:      "Change records enqueued for a later pull, by target side.",
		}, []string{"target"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "dropped_records_total",
			Help:      "Change records evicted from a full queue, by target side.",
		}, []string{"target"}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "delivered_records_total",
			Help:      "Change records returned by pull, by target side.",
		}, []string{"target"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "livelink",
			Name:      "polls_total",
			Help:      "Engine poll attempts, by result.",
		}, []string{"result"}),
		Pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "livelink",
			Name:      "pending_records",
			Help:      "Change records currently queued, by target side.",
		}, []string{"target"}),
	}

	if reg != nil {
		reg.MustRegister(m.Pushed, m.Applied, m.Queued, m.Dropped, m.Delivered, m.Polls, m.Pending)
	}
	return m
}

func (m *Metrics) setPending(target scene.Side, n int) {
	m.Pending.WithLabelValues(target.String()).Set(float64(n))
}
