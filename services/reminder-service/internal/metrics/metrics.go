package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the reminder subsystem. A nil
// *Metrics is valid and records nothing, which keeps unit tests free of
// global registry collisions.
type Metrics struct {
	TriggersScheduled *prometheus.CounterVec
	TriggersFiredNow  prometheus.Counter
	TriggersClaimed   prometheus.Counter
	TriggersCompleted *prometheus.CounterVec
	TriggersFailed    prometheus.Counter
	PendingTriggers   prometheus.Gauge
	HandlerDuration   prometheus.Histogram
}

func New(namespace string) *Metrics {
	return &Metrics{
		TriggersScheduled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_scheduled_total",
				Help:      "Reminder triggers persisted for a future fire time",
			},
			[]string{"kind"},
		),
		TriggersFiredNow: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_fired_now_total",
				Help:      "Reminders enqueued as already due (missed 1h lead)",
			},
		),
		TriggersClaimed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_claimed_total",
				Help:      "Due triggers claimed by the poll loop",
			},
		),
		TriggersCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_completed_total",
				Help:      "Triggers removed after successful handling",
			},
			[]string{"kind"},
		),
		TriggersFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "triggers_failed_total",
				Help:      "Handler executions that failed and left the trigger for retry",
			},
		),
		PendingTriggers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_triggers",
				Help:      "Triggers currently persisted in the store",
			},
		),
		HandlerDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "handler_duration_seconds",
				Help:      "Time spent executing one reminder handler",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),
	}
}

func (m *Metrics) IncScheduled(kind string) {
	if m == nil {
		return
	}
	m.TriggersScheduled.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncFiredNow() {
	if m == nil {
		return
	}
	m.TriggersFiredNow.Inc()
}

func (m *Metrics) AddClaimed(n int) {
	if m == nil {
		return
	}
	m.TriggersClaimed.Add(float64(n))
}

func (m *Metrics) IncCompleted(kind string) {
	if m == nil {
		return
	}
	m.TriggersCompleted.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncFailed() {
	if m == nil {
		return
	}
	m.TriggersFailed.Inc()
}

func (m *Metrics) SetPending(n int64) {
	if m == nil {
		return
	}
	m.PendingTriggers.Set(float64(n))
}

func (m *Metrics) ObserveHandlerDuration(seconds float64) {
	if m == nil {
		return
	}
	m.HandlerDuration.Observe(seconds)
}
