package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for email delivery. A nil *Metrics
// is valid and records nothing, which keeps unit tests free of global
// registry collisions.
type Metrics struct {
	EmailsSent   *prometheus.CounterVec
	EmailsFailed *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	return &Metrics{
		EmailsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_sent_total",
				Help:      "Emails handed to the SMTP relay",
			},
			[]string{"template"},
		),
		EmailsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "emails_failed_total",
				Help:      "Email requests that failed to render or send",
			},
			[]string{"template"},
		),
	}
}

func (m *Metrics) IncSent(template string) {
	if m == nil {
		return
	}
	m.EmailsSent.WithLabelValues(template).Inc()
}

func (m *Metrics) IncFailed(template string) {
	if m == nil {
		return
	}
	m.EmailsFailed.WithLabelValues(template).Inc()
}
