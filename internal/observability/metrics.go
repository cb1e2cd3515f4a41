package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the
// alerting pipeline.
type Metrics struct {
	SMSSent           prometheus.Counter
	SMSFailed         prometheus.Counter
	EmailSent         prometheus.Counter
	EmailFailed       prometheus.Counter
	RecipientsSkipped prometheus.Counter
	NoChannelGaps     prometheus.Counter
	FeedErrors        prometheus.Counter
	BatchRuns         prometheus.Counter
	BatchDuration     prometheus.Histogram
}

// NewMetrics creates and registers all alerting metrics with the
// default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.SMSSent,
		m.SMSFailed,
		m.EmailSent,
		m.EmailFailed,
		m.RecipientsSkipped,
		m.NoChannelGaps,
		m.FeedErrors,
		m.BatchRuns,
		m.BatchDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default
// registry, avoiding "already registered" panics across tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		SMSSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "sms_sent_total",
			Help:      "Total SMS alerts delivered to the transport.",
		}),
		SMSFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "sms_failed_total",
			Help:      "Total SMS alerts the transport rejected.",
		}),
		EmailSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "email_sent_total",
			Help:      "Total email alerts delivered to the transport.",
		}),
		EmailFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "email_failed_total",
			Help:      "Total email alerts the transport rejected.",
		}),
		RecipientsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "recipients_skipped_total",
			Help:      "Recipients skipped in a pass (no location or nothing alert-worthy).",
		}),
		NoChannelGaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "no_channel_gaps_total",
			Help:      "Dispatches where the recipient had no verified contact channel.",
		}),
		FeedErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "feed_errors_total",
			Help:      "Hazard feed fetches that failed and degraded to zero events.",
		}),
		BatchRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shelterwatch",
			Name:      "batch_runs_total",
			Help:      "Completed multi-recipient alerting passes.",
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shelterwatch",
			Name:      "batch_duration_seconds",
			Help:      "Duration of a full alerting pass across all recipients.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}
}
