package rating

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы обработки сигнала.
const (
	outcomeApplied = "applied"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Metrics - метрики пересчета рейтинга. Нулевой указатель допустим и ничего не пишет.
type Metrics struct {
	signals     *prometheus.CounterVec
	duration    prometheus.Histogram
	enqueued    prometheus.Counter
	requeued    prometheus.Counter
	deadLetters prometheus.Counter
}

func NewMetrics(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "catalog"
	}

	m := &Metrics{
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rating",
				Name:      "signals_total",
				Help:      "Total number of processed rating signals by outcome",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "rating",
				Name:      "recompute_duration_seconds",
				Help:      "Duration of a movie rating recomputation in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		enqueued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rating",
				Name:      "queue_enqueued_total",
				Help:      "Total number of signals pushed to the rating queue",
			},
		),
		requeued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rating",
				Name:      "queue_requeued_total",
				Help:      "Total number of signals returned to the rating queue for another attempt",
			},
		),
		deadLetters: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "rating",
				Name:      "queue_dead_letters_total",
				Help:      "Total number of signals moved to the dead-letter list",
			},
		),
	}

	registerer.MustRegister(m.signals, m.duration, m.enqueued, m.requeued, m.deadLetters)
	return m
}

func (m *Metrics) observe(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.signals.WithLabelValues(outcome).Inc()
	m.duration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) incEnqueued() {
	if m != nil {
		m.enqueued.Inc()
	}
}

func (m *Metrics) incRequeued() {
	if m != nil {
		m.requeued.Inc()
	}
}

func (m *Metrics) incDeadLetters() {
	if m != nil {
		m.deadLetters.Inc()
	}
}
