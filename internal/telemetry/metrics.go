package telemetry

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/terraincognita07/endotrack/internal/services"
)

const (
	SubmitResultOK           = "ok"
	SubmitResultInvalidDraft = "invalid_draft"
	SubmitResultBusy         = "busy"
	SubmitResultWriteFailed  = "write_failed"
	SubmitResultError        = "error"
)

// Metrics holds the collectors for the log store.
//
//   - endotrack_submits_total{result}
//   - endotrack_submit_duration_seconds
//   - endotrack_load_failures_total
//   - endotrack_log_entries
type Metrics struct {
	SubmitsTotal   *prometheus.CounterVec
	SubmitDuration prometheus.Histogram
	LoadFailures   prometheus.Counter
	LogEntries     prometheus.Gauge
}

// NewMetrics registers the collectors on registerer. Pass a fresh registry in
// tests to avoid duplicate registration.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		SubmitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "endotrack_submits_total",
				Help: "Total number of daily log submissions by result",
			},
			[]string{"result"},
		),
		SubmitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "endotrack_submit_duration_seconds",
				Help:    "Duration of daily log submissions including persistence",
				Buckets: prometheus.DefBuckets,
			},
		),
		LoadFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "endotrack_load_failures_total",
				Help: "Total number of failed collection loads",
			},
		),
		LogEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "endotrack_log_entries",
				Help: "Number of entries in the in-memory collection",
			},
		),
	}
}

func (m *Metrics) ObserveSubmit(err error, elapsed time.Duration) {
	m.SubmitsTotal.WithLabelValues(SubmitResult(err)).Inc()
	m.SubmitDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveLoad(err error) {
	if err != nil {
		m.LoadFailures.Inc()
	}
}

func (m *Metrics) SetEntries(count int) {
	m.LogEntries.Set(float64(count))
}

func SubmitResult(err error) string {
	switch {
	case err == nil:
		return SubmitResultOK
	case errors.Is(err, services.ErrInvalidDraft):
		return SubmitResultInvalidDraft
	case errors.Is(err, services.ErrStoreBusy):
		return SubmitResultBusy
	case errors.Is(err, services.ErrPersistenceWriteFailed):
		return SubmitResultWriteFailed
	default:
		return SubmitResultError
	}
}
