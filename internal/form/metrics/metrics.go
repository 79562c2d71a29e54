package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for form sessions.
// Every method is safe to call on a nil receiver.
type Metrics struct {
	SessionsOpened  prometheus.Counter
	SessionsActive  prometheus.Gauge
	SessionsExpired prometheus.Counter
	StaleDiscarded  prometheus.Counter
	Submissions     *prometheus.CounterVec
	SubmitDuration  prometheus.Histogram
	DistrictFetches *prometheus.CounterVec
}

// New registers the form metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "shipform_sessions_opened_total",
			Help: "Form sessions opened",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "shipform_sessions_active",
			Help: "Form sessions currently held in memory",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "shipform_sessions_expired_total",
			Help: "Form sessions evicted after idling",
		}),
		StaleDiscarded: f.NewCounter(prometheus.CounterOpts{
			Name: "shipform_stale_district_responses_total",
			Help: "District responses discarded because a newer region was chosen",
		}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipform_submissions_total",
			Help: "Address submissions by outcome",
		}, []string{"outcome"}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "shipform_submit_duration_seconds",
			Help:    "Duration of Submit including the sink call",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		DistrictFetches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "shipform_district_fetches_total",
			Help: "District fetches by outcome (applied, failed, stale)",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementSessionsOpened() {
	if m == nil {
		return
	}
	m.SessionsOpened.Inc()
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed(expired bool) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	if expired {
		m.SessionsExpired.Inc()
	}
}

// ObserveDistrictFetch records "applied", "failed" or "stale".
func (m *Metrics) ObserveDistrictFetch(outcome string) {
	if m == nil {
		return
	}
	m.DistrictFetches.WithLabelValues(outcome).Inc()
	if outcome == "stale" {
		m.StaleDiscarded.Inc()
	}
}

// ObserveSubmit records the outcome and duration of a Submit call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time, outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}
