// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome names how a render pass ended.
type Outcome string

const (
	OutcomeRendered    Outcome = "rendered"
	OutcomeNoData      Outcome = "no_data"
	OutcomeFetchError  Outcome = "fetch_error"
	OutcomeRootMissing Outcome = "root_missing"
)

// Recorder observes render passes.
type Recorder interface {
	ObserveFetch(d time.Duration, err error)
	ObservePass(outcome Outcome, matchedRows int)
}

// NoopRecorder discards observations.
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetch(time.Duration, error) {}
func (NoopRecorder) ObservePass(Outcome, int)         {}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration *prom.HistogramVec
	passes        *prom.CounterVec
	matchedRows   prom.Histogram
}

// NewPrometheusRecorder constructs and registers the careloader metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "careloader",
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of feed fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		passes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "careloader",
			Name:      "render_passes_total",
			Help:      "Render passes by outcome",
		}, []string{"outcome"}),
		matchedRows: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "careloader",
			Name:      "matched_rows",
			Help:      "Feed rows matched per rendered page",
			Buckets:   []float64{1, 2, 4, 8, 16, 32},
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.passes, pr.matchedRows)
	return pr
}

func (p *PrometheusRecorder) ObserveFetch(d time.Duration, err error) {
	if p == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	p.fetchDuration.WithLabelValues(result).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObservePass(outcome Outcome, matchedRows int) {
	if p == nil {
		return
	}
	p.passes.WithLabelValues(string(outcome)).Inc()
	if outcome == OutcomeRendered {
		p.matchedRows.Observe(float64(matchedRows))
	}
}

// HTTPHandler serves the metrics gathered by reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
