// Package metrics bundles the Prometheus collectors shared by the page
// source and the render pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a render run.
type Metrics struct {
	Registry           *prometheus.Registry
	FetchesTotal       *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	FetchRetriesTotal  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
	JobsTotal          *prometheus.CounterVec
	CardsRenderedTotal prometheus.Counter
	RenderDuration     prometheus.Histogram
	MissingContainers  prometheus.Counter
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cards_page_fetches_total",
			Help: "Total host page loads by source kind.",
		},
		[]string{"source"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cards_page_fetch_duration_seconds",
			Help:    "Latency of remote host page requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_page_fetch_retries_total",
			Help: "Total number of page fetch retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cards_errors_total",
			Help: "Total number of errors by type.",
		},
		[]string{"error_type"},
	)
	jobs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cards_jobs_total",
			Help: "Total render jobs by outcome.",
		},
		[]string{"outcome"},
	)
	cards := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_rendered_total",
			Help: "Total number of product cards written into containers.",
		},
	)
	renderDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cards_render_duration_seconds",
			Help:    "Time spent rendering one page.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)
	missing := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cards_missing_containers_total",
			Help: "Total renders skipped because the container selector matched nothing.",
		},
	)

	registry.MustRegister(fetches, fetchDuration, retries, errorsTotal, jobs, cards, renderDuration, missing)

	return &Metrics{
		Registry:           registry,
		FetchesTotal:       fetches,
		FetchDuration:      fetchDuration,
		FetchRetriesTotal:  retries,
		ErrorsTotal:        errorsTotal,
		JobsTotal:          jobs,
		CardsRenderedTotal: cards,
		RenderDuration:     renderDuration,
		MissingContainers:  missing,
	}
}

// IncFetch increments the page loads counter.
func (m *Metrics) IncFetch(source string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(source).Inc()
}

// ObserveFetch records a remote fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.FetchRetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncJob increments the jobs counter for an outcome label.
func (m *Metrics) IncJob(outcome string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
}

// AddCards adds n rendered cards.
func (m *Metrics) AddCards(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CardsRenderedTotal.Add(float64(n))
}

// ObserveRender records the time spent rendering one page.
func (m *Metrics) ObserveRender(d time.Duration) {
	if m == nil {
		return
	}
	m.RenderDuration.Observe(d.Seconds())
}

// IncMissingContainer counts a render whose container was not found.
func (m *Metrics) IncMissingContainer() {
	if m == nil {
		return
	}
	m.MissingContainers.Inc()
}
