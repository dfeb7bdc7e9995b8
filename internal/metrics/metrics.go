// Package metrics exposes Prometheus collectors for HTTP traffic and the
// coaching domain. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitcoach"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	tasksCreated             *prometheus.CounterVec
	submissions              *prometheus.CounterVec
	recommendationsGenerated prometheus.Counter
	overdueMarked            prometheus.Counter
}

// New builds a Metrics instance on its own registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		tasksCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Tasks created, recurring siblings included, by task type.",
		}, []string{"type"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Task submissions by task type and resulting submission status.",
		}, []string{"type", "status"}),
		recommendationsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_generated_total",
			Help:      "Template recommendations persisted.",
		}),
		overdueMarked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overdue_marked_total",
			Help:      "Tasks moved to the stored overdue status by the batch job.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests, m.httpDuration,
		m.tasksCreated, m.submissions, m.recommendationsGenerated, m.overdueMarked,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// GinMiddleware records request count and latency. Routes are labelled by
// their pattern so path parameters do not blow up cardinality.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) TaskCreated(taskType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tasksCreated.WithLabelValues(taskType).Add(float64(n))
}

func (m *Metrics) SubmissionRecorded(taskType, status string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(taskType, status).Inc()
}

func (m *Metrics) RecommendationsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recommendationsGenerated.Add(float64(n))
}

func (m *Metrics) OverdueMarked(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.overdueMarked.Add(float64(n))
}
