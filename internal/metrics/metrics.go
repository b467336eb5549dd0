// Package metrics exposes prometheus collectors for the pipeline engine and
// the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transition outcomes.
const (
	TransitionApplied  = "applied"
	TransitionNoop     = "noop"
	TransitionRejected = "rejected"
	TransitionConflict = "conflict"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	StageTransitions  *prometheus.CounterVec
	DealsCreated      prometheus.Counter
	AnalyticsDuration prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		StageTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "stage_transitions_total",
			Help:      "Deal stage transition requests by outcome.",
		}, []string{"result"}),
		DealsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "deals_created_total",
			Help:      "Deals created.",
		}),
		AnalyticsDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dealdesk",
			Name:      "analytics_compute_seconds",
			Help:      "Time spent computing pipeline analytics.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dealdesk",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dealdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.StageTransitions, m.DealsCreated, m.AnalyticsDuration, m.HTTPRequests, m.HTTPDuration)
	return m
}

// ObserveTransition is safe on a nil receiver so services can run without metrics.
func (m *Metrics) ObserveTransition(result string) {
	if m == nil {
		return
	}
	m.StageTransitions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveDealCreated() {
	if m == nil {
		return
	}
	m.DealsCreated.Inc()
}

func (m *Metrics) ObserveAnalytics(d time.Duration) {
	if m == nil {
		return
	}
	m.AnalyticsDuration.Observe(d.Seconds())
}

// GinMiddleware records request count and latency keyed by the route pattern.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
