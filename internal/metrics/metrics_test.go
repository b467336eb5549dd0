package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTransition(TransitionApplied)
		m.ObserveDealCreated()
		m.ObserveAnalytics(time.Second)
	})
}

func TestObserveTransition(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveTransition(TransitionApplied)
	m.ObserveTransition(TransitionApplied)
	m.ObserveTransition(TransitionConflict)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues(TransitionApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageTransitions.WithLabelValues(TransitionConflict)))
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New(prometheus.NewRegistry())

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/api/deals/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/deals/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/deals/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dealdesk_http_requests_total")
}
