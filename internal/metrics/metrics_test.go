package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	m := New()

	m.TaskCreated("workout", 3)
	m.TaskCreated("workout", 0)
	m.SubmissionRecorded("workout", "approved")
	m.RecommendationsGenerated(2)
	m.OverdueMarked(5)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.tasksCreated.WithLabelValues("workout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("workout", "approved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.recommendationsGenerated))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.overdueMarked))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TaskCreated("custom", 1)
		m.SubmissionRecorded("custom", "submitted")
		m.RecommendationsGenerated(1)
		m.OverdueMarked(1)
	})
}

func TestGinMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	router := gin.New()
	router.Use(m.GinMiddleware())
	router.GET("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tasks/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/tasks/:id", "GET", "204")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fitcoach_http_requests_total"))
}
