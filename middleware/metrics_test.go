package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"rag-chatbot-backend/internal/telemetry"
)

func metricsRouter(t *testing.T, metrics *telemetry.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(MetricsMiddleware(metrics))
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestMetricsMiddlewarePassesRequestsThrough(t *testing.T) {
	// Without a configured meter provider the instruments are no-ops, which
	// is exactly the default deployment; requests must still flow.
	metrics, err := telemetry.InitMetrics()
	require.NoError(t, err)

	router := metricsRouter(t, metrics)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsMiddlewareNilMetrics(t *testing.T) {
	router := metricsRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}
