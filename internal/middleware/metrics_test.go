package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/retroline/retroline/pkg/metrics"
)

func newMetricsRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/ws", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/board", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestMetricsSkipsTerminalSockets(t *testing.T) {
	r := newMetricsRouter()
	before := testutil.CollectAndCount(metrics.APILatency)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, before, testutil.CollectAndCount(metrics.APILatency),
		"socket upgrades must not be measured as request latency")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/board", nil))
	require.Greater(t, testutil.CollectAndCount(metrics.APILatency), before)
}

func TestMetricsCollapsesUnmatchedRoutes(t *testing.T) {
	r := newMetricsRouter()

	req := httptest.NewRequest(http.MethodGet, "/no/such/route/aXo3k", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() != "retroline_api_request_duration_seconds" {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() != "path" {
					continue
				}
				require.NotContains(t, label.GetValue(), "aXo3k",
					"raw URLs of unrouted requests must not become label values")
				if label.GetValue() == "unmatched" {
					found = true
				}
			}
		}
	}
	require.True(t, found, "unrouted requests should be recorded under a single path label")
}
