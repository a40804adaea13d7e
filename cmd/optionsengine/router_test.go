package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/infrastructure/persistence/memory"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"github.com/wyfcoding/optionsengine/pkg/idgen"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/middleware"
)

func testRouter(t *testing.T) (*gin.Engine, *metrics.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	ids, err := idgen.New(cfg.NodeID)
	require.NoError(t, err)
	m := metrics.New(cfg.ServiceName)
	return newRouter(cfg, m, memory.NewRunRepository(cfg.Simulation.RetainedRuns), ids), m
}

func TestRouter_Health(t *testing.T) {
	r, _ := testRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"optionsengine"`)
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_EveryContextMounted(t *testing.T) {
	r, m := testRouter(t)
	paths := []string{
		"/api/v1/pricing/price",
		"/api/v1/chains/summary",
		"/api/v1/volatility/curve/evaluate",
		"/api/v1/strategies/analyze",
		"/api/v1/simulations",
	}
	for _, p := range paths {
		req := httptest.NewRequest(http.MethodPost, p, bytes.NewBufferString(`{`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, p)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, p, "400")), p)
	}
}
