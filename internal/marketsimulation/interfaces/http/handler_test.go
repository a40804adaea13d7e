package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/application"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/infrastructure/persistence/memory"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	strategyapp "github.com/wyfcoding/optionsengine/internal/strategy/application"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"github.com/wyfcoding/optionsengine/pkg/idgen"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

func newRouter(t *testing.T, m *metrics.Metrics) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ids, err := idgen.New(1)
	require.NoError(t, err)

	svc := application.NewSimulationService(
		strategyapp.NewStrategyService(pricing.NewPricer(pricing.DefaultConfig()), chains.NewChainService(slog.Default()), m),
		domain.NewEngine(4),
		memory.NewRunRepository(16),
		ids,
		m,
		config.SimulationConfig{MaxPaths: 5000, DefaultSteps: 20, MaxSteps: 500},
	)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const straddle = `{"template":"STRADDLE","params":{"underlying":"SPY","expiry":"0.5","strikes":["100"]},
	"market":{"underlying_price":"100","volatility":"0.2","rate":"0.03"}}`

func TestRun_ReproducibleAndRetrievable(t *testing.T) {
	m := metrics.New("test")
	r := newRouter(t, m)
	body := `{"strategy":` + straddle + `,"process":{"type":"GBM","drift":"0.03","volatility":"0.25","horizon":"0.5"},
		"num_paths":800,"seed":7,"histogram_bins":8}`

	first := do(t, r, http.MethodPost, "/api/v1/simulations", body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := do(t, r, http.MethodPost, "/api/v1/simulations", body)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())

	var a, b domain.SimulationRun
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Result.Mean, b.Result.Mean)
	assert.Equal(t, a.Result.VaR95, b.Result.VaR95)
	assert.Equal(t, uint64(7), a.Result.Seed)
	assert.Equal(t, 20, a.Parameters.Steps)
	assert.Equal(t, "100", a.Parameters.InitialPrice.String())
	require.Len(t, a.Histogram, 8)
	total := 0
	for _, bin := range a.Histogram {
		total += bin.Count
	}
	assert.Equal(t, a.Result.ValidPaths, total)

	got := do(t, r, http.MethodGet, "/api/v1/simulations/"+a.ID, "")
	require.Equal(t, http.StatusOK, got.Code, got.Body.String())
	var stored domain.SimulationRun
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &stored))
	assert.Equal(t, a.Result.Mean, stored.Result.Mean)
	assert.Equal(t, "STRADDLE", stored.Strategy)

	assert.Equal(t, float64(1600), testutil.ToFloat64(m.SimulatedPathsTotal))
}

func TestRun_ZeroVolatilityIsDeterministic(t *testing.T) {
	body := `{"strategy":{"name":"long call","legs":[{"contract":{"underlying":"SPY","option_type":"CALL","strike":"100","expiry":"1"},
		"quantity":"1","side":"LONG","premium":"5"}],"market":{"underlying_price":"100","volatility":"0.2"}},
		"process":{"type":"GBM","volatility":"0","horizon":"1","steps":10},"num_paths":100}`
	rec := do(t, newRouter(t, metrics.New("test")), http.MethodPost, "/api/v1/simulations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var run domain.SimulationRun
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.InDelta(t, -5, run.Result.Mean, 1e-9)
	assert.InDelta(t, 0, run.Result.StdDev, 1e-9)
	assert.InDelta(t, 5, run.Result.VaR95, 1e-9)
	assert.Zero(t, run.Result.ProbabilityOfProfit)
	assert.Empty(t, run.Histogram)
}

func TestSimulations_Errors(t *testing.T) {
	process := `"process":{"type":"GBM","volatility":"0.2","horizon":"1"}`
	tests := []struct {
		name, method, path, body string
		status                   int
		code                     string
	}{
		{"malformed", http.MethodPost, "/api/v1/simulations", `{"num_paths":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"path limit", http.MethodPost, "/api/v1/simulations",
			`{"strategy":` + straddle + `,` + process + `,"num_paths":6000}`, http.StatusBadRequest, "PATH_LIMIT_EXCEEDED"},
		{"step limit", http.MethodPost, "/api/v1/simulations",
			`{"strategy":` + straddle + `,"process":{"type":"GBM","volatility":"0.2","horizon":"1","steps":501},"num_paths":10}`,
			http.StatusBadRequest, "STEP_LIMIT_EXCEEDED"},
		{"zero paths", http.MethodPost, "/api/v1/simulations",
			`{"strategy":` + straddle + `,` + process + `,"num_paths":0}`, http.StatusBadRequest, "INVALID_PATH_COUNT"},
		{"bad process", http.MethodPost, "/api/v1/simulations",
			`{"strategy":` + straddle + `,"process":{"type":"LEVY","volatility":"0.2","horizon":"1"},"num_paths":10}`,
			http.StatusBadRequest, "INVALID_PROCESS"},
		{"bad histogram", http.MethodPost, "/api/v1/simulations",
			`{"strategy":` + straddle + `,` + process + `,"num_paths":10,"histogram_bins":-1}`, http.StatusBadRequest, "INVALID_HISTOGRAM"},
		{"unknown run", http.MethodGet, "/api/v1/simulations/12345", "", http.StatusNotFound, "RUN_NOT_FOUND"},
	}
	r := newRouter(t, metrics.New("test"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
