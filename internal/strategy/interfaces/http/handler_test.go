package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/internal/strategy/application"
	"github.com/wyfcoding/optionsengine/internal/strategy/domain"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

func newRouter(m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := application.NewStrategyService(pricing.NewPricer(pricing.DefaultConfig()), chains.NewChainService(slog.Default()), m)
	NewStrategyHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

const market = `"market":{"underlying_price":"100","volatility":"0.2","rate":"0.05"}`

func TestAnalyze_BullCallSpread(t *testing.T) {
	m := metrics.New("test")
	body := `{"strategy":{"template":"BULL_CALL_SPREAD","params":{"underlying":"SPY","expiry":"1","strikes":["95","105"]},` + market + `}}`
	rec := post(t, newRouter(m), "/api/v1/strategies/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.AnalysisDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Len(t, dto.Legs, 2)
	assert.True(t, dto.NetQuantity.IsZero())
	assert.True(t, dto.NetPremium.IsPositive())
	assert.True(t, dto.NetGreeks.Delta.IsPositive())

	require.Len(t, dto.Breakevens, 1)
	assert.True(t, dto.Breakevens[0].Equal(dto.NetPremium.Add(dto.Legs[0].Contract.Strike)))
	assert.False(t, dto.MaxProfit.Unbounded)
	assert.False(t, dto.MaxLoss.Unbounded)
	assert.True(t, dto.MaxLoss.Value.Equal(dto.NetPremium))
	assert.Equal(t, "10", dto.MaxProfit.Value.Add(dto.MaxLoss.Value).String())
	require.NotNil(t, dto.ProfitRatio)
	assert.True(t, dto.ProfitRatio.Equal(dto.MaxProfit.Value.Div(dto.MaxLoss.Value).Mul(decimal.NewFromInt(100))))
	assert.True(t, dto.ProfitArea.IsPositive())
	assert.NotEmpty(t, dto.Payoff)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StrategiesAnalyzed))
}

func TestAnalyze_CustomLegsWithPremium(t *testing.T) {
	body := `{"strategy":{"name":"long call","legs":[{"contract":{"underlying":"SPY","option_type":"CALL","strike":"100","expiry":"0.5"},
		"quantity":"2","side":"LONG","premium":"5"}],` + market + `},"price_range":{"from":"80","to":"120","step":"10"}}`
	rec := post(t, newRouter(metrics.New("test")), "/api/v1/strategies/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.AnalysisDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "long call", dto.Name)
	assert.Equal(t, "10", dto.NetPremium.String())
	require.Len(t, dto.Breakevens, 1)
	assert.Equal(t, "105", dto.Breakevens[0].String())
	assert.True(t, dto.MaxProfit.Unbounded)
	assert.Equal(t, "10", dto.MaxLoss.Value.String())
	require.Len(t, dto.Payoff, 5)
	assert.Equal(t, "30", dto.Payoff[4].Y.String())

	assert.Equal(t, "225", dto.ProfitArea.String())
	assert.Nil(t, dto.ProfitRatio)
	assert.False(t, dto.Delta.Neutral)
	require.Len(t, dto.Delta.Adjustments, 2)
	assert.Equal(t, domain.DeltaSellOptions, dto.Delta.Adjustments[0].Action)
	assert.Equal(t, "2", dto.Delta.Adjustments[0].Quantity.String())
	assert.Equal(t, domain.DeltaSellUnderlying, dto.Delta.Adjustments[1].Action)
}

func TestAnalyze_StraddleHasTwoBreakevens(t *testing.T) {
	body := `{"strategy":{"template":"STRADDLE","params":{"underlying":"SPY","expiry":"0.5","strikes":["100"]},` + market + `}}`
	rec := post(t, newRouter(metrics.New("test")), "/api/v1/strategies/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.AnalysisDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Len(t, dto.Breakevens, 2)
	assert.True(t, dto.Breakevens[0].LessThan(dto.Breakevens[1]))
	assert.True(t, dto.MaxProfit.Unbounded)
	assert.Equal(t, "100", dto.MaxLoss.Price.String())
}

func TestValue_AtExpiryIsPayoff(t *testing.T) {
	body := `{"strategy":{"legs":[{"contract":{"underlying":"SPY","option_type":"CALL","strike":"100","expiry":"0.5"},
		"quantity":"1","side":"LONG","premium":"5"}],` + market + `},"prices":["90","120"],"elapsed":"0.5"}`
	rec := post(t, newRouter(metrics.New("test")), "/api/v1/strategies/value", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.ValueDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Len(t, dto.Values, 2)
	assert.Equal(t, "-5", dto.Values[0].Y.String())
	assert.Equal(t, "15", dto.Values[1].Y.String())
}

func TestAnalyze_PoorMansCoveredCall(t *testing.T) {
	body := `{"strategy":{"template":"POOR_MANS_COVERED_CALL","params":{"underlying":"SPY","expiries":["0.25","1"],"strikes":["90","110"]},` + market + `}}`
	rec := post(t, newRouter(metrics.New("test")), "/api/v1/strategies/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.AnalysisDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Len(t, dto.Legs, 2)
	assert.Equal(t, "1", dto.Legs[0].Contract.Expiry.String())
	assert.Equal(t, "0.25", dto.Legs[1].Contract.Expiry.String())
	assert.Len(t, dto.Breakevens, 1)
}

func quote(ot, strike, bid, ask string) string {
	return `{"contract":{"underlying":"SPY","option_type":"` + ot + `","style":"EUROPEAN","strike":"` + strike +
		`","expiry":"0.5"},"bid":"` + bid + `","ask":"` + ask + `"}`
}

var chainJSON = `{"underlying":"SPY","quotes":[` +
	quote("CALL", "90", "11", "12") + "," +
	quote("CALL", "95", "7", "8") + "," +
	quote("CALL", "100", "4", "5") + "," +
	quote("CALL", "105", "2", "2.5") + "," +
	quote("CALL", "110", "1", "1.2") + "," +
	quote("PUT", "100", "3", "3.5") + `]}`

func TestOptimize(t *testing.T) {
	m := metrics.New("test")
	body := `{"chain":` + chainJSON + `,"params":{"kind":"BULL_CALL_SPREAD","expiry":"0.5","side":"ALL","criteria":"RATIO"},` + market + `}`
	rec := post(t, newRouter(m), "/api/v1/strategies/optimize", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.OptimumDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	require.Len(t, dto.Strikes, 2)
	assert.Equal(t, "105", dto.Strikes[0].String())
	assert.Equal(t, "110", dto.Strikes[1].String())
	assert.Equal(t, 10, dto.Evaluated)
	assert.Equal(t, "1.5", dto.NetPremium.String())
	require.Len(t, dto.Breakevens, 1)
	assert.Equal(t, "106.5", dto.Breakevens[0].String())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.StrategiesAnalyzed))
}

func TestStrategy_Errors(t *testing.T) {
	leg := func(side, qty string) string {
		return `{"contract":{"underlying":"SPY","option_type":"CALL","strike":"100","expiry":"0.5"},"quantity":"` + qty + `","side":"` + side + `"}`
	}
	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"malformed", "/api/v1/strategies/analyze", `{"strategy":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown template", "/api/v1/strategies/analyze",
			`{"strategy":{"template":"JADE_LIZARD","params":{"underlying":"SPY","expiry":"1","strikes":["100"]},` + market + `}}`,
			http.StatusBadRequest, "UNKNOWN_TEMPLATE"},
		{"strike order", "/api/v1/strategies/analyze",
			`{"strategy":{"template":"BULL_CALL_SPREAD","params":{"underlying":"SPY","expiry":"1","strikes":["105","95"]},` + market + `}}`,
			http.StatusBadRequest, "INVALID_STRIKE_ORDER"},
		{"no legs", "/api/v1/strategies/analyze", `{"strategy":{` + market + `}}`, http.StatusUnprocessableEntity, "EMPTY_STRATEGY"},
		{"bad side", "/api/v1/strategies/analyze", `{"strategy":{"legs":[` + leg("FLAT", "1") + `],` + market + `}}`,
			http.StatusBadRequest, "INVALID_SIDE"},
		{"zero quantity", "/api/v1/strategies/analyze", `{"strategy":{"legs":[` + leg("LONG", "0") + `],` + market + `}}`,
			http.StatusBadRequest, "INVALID_QUANTITY"},
		{"negative elapsed", "/api/v1/strategies/value",
			`{"strategy":{"legs":[` + leg("LONG", "1") + `],` + market + `},"prices":["100"],"elapsed":"-1"}`,
			http.StatusBadRequest, "INVALID_HORIZON"},
		{"calendar without expiries", "/api/v1/strategies/analyze",
			`{"strategy":{"template":"POOR_MANS_COVERED_CALL","params":{"underlying":"SPY","expiry":"1","strikes":["90","110"]},` + market + `}}`,
			http.StatusBadRequest, "INVALID_TEMPLATE_EXPIRIES"},
		{"bad criteria", "/api/v1/strategies/optimize",
			`{"chain":` + chainJSON + `,"params":{"kind":"BULL_CALL_SPREAD","expiry":"0.5","criteria":"SHARPE"},` + market + `}`,
			http.StatusBadRequest, "INVALID_CRITERIA"},
		{"no quoted combination", "/api/v1/strategies/optimize",
			`{"chain":` + chainJSON + `,"params":{"kind":"BULL_PUT_SPREAD","expiry":"0.5","criteria":"AREA"},` + market + `}`,
			http.StatusUnprocessableEntity, "NO_VALID_COMBINATION"},
	}
	r := newRouter(metrics.New("test"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, r, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			var body response.ErrorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
