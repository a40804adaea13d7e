package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionsengine/internal/pricing/application"
	"github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := application.NewPricingService(domain.NewPricer(domain.DefaultConfig()), metrics.New("test"))
	NewPricingHandler(svc).RegisterRoutes(r.Group("/api/v1"))
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

const atmCall = `{"underlying":"SPY","option_type":"CALL","style":"EUROPEAN","strike":"100","expiry":"1"}`

func TestPrice_European(t *testing.T) {
	rec := post(t, newRouter(), "/api/v1/pricing/price",
		`{"contract":`+atmCall+`,"market":{"underlying_price":"100","volatility":"0.2","rate":"0.05"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.PriceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "SPY-1-100-C", dto.Symbol)
	assert.Equal(t, domain.ModelBlackScholes, dto.Model)
	assert.InDelta(t, 10.4506, dto.Price.InexactFloat64(), 1e-4)
	assert.Equal(t, "ATM", dto.Moneyness)
	assert.True(t, dto.IntrinsicValue.IsZero())
}

func TestPrice_ExpiredIsIntrinsic(t *testing.T) {
	rec := post(t, newRouter(), "/api/v1/pricing/price",
		`{"contract":{"underlying":"SPY","option_type":"CALL","strike":100,"expiry":0},"market":{"underlying_price":110,"volatility":0.3}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.PriceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "10", dto.Price.String())
}

func TestPrice_SmileSource(t *testing.T) {
	body := `{"contract":` + atmCall + `,"market":{"underlying_price":"100","rate":"0.05",
		"vol_source":{"smile":[{"x":"90","y":"0.3"},{"x":"110","y":"0.1"}]}}}`
	rec := post(t, newRouter(), "/api/v1/pricing/price", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.PriceDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "0.2", dto.Volatility.String())
	assert.InDelta(t, 10.4506, dto.Price.InexactFloat64(), 1e-4)
}

func TestGreeks(t *testing.T) {
	rec := post(t, newRouter(), "/api/v1/pricing/greeks",
		`{"contract":`+atmCall+`,"market":{"underlying_price":"100","volatility":"0.2","rate":"0.05"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.GreeksDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.InDelta(t, 0.6368, dto.Greeks.Delta.InexactFloat64(), 1e-4)
	assert.True(t, dto.Greeks.Gamma.IsPositive())
	assert.True(t, dto.Greeks.Theta.IsNegative())
}

func TestImpliedVolatility(t *testing.T) {
	rec := post(t, newRouter(), "/api/v1/pricing/implied-volatility",
		`{"contract":`+atmCall+`,"option_price":"10.450583572","underlying_price":"100","rate":"0.05"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.ImpliedVolatilityDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.InDelta(t, 0.2, dto.ImpliedVolatility.InexactFloat64(), 1e-6)
}

func TestGreekCurve(t *testing.T) {
	body := `{"contract":` + atmCall + `,"market":{"underlying_price":"100","volatility":"0.2","rate":"0.05"},
		"measure":"DELTA","range":{"from":"50","to":"150","steps":20}}`
	rec := post(t, newRouter(), "/api/v1/pricing/greek-curve", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto struct {
		Symbol string `json:"symbol"`
		Axis   string `json:"axis"`
		Curve  struct {
			Points []struct {
				X string  `json:"x"`
				Y float64 `json:"y,string"`
			} `json:"points"`
		} `json:"curve"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "UNDERLYING", dto.Axis)
	require.Len(t, dto.Curve.Points, 21)
	assert.Equal(t, "50", dto.Curve.Points[0].X)
	assert.Equal(t, "150", dto.Curve.Points[20].X)
	for i := 1; i < len(dto.Curve.Points); i++ {
		assert.Greater(t, dto.Curve.Points[i].Y, dto.Curve.Points[i-1].Y, "call delta rises with the underlying")
	}
}

func TestPricing_Errors(t *testing.T) {
	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"malformed", "/api/v1/pricing/price", `{"contract":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"bad strike", "/api/v1/pricing/price",
			`{"contract":{"underlying":"SPY","option_type":"CALL","strike":"-1","expiry":"1"},"market":{"underlying_price":"100","volatility":"0.2"}}`,
			http.StatusBadRequest, "INVALID_STRIKE"},
		{"negative vol", "/api/v1/pricing/greeks",
			`{"contract":` + atmCall + `,"market":{"underlying_price":"100","volatility":"-0.2"}}`,
			http.StatusBadRequest, "NEGATIVE_VOLATILITY"},
		{"unsupported model", "/api/v1/pricing/price",
			`{"contract":{"underlying":"SPY","option_type":"PUT","style":"BERMUDAN","strike":"100","expiry":"1"},"market":{"underlying_price":"100","volatility":"0.2"}}`,
			http.StatusUnprocessableEntity, "UNSUPPORTED_MODEL"},
		{"zero option price", "/api/v1/pricing/implied-volatility",
			`{"contract":` + atmCall + `,"option_price":"0","underlying_price":"100"}`,
			http.StatusBadRequest, "INVALID_OPTION_PRICE"},
		{"bad curve range", "/api/v1/pricing/greek-curve",
			`{"contract":` + atmCall + `,"market":{"underlying_price":"100","volatility":"0.2"},"measure":"DELTA","range":{"from":"0","to":"10","steps":5}}`,
			http.StatusBadRequest, "INVALID_CURVE_RANGE"},
		{"unknown measure", "/api/v1/pricing/greek-curve",
			`{"contract":` + atmCall + `,"market":{"underlying_price":"100","volatility":"0.2"},"measure":"VANNA","range":{"from":"50","to":"150","steps":5}}`,
			http.StatusBadRequest, "UNKNOWN_MEASURE"},
	}
	r := newRouter()
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
