package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/internal/volatility/application"
	"github.com/wyfcoding/optionsengine/internal/volatility/domain"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	svc := application.NewVolatilityService(
		chains.NewChainService(slog.Default()),
		domain.NewCalibrator(pricing.NewPricer(pricing.DefaultConfig())),
		metrics.New("test"),
	)
	NewVolatilityHandler(svc).RegisterRoutes(r.Group("/api/v1"))
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

func ivQuote(strike, expiry, iv string) string {
	return `{"contract":{"underlying":"SPY","option_type":"CALL","style":"EUROPEAN","strike":"` + strike +
		`","expiry":"` + expiry + `"},"implied_volatility":"` + iv + `"}`
}

func TestEvaluateCurve(t *testing.T) {
	body := `{"points":[{"x":"0","y":"-1"},{"x":"1","y":"1"},{"x":"2","y":"3"}],"xs":["0.5","3"],"with_roots":true}`
	rec := post(t, newRouter(), "/api/v1/volatility/curve/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto struct {
		Values []string `json:"values"`
		Roots  []string `json:"roots"`
		Domain []string `json:"domain"`
		Curve  struct {
			Method string `json:"method"`
		} `json:"curve"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, []string{"0", "3"}, dto.Values)
	assert.Equal(t, []string{"0.5"}, dto.Roots)
	assert.Equal(t, []string{"0", "2"}, dto.Domain)
	assert.Equal(t, "LINEAR", dto.Curve.Method)
}

func TestEvaluateSurface(t *testing.T) {
	body := `{"points":[
		{"x":"90","y":"0.5","z":"0.3"},{"x":"110","y":"0.5","z":"0.2"},
		{"x":"90","y":"1","z":"0.4"},{"x":"110","y":"1","z":"0.3"}],
		"queries":[{"x":"100","y":"0.75"}],"slice_at":"1"}`
	rec := post(t, newRouter(), "/api/v1/volatility/surface/evaluate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto struct {
		Values []string `json:"values"`
		Slice  struct {
			Points []struct {
				X string `json:"x"`
				Y string `json:"y"`
			} `json:"points"`
		} `json:"slice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, []string{"0.3"}, dto.Values)
	require.Len(t, dto.Slice.Points, 2)
	assert.Equal(t, "0.4", dto.Slice.Points[0].Y)
}

func TestCalibrateSmile_ReportsSkipped(t *testing.T) {
	// 行权价 50 的看涨买卖价低于内在价值，无法反解
	unsolvable := `{"contract":{"underlying":"SPY","option_type":"CALL","style":"EUROPEAN","strike":"50","expiry":"0.5"},"bid":"1.0","ask":"1.2"}`
	body := `{"chain":{"underlying":"SPY","quotes":[` + unsolvable + "," +
		ivQuote("90", "0.5", "0.3") + "," + ivQuote("100", "0.5", "0.25") + "," + ivQuote("110", "0.5", "0.27") +
		`]},"expiry":"0.5","market":{"spot":"100","rate":"0.03"}}`
	rec := post(t, newRouter(), "/api/v1/volatility/smile/calibrate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto application.SmileDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, 1, dto.Skipped)
	require.Len(t, dto.Points, 3)
	assert.Equal(t, "90", dto.Points[0].Strike.String())
	assert.Equal(t, "0.25", dto.Points[1].Vol.String())
}

func TestCalibrateSurface(t *testing.T) {
	body := `{"chain":{"underlying":"SPY","quotes":[` +
		ivQuote("90", "0.5", "0.3") + "," + ivQuote("110", "0.5", "0.2") + "," +
		ivQuote("90", "1", "0.35") + "," + ivQuote("110", "1", "0.25") + "," + ivQuote("120", "1", "0.22") + "," +
		`{"contract":{"underlying":"SPY","option_type":"CALL","style":"EUROPEAN","strike":"100","expiry":"2"}}` +
		`]},"market":{"spot":"100"}}`
	rec := post(t, newRouter(), "/api/v1/volatility/surface/calibrate", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var dto struct {
		Surface struct {
			Method string `json:"method"`
			Points []struct {
				X string `json:"x"`
			} `json:"points"`
		} `json:"surface"`
		Dropped []string `json:"dropped"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "BILINEAR", dto.Surface.Method)
	assert.Len(t, dto.Surface.Points, 4)
	assert.Equal(t, []string{"2"}, dto.Dropped)
}

func TestVolatility_Errors(t *testing.T) {
	tests := []struct {
		name, path, body string
		status           int
		code             string
	}{
		{"malformed", "/api/v1/volatility/curve/evaluate", `{`, http.StatusBadRequest, "BAD_REQUEST"},
		{"too few points", "/api/v1/volatility/curve/evaluate",
			`{"points":[{"x":"0","y":"1"}],"xs":["0"]}`, http.StatusBadRequest, "INSUFFICIENT_POINTS"},
		{"non monotonic", "/api/v1/volatility/curve/evaluate",
			`{"points":[{"x":"1","y":"1"},{"x":"1","y":"2"}]}`, http.StatusBadRequest, "NON_MONOTONIC"},
		{"reject outside domain", "/api/v1/volatility/curve/evaluate",
			`{"points":[{"x":"0","y":"1"},{"x":"1","y":"2"}],"extrapolation":"REJECT","xs":["2"]}`,
			http.StatusUnprocessableEntity, "OUT_OF_DOMAIN"},
		{"incomplete grid", "/api/v1/volatility/surface/evaluate",
			`{"points":[{"x":"1","y":"1","z":"1"},{"x":"2","y":"1","z":"1"},{"x":"1","y":"2","z":"1"}]}`,
			http.StatusBadRequest, "INCOMPLETE_GRID"},
		{"unknown expiry", "/api/v1/volatility/smile/calibrate",
			`{"chain":{"underlying":"SPY","quotes":[` + ivQuote("100", "0.5", "0.2") + `]},"expiry":"1","market":{"spot":"100"}}`,
			http.StatusUnprocessableEntity, "EXPIRY_NOT_FOUND"},
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
