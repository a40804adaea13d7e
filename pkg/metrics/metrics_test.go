package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New("test")

	m.RecordPricing("price", "BLACK_SCHOLES", nil)
	m.RecordPricing("price", "BLACK_SCHOLES", nil)
	m.RecordPricing("implied_volatility", "BINOMIAL", errors.New("boom"))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PricingOpsTotal.WithLabelValues("price", "BLACK_SCHOLES", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PricingOpsTotal.WithLabelValues("implied_volatility", "BINOMIAL", "error")))

	m.RecordSimulation("GBM", 1000, 3, 20*time.Millisecond, nil)
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.SimulatedPathsTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExcludedPathsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("GBM", "ok")))

	m.RecordSimulation("GBM", -5, 0, 0, errors.New("invalid path count"))
	assert.Equal(t, 1000.0, testutil.ToFloat64(m.SimulatedPathsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("GBM", "error")))

	m.RecordHTTPRequest("POST", "/api/v1/pricing/price", 200, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/pricing/price", "200")))
}

func TestHandler(t *testing.T) {
	m := New("test")
	m.StrategiesAnalyzed.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "optionsengine_strategy_analyzed_total")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New("a")
		New("a")
	})
}
