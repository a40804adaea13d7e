package main

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	chainapp "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	chainhttp "github.com/wyfcoding/optionsengine/internal/derivatives/interfaces/http"
	simapp "github.com/wyfcoding/optionsengine/internal/marketsimulation/application"
	simdomain "github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	simhttp "github.com/wyfcoding/optionsengine/internal/marketsimulation/interfaces/http"
	pricingapp "github.com/wyfcoding/optionsengine/internal/pricing/application"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	pricinghttp "github.com/wyfcoding/optionsengine/internal/pricing/interfaces/http"
	strategyapp "github.com/wyfcoding/optionsengine/internal/strategy/application"
	strategyhttp "github.com/wyfcoding/optionsengine/internal/strategy/interfaces/http"
	volapp "github.com/wyfcoding/optionsengine/internal/volatility/application"
	voldomain "github.com/wyfcoding/optionsengine/internal/volatility/domain"
	volhttp "github.com/wyfcoding/optionsengine/internal/volatility/interfaces/http"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"github.com/wyfcoding/optionsengine/pkg/idgen"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/middleware"
)

// newRouter 组装领域服务与 HTTP 路由
func newRouter(cfg *config.Config, m *metrics.Metrics, runs simdomain.RunRepository, ids *idgen.Generator) *gin.Engine {
	pricer := pricing.NewPricer(pricing.Config{
		BinomialSteps: cfg.Pricing.BinomialSteps,
		FDBump:        cfg.Pricing.FDBump,
		Precision:     cfg.Pricing.OutputPrecision,
	})

	chains := chainapp.NewChainService(slog.Default().With("component", "chains"))
	strategies := strategyapp.NewStrategyService(pricer, chains, m)
	engine := simdomain.NewEngine(cfg.Simulation.Workers)

	r := gin.New()
	r.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinMetricsMiddleware(m),
		middleware.GinCORSMiddleware(),
		middleware.RateLimitMiddleware(cfg.HTTP.RateLimit),
	)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})

	api := r.Group("/api/v1")
	pricinghttp.NewPricingHandler(pricingapp.NewPricingService(pricer, m)).RegisterRoutes(api)
	chainhttp.NewHandler(chains).RegisterRoutes(api)
	volhttp.NewVolatilityHandler(volapp.NewVolatilityService(chains, voldomain.NewCalibrator(pricer), m)).RegisterRoutes(api)
	strategyhttp.NewStrategyHandler(strategies).RegisterRoutes(api)
	simhttp.NewHandler(simapp.NewSimulationService(strategies, engine, runs, ids, m, cfg.Simulation)).RegisterRoutes(api)
	return r
}
