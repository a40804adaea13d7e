// Package application 定价应用服务：请求校验、调用定价引擎、记录日志与指标
package application

import (
	"context"

	"github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
)

// PricingService 定价服务
type PricingService struct {
	pricer  *domain.Pricer
	metrics *metrics.Metrics
}

// NewPricingService 创建定价服务
func NewPricingService(pricer *domain.Pricer, m *metrics.Metrics) *PricingService {
	return &PricingService{pricer: pricer, metrics: m}
}

func (s *PricingService) Pricer() *domain.Pricer { return s.pricer }

// Price 计算理论价格
func (s *PricingService) Price(ctx context.Context, req PriceRequest) (dto *PriceDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := req.Contract.ToDomain()
	if err != nil {
		return nil, err
	}
	model, _ := domain.ModelFor(c.Style)
	defer func() { s.metrics.RecordPricing("price", string(model), err) }()

	m, err := req.Market.ToDomain()
	if err != nil {
		return nil, err
	}
	vol, err := m.VolatilityFor(c)
	if err != nil {
		return nil, err
	}
	price, err := s.pricer.PriceAt(c, m)
	if err != nil {
		logger.Debug(ctx, "pricing failed", "symbol", c.Symbol(), "error", err)
		return nil, err
	}

	logger.Debug(ctx, "option priced", "symbol", c.Symbol(), "model", model, "price", price)
	return &PriceDTO{
		Symbol:         c.Symbol(),
		Model:          model,
		Price:          price,
		Volatility:     vol,
		IntrinsicValue: c.IntrinsicValue(m.UnderlyingPrice),
		TimeValue:      c.TimeValue(m.UnderlyingPrice, price),
		Moneyness:      c.MoneynessLabel(m.UnderlyingPrice),
	}, nil
}

// Greeks 计算价格与希腊字母
func (s *PricingService) Greeks(ctx context.Context, req PriceRequest) (dto *GreeksDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := req.Contract.ToDomain()
	if err != nil {
		return nil, err
	}
	model, _ := domain.ModelFor(c.Style)
	defer func() { s.metrics.RecordPricing("greeks", string(model), err) }()

	m, err := req.Market.ToDomain()
	if err != nil {
		return nil, err
	}
	price, err := s.pricer.PriceAt(c, m)
	if err != nil {
		return nil, err
	}
	g, err := s.pricer.Greeks(c, m)
	if err != nil {
		logger.Debug(ctx, "greeks failed", "symbol", c.Symbol(), "error", err)
		return nil, err
	}
	return &GreeksDTO{Symbol: c.Symbol(), Model: model, Price: price, Greeks: g}, nil
}

// ImpliedVolatility 由观察价格反解波动率
func (s *PricingService) ImpliedVolatility(ctx context.Context, req ImpliedVolatilityRequest) (dto *ImpliedVolatilityDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := req.Contract.ToDomain()
	if err != nil {
		return nil, err
	}
	model, _ := domain.ModelFor(c.Style)
	defer func() { s.metrics.RecordPricing("implied_volatility", string(model), err) }()

	defer logger.LogDuration(ctx, "implied volatility solved", "symbol", c.Symbol())()
	iv, err := s.pricer.ImpliedVolatility(c, req.OptionPrice, req.UnderlyingPrice, req.Rate, req.DividendYield)
	if err != nil {
		logger.Info(ctx, "implied volatility failed", "symbol", c.Symbol(), "price", req.OptionPrice, "error", err)
		return nil, err
	}
	return &ImpliedVolatilityDTO{Symbol: c.Symbol(), ImpliedVolatility: iv}, nil
}

// GreekCurve 采样价格或希腊字母曲线
func (s *PricingService) GreekCurve(ctx context.Context, req GreekCurveRequest) (dto *GreekCurveDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := req.Contract.ToDomain()
	if err != nil {
		return nil, err
	}
	model, _ := domain.ModelFor(c.Style)
	defer func() { s.metrics.RecordPricing("greek_curve", string(model), err) }()

	m, err := req.Market.ToDomain()
	if err != nil {
		return nil, err
	}
	axis := req.Axis
	if axis == "" {
		axis = domain.AxisUnderlying
	}
	curve, err := s.pricer.MeasureCurve(c, m, req.Measure, axis, req.Range, req.Method)
	if err != nil {
		logger.Debug(ctx, "greek curve failed", "symbol", c.Symbol(), "measure", req.Measure, "error", err)
		return nil, err
	}
	logger.Debug(ctx, "greek curve sampled", "symbol", c.Symbol(), "measure", req.Measure, "axis", axis, "points", curve.Len())
	return &GreekCurveDTO{Symbol: c.Symbol(), Measure: req.Measure, Axis: axis, Curve: curve}, nil
}
