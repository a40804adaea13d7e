// Package application 策略组合应用服务
package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/internal/strategy/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
)

// StrategyService 策略服务
type StrategyService struct {
	pricer  *pricing.Pricer
	chains  *chains.ChainService
	metrics *metrics.Metrics
}

func NewStrategyService(pricer *pricing.Pricer, chainService *chains.ChainService, m *metrics.Metrics) *StrategyService {
	return &StrategyService{pricer: pricer, chains: chainService, metrics: m}
}

// Build 由请求构建策略，供分析与模拟共用
func (s *StrategyService) Build(ctx context.Context, spec StrategySpec) (*domain.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	market, err := spec.Market.ToDomain()
	if err != nil {
		return nil, err
	}

	if spec.Template != "" && spec.Template != domain.StrategyTypeCustom {
		var params domain.TemplateParams
		if spec.Params != nil {
			params = *spec.Params
		}
		st, err := domain.BuildTemplate(spec.Template, params, s.pricer, market)
		if err != nil {
			return nil, err
		}
		if spec.Name != "" {
			st.Name = spec.Name
		}
		return st, nil
	}

	if len(spec.Legs) == 0 {
		return nil, domain.ErrEmptyStrategy
	}
	st := domain.NewStrategy(spec.Name, domain.StrategyTypeCustom, s.pricer, market)
	for _, in := range spec.Legs {
		c, err := in.Contract.ToDomain()
		if err != nil {
			return nil, err
		}
		if in.Premium != nil {
			err = st.AddLegWithPremium(c, in.Quantity, in.Side, *in.Premium)
		} else {
			err = st.AddLeg(c, in.Quantity, in.Side)
		}
		if err != nil {
			return nil, err
		}
	}
	return st, nil
}

// Analyze 汇总净头寸、净希腊字母、到期损益曲线、盈亏平衡点与极值
func (s *StrategyService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisDTO, error) {
	st, err := s.Build(ctx, req.Strategy)
	if err != nil {
		return nil, err
	}
	greeks, err := st.NetGreeks()
	if err != nil {
		return nil, err
	}
	breakevens, err := st.BreakevenPoints()
	if err != nil {
		return nil, err
	}
	maxProfit, err := st.MaxProfit()
	if err != nil {
		return nil, err
	}
	maxLoss, err := st.MaxLoss()
	if err != nil {
		return nil, err
	}

	r := st.DefaultRange()
	if req.PriceRange != nil {
		r = *req.PriceRange
	}
	payoff, err := st.PayoffCurve(r)
	if err != nil {
		return nil, err
	}
	area, err := st.ProfitArea(r)
	if err != nil {
		return nil, err
	}
	var ratio *decimal.Decimal
	if v, err := st.ProfitRatio(); err == nil {
		ratio = &v
	} else if !errors.Is(err, domain.ErrUnboundedRatio) {
		return nil, err
	}
	delta, err := st.DeltaNeutrality()
	if err != nil {
		return nil, err
	}

	s.metrics.StrategiesAnalyzed.Inc()
	logger.Info(ctx, "strategy analyzed", "id", st.ID, "kind", st.Kind, "legs", len(st.Legs()), "breakevens", len(breakevens))
	return &AnalysisDTO{
		ID:          st.ID,
		Name:        st.Name,
		Kind:        st.Kind,
		Legs:        st.Legs(),
		NetQuantity: st.NetQuantity(),
		NetPremium:  st.NetPremium(),
		NetGreeks:   greeks,
		Breakevens:  breakevens,
		MaxProfit:   maxProfit,
		MaxLoss:     maxLoss,
		Payoff:      payoff.Points(),
		ProfitArea:  area,
		ProfitRatio: ratio,
		Delta:       delta,
	}, nil
}

// Value 在若干标的价格处计算持有期盯市损益
func (s *StrategyService) Value(ctx context.Context, req ValueRequest) (*ValueDTO, error) {
	st, err := s.Build(ctx, req.Strategy)
	if err != nil {
		return nil, err
	}
	sn := st.Snapshot()
	out := make([]curves.Point, len(req.Prices))
	for i, p := range req.Prices {
		v, err := sn.ValueAt(p, req.Elapsed)
		if err != nil {
			return nil, err
		}
		out[i] = curves.Point{X: p, Y: v}
	}
	return &ValueDTO{Elapsed: req.Elapsed, Values: out}, nil
}

// Optimize 在期权链上搜索模板的最优行权价组合
func (s *StrategyService) Optimize(ctx context.Context, req OptimizeRequest) (*OptimumDTO, error) {
	chain, err := s.chains.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	market, err := req.Market.ToDomain()
	if err != nil {
		return nil, err
	}
	best, err := domain.BestLegs(chain, req.Params, s.pricer, market)
	if err != nil {
		logger.Warn(ctx, "strategy optimization failed", "kind", req.Params.Kind, "criteria", req.Params.Criteria, "error", err)
		return nil, err
	}
	st := best.Strategy
	breakevens, err := st.BreakevenPoints()
	if err != nil {
		return nil, err
	}

	s.metrics.StrategiesAnalyzed.Inc()
	logger.Info(ctx, "strategy optimized", "kind", st.Kind, "criteria", req.Params.Criteria, "evaluated", best.Evaluated, "score", best.Score.String())
	return &OptimumDTO{
		Kind:       st.Kind,
		Criteria:   req.Params.Criteria,
		Strikes:    best.Strikes,
		Score:      best.Score,
		Evaluated:  best.Evaluated,
		Legs:       st.Legs(),
		NetPremium: st.NetPremium(),
		Breakevens: breakevens,
	}, nil
}
