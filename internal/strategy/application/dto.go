package application

import (
	"github.com/shopspring/decimal"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	pricingapp "github.com/wyfcoding/optionsengine/internal/pricing/application"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/internal/strategy/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
)

// LegInput 显式腿；Premium 为空时按市场状态定价
type LegInput struct {
	Contract pricingapp.ContractInput `json:"contract"`
	Quantity decimal.Decimal          `json:"quantity"`
	Side     domain.Side              `json:"side"`
	Premium  *decimal.Decimal         `json:"premium,omitempty"`
}

// StrategySpec 策略定义：Template 非空且非 CUSTOM 时按模板构建，否则使用 Legs
type StrategySpec struct {
	Name     string                 `json:"name"`
	Template domain.StrategyType    `json:"template"`
	Params   *domain.TemplateParams `json:"params,omitempty"`
	Legs     []LegInput             `json:"legs,omitempty"`
	Market   pricingapp.MarketInput `json:"market"`
}

// AnalyzeRequest 策略分析请求，PriceRange 缺省为 [0, 2·最高行权价]，50 段
type AnalyzeRequest struct {
	Strategy   StrategySpec       `json:"strategy"`
	PriceRange *domain.PriceRange `json:"price_range,omitempty"`
}

// AnalysisDTO 策略分析结果；收益无界或不可能亏损时 ProfitRatio 为空
type AnalysisDTO struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Kind        domain.StrategyType    `json:"kind"`
	Legs        []domain.Leg           `json:"legs"`
	NetQuantity decimal.Decimal        `json:"net_quantity"`
	NetPremium  decimal.Decimal        `json:"net_premium"`
	NetGreeks   pricing.Greeks         `json:"net_greeks"`
	Breakevens  []decimal.Decimal      `json:"breakevens"`
	MaxProfit   domain.Extremum        `json:"max_profit"`
	MaxLoss     domain.Extremum        `json:"max_loss"`
	Payoff      []curves.Point         `json:"payoff"`
	ProfitArea  decimal.Decimal        `json:"profit_area"`
	ProfitRatio *decimal.Decimal       `json:"profit_ratio,omitempty"`
	Delta       domain.DeltaNeutrality `json:"delta"`
}

// ValueRequest 持有 Elapsed 年后在各标的价格处的盯市损益
type ValueRequest struct {
	Strategy StrategySpec      `json:"strategy"`
	Prices   []decimal.Decimal `json:"prices"`
	Elapsed  decimal.Decimal   `json:"elapsed"`
}

// ValueDTO 盯市损益，Values 与 Prices 一一对应
type ValueDTO struct {
	Elapsed decimal.Decimal `json:"elapsed"`
	Values  []curves.Point  `json:"values"`
}

// OptimizeRequest 最优行权价搜索请求，Market.UnderlyingPrice 决定 side 过滤的基准
type OptimizeRequest struct {
	Chain  chains.ChainInput      `json:"chain"`
	Params domain.OptimizeParams  `json:"params"`
	Market pricingapp.MarketInput `json:"market"`
}

// OptimumDTO 最优组合
type OptimumDTO struct {
	Kind       domain.StrategyType         `json:"kind"`
	Criteria   domain.OptimizationCriteria `json:"criteria"`
	Strikes    []decimal.Decimal           `json:"strikes"`
	Score      decimal.Decimal             `json:"score"`
	Evaluated  int                         `json:"evaluated"`
	Legs       []domain.Leg                `json:"legs"`
	NetPremium decimal.Decimal             `json:"net_premium"`
	Breakevens []decimal.Decimal           `json:"breakevens"`
}
