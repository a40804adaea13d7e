package domain

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
)

// TemplateParams 模板策略参数，Strikes 按模板要求升序给出。
// 跨到期日模板（如 POOR_MANS_COVERED_CALL）使用升序的 Expiries，其余模板使用 Expiry。
type TemplateParams struct {
	Underlying string                    `json:"underlying"`
	Expiry     decimal.Decimal           `json:"expiry"`
	Expiries   []decimal.Decimal         `json:"expiries,omitempty"`
	Strikes    []decimal.Decimal         `json:"strikes"`
	Quantity   decimal.Decimal           `json:"quantity"`
	Style      derivatives.ExerciseStyle `json:"style"`
	Multiplier decimal.Decimal           `json:"multiplier"`
}

type templateLeg struct {
	strike int // Strikes 下标
	ot     derivatives.OptionType
	side   Side
	ratio  int64
	expiry int // Expiries 下标
}

var templates = map[StrategyType][]templateLeg{
	StrategyTypeLongCall:  {{0, derivatives.OptionTypeCall, SideLong, 1, 0}},
	StrategyTypeShortCall: {{0, derivatives.OptionTypeCall, SideShort, 1, 0}},
	StrategyTypeLongPut:   {{0, derivatives.OptionTypePut, SideLong, 1, 0}},
	StrategyTypeShortPut:  {{0, derivatives.OptionTypePut, SideShort, 1, 0}},
	StrategyTypeBullCallSpread: {
		{0, derivatives.OptionTypeCall, SideLong, 1, 0},
		{1, derivatives.OptionTypeCall, SideShort, 1, 0},
	},
	StrategyTypeBearCallSpread: {
		{0, derivatives.OptionTypeCall, SideShort, 1, 0},
		{1, derivatives.OptionTypeCall, SideLong, 1, 0},
	},
	StrategyTypeBullPutSpread: {
		{0, derivatives.OptionTypePut, SideLong, 1, 0},
		{1, derivatives.OptionTypePut, SideShort, 1, 0},
	},
	StrategyTypeBearPutSpread: {
		{1, derivatives.OptionTypePut, SideLong, 1, 0},
		{0, derivatives.OptionTypePut, SideShort, 1, 0},
	},
	StrategyTypeStraddle: {
		{0, derivatives.OptionTypeCall, SideLong, 1, 0},
		{0, derivatives.OptionTypePut, SideLong, 1, 0},
	},
	StrategyTypeShortStraddle: {
		{0, derivatives.OptionTypeCall, SideShort, 1, 0},
		{0, derivatives.OptionTypePut, SideShort, 1, 0},
	},
	StrategyTypeStrangle: {
		{0, derivatives.OptionTypePut, SideLong, 1, 0},
		{1, derivatives.OptionTypeCall, SideLong, 1, 0},
	},
	StrategyTypeShortStrangle: {
		{0, derivatives.OptionTypePut, SideShort, 1, 0},
		{1, derivatives.OptionTypeCall, SideShort, 1, 0},
	},
	StrategyTypeIronCondor: {
		{0, derivatives.OptionTypePut, SideLong, 1, 0},
		{1, derivatives.OptionTypePut, SideShort, 1, 0},
		{2, derivatives.OptionTypeCall, SideShort, 1, 0},
		{3, derivatives.OptionTypeCall, SideLong, 1, 0},
	},
	StrategyTypeCallButterfly: {
		{0, derivatives.OptionTypeCall, SideLong, 1, 0},
		{1, derivatives.OptionTypeCall, SideShort, 2, 0},
		{2, derivatives.OptionTypeCall, SideLong, 1, 0},
	},
	StrategyTypeShortButterfly: {
		{0, derivatives.OptionTypeCall, SideShort, 1, 0},
		{1, derivatives.OptionTypeCall, SideLong, 2, 0},
		{2, derivatives.OptionTypeCall, SideShort, 1, 0},
	},
	StrategyTypeRatioCallSpread: {
		{0, derivatives.OptionTypeCall, SideLong, 1, 0},
		{1, derivatives.OptionTypeCall, SideShort, 2, 0},
	},
	// 远月实值看涨替代正股，近月虚值看涨收取权利金
	StrategyTypePoorMansCoveredCall: {
		{0, derivatives.OptionTypeCall, SideLong, 1, 1},
		{1, derivatives.OptionTypeCall, SideShort, 1, 0},
	},
}

// StrikesRequired 模板需要的行权价个数
func StrikesRequired(kind StrategyType) (int, bool) {
	legs, ok := templates[kind]
	if !ok {
		return 0, false
	}
	n := 0
	for _, l := range legs {
		if l.strike+1 > n {
			n = l.strike + 1
		}
	}
	return n, true
}

// ExpiriesRequired 模板需要的到期日个数
func ExpiriesRequired(kind StrategyType) (int, bool) {
	legs, ok := templates[kind]
	if !ok {
		return 0, false
	}
	n := 0
	for _, l := range legs {
		if l.expiry+1 > n {
			n = l.expiry + 1
		}
	}
	return n, true
}

// BuildTemplate 按模板构建策略，每条腿以 market 定价
func BuildTemplate(kind StrategyType, p TemplateParams, pricer *pricing.Pricer, market pricing.MarketState) (*Strategy, error) {
	legs, ok := templates[kind]
	if !ok {
		return nil, ErrUnknownTemplate.WithDetail("%q", kind)
	}
	if err := checkStrikes(kind, p.Strikes); err != nil {
		return nil, err
	}
	expiries, err := templateExpiries(kind, p)
	if err != nil {
		return nil, err
	}
	if p.Quantity.IsZero() {
		p.Quantity = decimal.NewFromInt(1)
	}
	if p.Style == "" {
		p.Style = derivatives.ExerciseEuropean
	}

	s := NewStrategy(string(kind), kind, pricer, market)
	for _, tl := range legs {
		c, err := derivatives.NewOptionContract(p.Underlying, tl.ot, p.Style, p.Strikes[tl.strike], expiries[tl.expiry], p.Multiplier)
		if err != nil {
			return nil, err
		}
		if err := s.AddLeg(c, p.Quantity.Mul(decimal.NewFromInt(tl.ratio)), tl.side); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func checkStrikes(kind StrategyType, strikes []decimal.Decimal) error {
	need, _ := StrikesRequired(kind)
	if len(strikes) != need {
		return ErrInvalidStrikeOrder.WithDetail("%s needs %d strikes, got %d", kind, need, len(strikes))
	}
	for i := 1; i < len(strikes); i++ {
		if !strikes[i].GreaterThan(strikes[i-1]) {
			return ErrInvalidStrikeOrder.WithDetail("%s after %s", strikes[i], strikes[i-1])
		}
	}
	return nil
}

func templateExpiries(kind StrategyType, p TemplateParams) ([]decimal.Decimal, error) {
	need, _ := ExpiriesRequired(kind)
	if need == 1 {
		if len(p.Expiries) == 1 && p.Expiry.IsZero() {
			return p.Expiries, nil
		}
		return []decimal.Decimal{p.Expiry}, nil
	}
	if len(p.Expiries) != need {
		return nil, ErrInvalidExpiries.WithDetail("%s needs %d expiries, got %d", kind, need, len(p.Expiries))
	}
	for i := 1; i < len(p.Expiries); i++ {
		if !p.Expiries[i].GreaterThan(p.Expiries[i-1]) {
			return nil, ErrInvalidExpiries.WithDetail("%s after %s", p.Expiries[i], p.Expiries[i-1])
		}
	}
	return p.Expiries, nil
}
