package domain

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

const defaultRangeSegments = 50

var ErrUnboundedRatio = xerrors.New(xerrors.KindDomain, "UNBOUNDED_PROFIT_RATIO", "profit ratio is unbounded")

// DeltaThreshold 净 Delta 绝对值不超过该值视为 Delta 中性
var DeltaThreshold = decimal.RequireFromString("0.0001")

// DefaultRange 默认采样区间 [0, 2·最高行权价]，50 段
func (s *Strategy) DefaultRange() PriceRange {
	return defaultRange(s.Snapshot().strikes())
}

func defaultRange(strikes []decimal.Decimal) PriceRange {
	kmax := decimal.Zero
	for _, k := range strikes {
		if k.GreaterThan(kmax) {
			kmax = k
		}
	}
	hi := kmax.Mul(decimal.NewFromInt(2))
	return PriceRange{From: decimal.Zero, To: hi, Step: hi.Div(decimal.NewFromInt(defaultRangeSegments))}
}

// ProfitArea 区间内到期损益曲线位于零轴之上的面积。
// 损益在行权价之间线性，采样包含行权价，梯形积分即为精确值。
func (s *Strategy) ProfitArea(r PriceRange) (decimal.Decimal, error) {
	curve, err := s.PayoffCurve(r)
	if err != nil {
		return decimal.Zero, err
	}
	pts := curve.Points()
	two := decimal.NewFromInt(2)
	area := decimal.Zero
	for i := 1; i < len(pts); i++ {
		x0, y0, x1, y1 := pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y
		switch {
		case !y0.IsNegative() && !y1.IsNegative():
			area = area.Add(y0.Add(y1).Mul(x1.Sub(x0)).Div(two))
		case y0.IsPositive():
			root := x0.Add(x1.Sub(x0).Mul(y0).Div(y0.Sub(y1)))
			area = area.Add(y0.Mul(root.Sub(x0)).Div(two))
		case y1.IsPositive():
			root := x0.Add(x1.Sub(x0).Mul(y0).Div(y0.Sub(y1)))
			area = area.Add(y1.Mul(x1.Sub(root)).Div(two))
		}
	}
	return area, nil
}

// ProfitRatio 最大收益 / 最大亏损 × 100。
// 亏损无界或收益非正时为 0；收益无界或不可能亏损时返回 ErrUnboundedRatio。
func (s *Strategy) ProfitRatio() (decimal.Decimal, error) {
	profit, err := s.MaxProfit()
	if err != nil {
		return decimal.Zero, err
	}
	loss, err := s.MaxLoss()
	if err != nil {
		return decimal.Zero, err
	}
	switch {
	case loss.Unbounded, !profit.Unbounded && !profit.Value.IsPositive():
		return decimal.Zero, nil
	case profit.Unbounded, !loss.Value.IsPositive():
		return decimal.Zero, ErrUnboundedRatio
	}
	return profit.Value.Div(loss.Value).Mul(decimal.NewFromInt(100)), nil
}

// DeltaAction Delta 调整动作
type DeltaAction string

const (
	DeltaNoAdjustment   DeltaAction = "NO_ADJUSTMENT"
	DeltaBuyUnderlying  DeltaAction = "BUY_UNDERLYING"
	DeltaSellUnderlying DeltaAction = "SELL_UNDERLYING"
	DeltaBuyOptions     DeltaAction = "BUY_OPTIONS"
	DeltaSellOptions    DeltaAction = "SELL_OPTIONS"
)

// DeltaAdjustment 单独执行即可使净 Delta 归零的一项调整。Quantity 为标的单位或合约张数
type DeltaAdjustment struct {
	Action   DeltaAction                 `json:"action"`
	Quantity decimal.Decimal             `json:"quantity"`
	Contract *derivatives.OptionContract `json:"contract,omitempty"`
}

// DeltaNeutrality Delta 中性分析
type DeltaNeutrality struct {
	NetDelta    decimal.Decimal   `json:"net_delta"`
	LegDeltas   []decimal.Decimal `json:"leg_deltas"`
	Neutral     bool              `json:"neutral"`
	Adjustments []DeltaAdjustment `json:"adjustments"`
}

// DeltaNeutrality 计算各腿敞口 Delta，并给出使净 Delta 归零的备选调整：
// 对每个腿合约加仓或减仓，或买卖标的。
func (s *Strategy) DeltaNeutrality() (DeltaNeutrality, error) {
	net, err := s.NetGreeks()
	if err != nil {
		return DeltaNeutrality{}, err
	}
	legs := s.Legs()
	if len(legs) == 0 {
		return DeltaNeutrality{}, ErrEmptyStrategy
	}

	out := DeltaNeutrality{NetDelta: net.Delta, LegDeltas: make([]decimal.Decimal, len(legs))}
	unit := make([]decimal.Decimal, len(legs))
	for i, l := range legs {
		g, err := s.pricer.Greeks(l.Contract, s.market)
		if err != nil {
			return DeltaNeutrality{}, err
		}
		unit[i] = g.Delta.Mul(l.Contract.Multiplier)
		out.LegDeltas[i] = g.Delta.Mul(l.Exposure())
	}

	if net.Delta.Abs().LessThanOrEqual(DeltaThreshold) {
		out.Neutral = true
		out.Adjustments = []DeltaAdjustment{{Action: DeltaNoAdjustment, Quantity: decimal.Zero}}
		return out, nil
	}

	seen := make(map[string]bool, len(legs))
	for i, l := range legs {
		sym := l.Contract.Symbol()
		if seen[sym] || unit[i].IsZero() {
			continue
		}
		seen[sym] = true
		contracts := net.Delta.Neg().Div(unit[i])
		action := DeltaBuyOptions
		if contracts.IsNegative() {
			action = DeltaSellOptions
		}
		c := l.Contract
		out.Adjustments = append(out.Adjustments, DeltaAdjustment{Action: action, Quantity: contracts.Abs(), Contract: &c})
	}
	action := DeltaSellUnderlying
	if net.Delta.IsNegative() {
		action = DeltaBuyUnderlying
	}
	out.Adjustments = append(out.Adjustments, DeltaAdjustment{Action: action, Quantity: net.Delta.Abs()})
	return out, nil
}
