package domain

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/pkg/curves"
)

const maxCurveSamples = 100000

// PriceRange 标的价格采样区间 [From, To]，步长 Step
type PriceRange struct {
	From decimal.Decimal `json:"from"`
	To   decimal.Decimal `json:"to"`
	Step decimal.Decimal `json:"step"`
}

func (r PriceRange) Validate() error {
	if r.From.IsNegative() || !r.To.GreaterThan(r.From) || !r.Step.IsPositive() {
		return ErrInvalidPriceRange.WithDetail("[%s, %s] step %s", r.From, r.To, r.Step)
	}
	if r.To.Sub(r.From).Div(r.Step).GreaterThan(decimal.NewFromInt(maxCurveSamples)) {
		return ErrInvalidPriceRange.WithDetail("more than %d samples", maxCurveSamples)
	}
	return nil
}

// PayoffCurve 区间内的到期损益曲线（线性插值），区间内的行权价作为额外采样点，保证折点精确
func (s *Strategy) PayoffCurve(r PriceRange) (*curves.Curve, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	sn := s.Snapshot()
	if len(sn.legs) == 0 {
		return nil, ErrEmptyStrategy
	}

	xs := []decimal.Decimal{r.To}
	for x := r.From; x.LessThan(r.To); x = x.Add(r.Step) {
		xs = append(xs, x)
	}
	for _, k := range sn.strikes() {
		if k.GreaterThan(r.From) && k.LessThan(r.To) {
			xs = append(xs, k)
		}
	}
	return sn.curve(xs)
}

// BreakevenPoints 到期损益曲线的全部零点，升序。
// 采样包含 0、每个行权价与最高行权价之外足够远的点，分段线性，零点为闭式精确解。
func (s *Strategy) BreakevenPoints() ([]decimal.Decimal, error) {
	sn := s.Snapshot()
	if len(sn.legs) == 0 {
		return nil, ErrEmptyStrategy
	}
	strikes := sn.strikes()
	kmax := strikes[len(strikes)-1]

	hi := kmax.Mul(decimal.NewFromInt(2))
	// 最高行权价之外损益为直线，若其零点超出 hi 则延长采样区间
	if slope := sn.tailSlope(); !slope.IsZero() {
		root := kmax.Sub(sn.PayoffAt(kmax).Div(slope))
		if root.GreaterThanOrEqual(hi) {
			hi = root.Add(kmax.Div(decimal.NewFromInt(10)))
		}
	}

	xs := append([]decimal.Decimal{decimal.Zero, hi}, strikes...)
	curve, err := sn.curve(xs)
	if err != nil {
		return nil, err
	}
	return curve.Roots()
}

// Extremum 损益极值。Unbounded 表示随标的上涨无界
type Extremum struct {
	Value     decimal.Decimal `json:"value"`
	Price     decimal.Decimal `json:"price"`
	Unbounded bool            `json:"unbounded"`
}

// MaxProfit 到期最大收益。损益在行权价之间线性，极值出现在 0、某个行权价或无穷远
func (s *Strategy) MaxProfit() (Extremum, error) {
	sn := s.Snapshot()
	if len(sn.legs) == 0 {
		return Extremum{}, ErrEmptyStrategy
	}
	best := Extremum{Value: sn.PayoffAt(decimal.Zero), Price: decimal.Zero}
	for _, k := range sn.strikes() {
		if v := sn.PayoffAt(k); v.GreaterThan(best.Value) {
			best = Extremum{Value: v, Price: k}
		}
	}
	best.Unbounded = sn.tailSlope().IsPositive()
	return best, nil
}

// MaxLoss 到期最大亏损，以正数表示
func (s *Strategy) MaxLoss() (Extremum, error) {
	sn := s.Snapshot()
	if len(sn.legs) == 0 {
		return Extremum{}, ErrEmptyStrategy
	}
	worst := Extremum{Value: sn.PayoffAt(decimal.Zero), Price: decimal.Zero}
	for _, k := range sn.strikes() {
		if v := sn.PayoffAt(k); v.LessThan(worst.Value) {
			worst = Extremum{Value: v, Price: k}
		}
	}
	worst.Value = worst.Value.Neg()
	worst.Unbounded = sn.tailSlope().IsNegative()
	return worst, nil
}

// strikes 去重后升序的行权价
func (sn Snapshot) strikes() []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(sn.legs))
	for _, l := range sn.legs {
		out = append(out, l.Contract.Strike)
	}
	return sortUnique(out)
}

// tailSlope 最高行权价之上损益对标的价格的斜率，仅看涨腿贡献
func (sn Snapshot) tailSlope() decimal.Decimal {
	slope := decimal.Zero
	for _, l := range sn.legs {
		if l.Contract.IsCall() {
			slope = slope.Add(l.Exposure())
		}
	}
	return slope
}

func (sn Snapshot) curve(xs []decimal.Decimal) (*curves.Curve, error) {
	xs = sortUnique(xs)
	points := make([]curves.Point, len(xs))
	for i, x := range xs {
		points[i] = curves.Point{X: x, Y: sn.PayoffAt(x)}
	}
	return curves.NewCurve(points, curves.InterpolationLinear, curves.ExtrapolationLinear)
}

func sortUnique(xs []decimal.Decimal) []decimal.Decimal {
	sort.Slice(xs, func(a, b int) bool { return xs[a].LessThan(xs[b]) })
	out := xs[:0]
	for i, x := range xs {
		if i == 0 || !x.Equal(out[len(out)-1]) {
			out = append(out, x)
		}
	}
	return out
}
