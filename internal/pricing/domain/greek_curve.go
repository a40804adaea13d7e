package domain

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

const maxCurveSteps = 10000

var (
	ErrInvalidCurveRange = xerrors.New(xerrors.KindValidation, "INVALID_CURVE_RANGE", "curve range must satisfy 0 < from < to with 1..10000 steps")
	ErrUnknownMeasure    = xerrors.New(xerrors.KindValidation, "UNKNOWN_MEASURE", "measure must be PRICE, DELTA, GAMMA, THETA, VEGA or RHO")
	ErrUnknownAxis       = xerrors.New(xerrors.KindValidation, "UNKNOWN_AXIS", "axis must be UNDERLYING or VOLATILITY")
)

// Measure 曲线纵轴
type Measure string

const (
	MeasurePrice Measure = "PRICE"
	MeasureDelta Measure = "DELTA"
	MeasureGamma Measure = "GAMMA"
	MeasureTheta Measure = "THETA"
	MeasureVega  Measure = "VEGA"
	MeasureRho   Measure = "RHO"
)

// Axis 曲线横轴：标的价格或（平坦）波动率
type Axis string

const (
	AxisUnderlying Axis = "UNDERLYING"
	AxisVolatility Axis = "VOLATILITY"
)

// SampleRange [From, To] 等分为 Steps 段
type SampleRange struct {
	From  decimal.Decimal `json:"from"`
	To    decimal.Decimal `json:"to"`
	Steps int             `json:"steps"`
}

func (r SampleRange) Validate() error {
	if !r.From.IsPositive() || !r.To.GreaterThan(r.From) || r.Steps < 1 || r.Steps > maxCurveSteps {
		return ErrInvalidCurveRange.WithDetail("[%s, %s] in %d steps", r.From, r.To, r.Steps)
	}
	return nil
}

// Xs 返回 Steps+1 个采样点，末点精确等于 To
func (r SampleRange) Xs() []decimal.Decimal {
	step := r.To.Sub(r.From).Div(decimal.NewFromInt(int64(r.Steps)))
	xs := make([]decimal.Decimal, r.Steps+1)
	for i := 0; i < r.Steps; i++ {
		xs[i] = r.From.Add(step.Mul(decimal.NewFromInt(int64(i))))
	}
	xs[r.Steps] = r.To
	return xs
}

// MeasureCurve 固定其他输入，沿 axis 采样 measure 构成曲线。
// 波动率轴上以采样值作为平坦波动率，忽略市场中的波动率来源。
func (p *Pricer) MeasureCurve(c derivatives.OptionContract, m MarketState, measure Measure, axis Axis, r SampleRange, method curves.InterpolationMethod) (*curves.Curve, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	eval, err := p.measureFunc(measure)
	if err != nil {
		return nil, err
	}
	var at func(x decimal.Decimal) MarketState
	switch axis {
	case AxisUnderlying, "":
		at = m.WithUnderlyingPrice
	case AxisVolatility:
		at = func(x decimal.Decimal) MarketState {
			mm := m
			mm.Volatility = x
			mm.Source = nil
			return mm
		}
	default:
		return nil, ErrUnknownAxis.WithDetail("%q", axis)
	}
	if method == "" {
		method = curves.InterpolationLinear
	}

	xs := r.Xs()
	points := make([]curves.Point, len(xs))
	for i, x := range xs {
		y, err := eval(c, at(x))
		if err != nil {
			return nil, err
		}
		points[i] = curves.Point{X: x, Y: y}
	}
	return curves.NewCurve(points, method, curves.ExtrapolationClamp)
}

func (p *Pricer) measureFunc(measure Measure) (func(derivatives.OptionContract, MarketState) (decimal.Decimal, error), error) {
	if measure == MeasurePrice {
		return p.PriceAt, nil
	}
	var pick func(Greeks) decimal.Decimal
	switch measure {
	case MeasureDelta:
		pick = func(g Greeks) decimal.Decimal { return g.Delta }
	case MeasureGamma:
		pick = func(g Greeks) decimal.Decimal { return g.Gamma }
	case MeasureTheta:
		pick = func(g Greeks) decimal.Decimal { return g.Theta }
	case MeasureVega:
		pick = func(g Greeks) decimal.Decimal { return g.Vega }
	case MeasureRho:
		pick = func(g Greeks) decimal.Decimal { return g.Rho }
	default:
		return nil, ErrUnknownMeasure.WithDetail("%q", measure)
	}
	return func(c derivatives.OptionContract, m MarketState) (decimal.Decimal, error) {
		g, err := p.Greeks(c, m)
		if err != nil {
			return decimal.Zero, err
		}
		return pick(g), nil
	}, nil
}
