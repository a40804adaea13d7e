package curves

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/interp"
)

// Point 曲线标定点
type Point struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
}

// Curve 一维插值曲线
type Curve struct {
	xs        []decimal.Decimal
	ys        []decimal.Decimal
	method    InterpolationMethod
	policy    ExtrapolationPolicy
	predictor interp.Predictor // 仅样条方法使用
}

// NewCurve 由严格递增的标定点构造曲线
func NewCurve(points []Point, method InterpolationMethod, policy ExtrapolationPolicy) (*Curve, error) {
	minPoints, ok := method.minPoints()
	if !ok {
		return nil, ErrInvalidMethod.WithDetail("%q", method)
	}
	if !policy.valid() {
		return nil, ErrInvalidPolicy.WithDetail("%q", policy)
	}
	if len(points) < minPoints {
		return nil, ErrInsufficientPoints.WithDetail("%s needs %d points, got %d", method, minPoints, len(points))
	}

	c := &Curve{
		xs:     make([]decimal.Decimal, len(points)),
		ys:     make([]decimal.Decimal, len(points)),
		method: method,
		policy: policy,
	}
	for i, p := range points {
		c.xs[i] = p.X
		c.ys[i] = p.Y
	}
	if err := checkIncreasing(c.xs, "x"); err != nil {
		return nil, err
	}

	if method != InterpolationLinear {
		fx := make([]float64, len(points))
		fy := make([]float64, len(points))
		for i := range points {
			fx[i] = c.xs[i].InexactFloat64()
			fy[i] = c.ys[i].InexactFloat64()
		}
		// decimal 严格递增但转换为 float64 后可能重合
		for i := 1; i < len(fx); i++ {
			if fx[i] <= fx[i-1] {
				return nil, ErrNonMonotonic.WithDetail("x[%d] not distinguishable in float64", i)
			}
		}
		var fp interp.FittablePredictor
		if method == InterpolationCubic {
			fp = &interp.NaturalCubic{}
		} else {
			fp = &interp.AkimaSpline{}
		}
		if err := fp.Fit(fx, fy); err != nil {
			return nil, ErrInsufficientPoints.Wrap(err)
		}
		c.predictor = fp
	}
	return c, nil
}

// At 查询 x 处的值；标定点处精确返回存储值
func (c *Curve) At(x decimal.Decimal) (decimal.Decimal, error) {
	n := len(c.xs)
	i, exact := search(c.xs, x)
	if exact {
		return c.ys[i], nil
	}
	if i < 0 || i >= n-1 {
		return c.extrapolate(x, i < 0)
	}
	if c.method == InterpolationLinear {
		return lerp(c.xs[i], c.ys[i], c.xs[i+1], c.ys[i+1], x), nil
	}
	return toDecimal(c.predictor.Predict(x.InexactFloat64()))
}

func (c *Curve) extrapolate(x decimal.Decimal, below bool) (decimal.Decimal, error) {
	n := len(c.xs)
	switch c.policy {
	case ExtrapolationClamp:
		if below {
			return c.ys[0], nil
		}
		return c.ys[n-1], nil
	case ExtrapolationLinear:
		if below {
			return lerp(c.xs[0], c.ys[0], c.xs[1], c.ys[1], x), nil
		}
		return lerp(c.xs[n-2], c.ys[n-2], c.xs[n-1], c.ys[n-1], x), nil
	default:
		return decimal.Zero, ErrOutOfDomain.WithDetail("x=%s outside [%s, %s]", x, c.xs[0], c.xs[n-1])
	}
}

// Domain 返回定义域 [min, max]
func (c *Curve) Domain() (decimal.Decimal, decimal.Decimal) {
	return c.xs[0], c.xs[len(c.xs)-1]
}

func (c *Curve) Len() int { return len(c.xs) }

func (c *Curve) Method() InterpolationMethod { return c.method }

func (c *Curve) Policy() ExtrapolationPolicy { return c.policy }

// Points 返回标定点副本
func (c *Curve) Points() []Point {
	out := make([]Point, len(c.xs))
	for i := range c.xs {
		out[i] = Point{X: c.xs[i], Y: c.ys[i]}
	}
	return out
}

const (
	rootTolerance     = 1e-10
	rootMaxIterations = 200
	splineSubdivision = 8
)

// Roots 返回定义域内全部零点（升序）。
// 线性曲线在 decimal 中按线段闭式求解；样条曲线在细分区间上二分求根。
// 连续为零的区间只报告其两端。
func (c *Curve) Roots() ([]decimal.Decimal, error) {
	var roots []decimal.Decimal
	n := len(c.xs)
	appendRoot := func(r decimal.Decimal) {
		if len(roots) > 0 && roots[len(roots)-1].Equal(r) {
			return
		}
		roots = append(roots, r)
	}

	for i := 0; i < n; i++ {
		if c.ys[i].IsZero() {
			prevZero := i > 0 && c.ys[i-1].IsZero()
			nextZero := i < n-1 && c.ys[i+1].IsZero()
			if !(prevZero && nextZero) {
				appendRoot(c.xs[i])
			}
		}
		if i == n-1 {
			break
		}
		if c.method == InterpolationLinear {
			if c.ys[i].Sign()*c.ys[i+1].Sign() < 0 {
				x0, y0, x1, y1 := c.xs[i], c.ys[i], c.xs[i+1], c.ys[i+1]
				appendRoot(x0.Sub(y0.Mul(x1.Sub(x0)).Div(y1.Sub(y0))))
			}
			continue
		}
		segRoots, err := c.splineSegmentRoots(i)
		if err != nil {
			return nil, err
		}
		for _, r := range segRoots {
			appendRoot(r)
		}
	}
	return roots, nil
}

func (c *Curve) splineSegmentRoots(i int) ([]decimal.Decimal, error) {
	a := c.xs[i].InexactFloat64()
	b := c.xs[i+1].InexactFloat64()
	step := (b - a) / splineSubdivision

	var out []decimal.Decimal
	lo := a
	flo := c.ys[i].InexactFloat64()
	for k := 1; k <= splineSubdivision; k++ {
		hi := a + float64(k)*step
		fhi := c.ys[i+1].InexactFloat64()
		if k < splineSubdivision {
			fhi = c.predictor.Predict(hi)
			if fhi == 0 {
				out = append(out, decimal.NewFromFloat(hi))
			}
		}
		if flo*fhi < 0 {
			r, err := bisect(c.predictor.Predict, lo, hi, flo)
			if err != nil {
				return nil, err
			}
			out = append(out, decimal.NewFromFloat(r))
		}
		lo, flo = hi, fhi
	}
	return out, nil
}

func bisect(f func(float64) float64, lo, hi, flo float64) (float64, error) {
	for it := 0; it < rootMaxIterations; it++ {
		mid := 0.5 * (lo + hi)
		fm := f(mid)
		if math.IsNaN(fm) {
			return 0, ErrNonFinite
		}
		if fm == 0 || 0.5*(hi-lo) < rootTolerance {
			return mid, nil
		}
		if flo*fm < 0 {
			hi = mid
		} else {
			lo, flo = mid, fm
		}
	}
	return 0, ErrNoConvergence.WithDetail("bracket [%g, %g]", lo, hi)
}

type curveJSON struct {
	Method        InterpolationMethod `json:"method"`
	Extrapolation ExtrapolationPolicy `json:"extrapolation"`
	Points        []Point             `json:"points"`
}

// MarshalJSON 输出标定点供渲染方使用
func (c *Curve) MarshalJSON() ([]byte, error) {
	return json.Marshal(curveJSON{Method: c.method, Extrapolation: c.policy, Points: c.Points()})
}
