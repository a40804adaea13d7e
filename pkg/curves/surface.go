package curves

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// Point3D 曲面标定点，例如 (行权价, 到期时间, 波动率)
type Point3D struct {
	X decimal.Decimal `json:"x"`
	Y decimal.Decimal `json:"y"`
	Z decimal.Decimal `json:"z"`
}

// Surface 规则网格上的二维插值曲面
type Surface struct {
	xs     []decimal.Decimal
	ys     []decimal.Decimal
	z      [][]decimal.Decimal // z[j][i] 对应 (xs[i], ys[j])
	method SurfaceMethod
	policy ExtrapolationPolicy
	rows   []*Curve // BICUBIC: 每个 y 上沿 x 的样条
}

// NewSurface 由散点构造曲面，点必须恰好覆盖 x、y 坐标的完整笛卡尔网格
func NewSurface(points []Point3D, method SurfaceMethod, policy ExtrapolationPolicy) (*Surface, error) {
	xs := uniqueSorted(points, func(p Point3D) decimal.Decimal { return p.X })
	ys := uniqueSorted(points, func(p Point3D) decimal.Decimal { return p.Y })

	z := make([][]decimal.Decimal, len(ys))
	seen := make([][]bool, len(ys))
	for j := range ys {
		z[j] = make([]decimal.Decimal, len(xs))
		seen[j] = make([]bool, len(xs))
	}
	for _, p := range points {
		i, _ := search(xs, p.X)
		j, _ := search(ys, p.Y)
		if seen[j][i] {
			return nil, ErrDuplicatePoint.WithDetail("(%s, %s)", p.X, p.Y)
		}
		seen[j][i] = true
		z[j][i] = p.Z
	}
	for j := range ys {
		for i := range xs {
			if !seen[j][i] {
				return nil, ErrIncompleteGrid.WithDetail("missing (%s, %s)", xs[i], ys[j])
			}
		}
	}
	return NewSurfaceFromGrid(xs, ys, z, method, policy)
}

// NewSurfaceFromGrid 由坐标轴与 z 矩阵构造曲面，z 的行对应 ys，列对应 xs
func NewSurfaceFromGrid(xs, ys []decimal.Decimal, z [][]decimal.Decimal, method SurfaceMethod, policy ExtrapolationPolicy) (*Surface, error) {
	minPoints, ok := method.minPoints()
	if !ok {
		return nil, ErrInvalidMethod.WithDetail("%q", method)
	}
	if !policy.valid() {
		return nil, ErrInvalidPolicy.WithDetail("%q", policy)
	}
	if len(xs) < minPoints || len(ys) < minPoints {
		return nil, ErrInsufficientPoints.WithDetail("%s needs %dx%d grid, got %dx%d", method, minPoints, minPoints, len(xs), len(ys))
	}
	if err := checkIncreasing(xs, "x"); err != nil {
		return nil, err
	}
	if err := checkIncreasing(ys, "y"); err != nil {
		return nil, err
	}
	if len(z) != len(ys) {
		return nil, ErrIncompleteGrid.WithDetail("%d rows for %d y values", len(z), len(ys))
	}

	s := &Surface{
		xs:     append([]decimal.Decimal(nil), xs...),
		ys:     append([]decimal.Decimal(nil), ys...),
		z:      make([][]decimal.Decimal, len(ys)),
		method: method,
		policy: policy,
	}
	for j, row := range z {
		if len(row) != len(xs) {
			return nil, ErrIncompleteGrid.WithDetail("row %d has %d values for %d x values", j, len(row), len(xs))
		}
		s.z[j] = append([]decimal.Decimal(nil), row...)
	}

	if method == SurfaceBicubic {
		s.rows = make([]*Curve, len(ys))
		for j := range ys {
			c, err := NewCurve(s.rowPoints(j), InterpolationCubic, innerPolicy(policy))
			if err != nil {
				return nil, err
			}
			s.rows[j] = c
		}
	}
	return s, nil
}

// innerPolicy 内部切片曲线不拒绝查询：越界已在外层按策略处理
func innerPolicy(p ExtrapolationPolicy) ExtrapolationPolicy {
	if p == ExtrapolationReject {
		return ExtrapolationClamp
	}
	return p
}

// At 查询 (x, y) 处的值；网格点处精确返回存储值
func (s *Surface) At(x, y decimal.Decimal) (decimal.Decimal, error) {
	nx, ny := len(s.xs), len(s.ys)
	outside := x.LessThan(s.xs[0]) || x.GreaterThan(s.xs[nx-1]) || y.LessThan(s.ys[0]) || y.GreaterThan(s.ys[ny-1])
	if outside {
		switch s.policy {
		case ExtrapolationReject:
			return decimal.Zero, ErrOutOfDomain.WithDetail("(%s, %s) outside [%s, %s] x [%s, %s]",
				x, y, s.xs[0], s.xs[nx-1], s.ys[0], s.ys[ny-1])
		case ExtrapolationClamp:
			x = clamp(x, s.xs[0], s.xs[nx-1])
			y = clamp(y, s.ys[0], s.ys[ny-1])
		}
	}

	i, exactX := search(s.xs, x)
	j, exactY := search(s.ys, y)
	if exactX && exactY {
		return s.z[j][i], nil
	}

	if s.method == SurfaceBicubic {
		return s.bicubic(x, y)
	}
	return s.bilinear(x, y, i, j), nil
}

// bilinear 在所在网格单元内双线性插值；越界时沿边界单元线性延伸
func (s *Surface) bilinear(x, y decimal.Decimal, i, j int) decimal.Decimal {
	i = cell(i, len(s.xs))
	j = cell(j, len(s.ys))
	x0, x1 := s.xs[i], s.xs[i+1]
	y0, y1 := s.ys[j], s.ys[j+1]

	lower := lerp(x0, s.z[j][i], x1, s.z[j][i+1], x)
	upper := lerp(x0, s.z[j+1][i], x1, s.z[j+1][i+1], x)
	return lerp(y0, lower, y1, upper, y)
}

// bicubic 先沿 x 在每一行求值，再对得到的列沿 y 做样条
func (s *Surface) bicubic(x, y decimal.Decimal) (decimal.Decimal, error) {
	column := make([]Point, len(s.ys))
	for j, row := range s.rows {
		v, err := row.At(x)
		if err != nil {
			return decimal.Zero, err
		}
		column[j] = Point{X: s.ys[j], Y: v}
	}
	c, err := NewCurve(column, InterpolationCubic, innerPolicy(s.policy))
	if err != nil {
		return decimal.Zero, err
	}
	return c.At(y)
}

// CurveAtY 在固定 y 处切出沿 x 的曲线，例如某一到期日的波动率微笑
func (s *Surface) CurveAtY(y decimal.Decimal, method InterpolationMethod) (*Curve, error) {
	points := make([]Point, len(s.xs))
	for i, x := range s.xs {
		v, err := s.At(x, y)
		if err != nil {
			return nil, err
		}
		points[i] = Point{X: x, Y: v}
	}
	return NewCurve(points, method, s.policy)
}

// Domain 返回 x 与 y 的定义域
func (s *Surface) Domain() (xMin, xMax, yMin, yMax decimal.Decimal) {
	return s.xs[0], s.xs[len(s.xs)-1], s.ys[0], s.ys[len(s.ys)-1]
}

func (s *Surface) Method() SurfaceMethod { return s.method }

func (s *Surface) Policy() ExtrapolationPolicy { return s.policy }

// Points 返回全部网格点副本，按 y 再按 x 排序
func (s *Surface) Points() []Point3D {
	out := make([]Point3D, 0, len(s.xs)*len(s.ys))
	for j, y := range s.ys {
		for i, x := range s.xs {
			out = append(out, Point3D{X: x, Y: y, Z: s.z[j][i]})
		}
	}
	return out
}

func (s *Surface) rowPoints(j int) []Point {
	points := make([]Point, len(s.xs))
	for i, x := range s.xs {
		points[i] = Point{X: x, Y: s.z[j][i]}
	}
	return points
}

type surfaceJSON struct {
	Method        SurfaceMethod       `json:"method"`
	Extrapolation ExtrapolationPolicy `json:"extrapolation"`
	Points        []Point3D           `json:"points"`
}

func (s *Surface) MarshalJSON() ([]byte, error) {
	return json.Marshal(surfaceJSON{Method: s.method, Extrapolation: s.policy, Points: s.Points()})
}

func uniqueSorted(points []Point3D, key func(Point3D) decimal.Decimal) []decimal.Decimal {
	vals := make([]decimal.Decimal, 0, len(points))
	for _, p := range points {
		vals = append(vals, key(p))
	}
	sort.Slice(vals, func(a, b int) bool { return vals[a].LessThan(vals[b]) })
	out := vals[:0]
	for k, v := range vals {
		if k == 0 || !v.Equal(out[len(out)-1]) {
			out = append(out, v)
		}
	}
	return out
}

func clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// cell 把 search 结果规整为合法单元下标 [0, n-2]
func cell(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-2 {
		return n - 2
	}
	return i
}
