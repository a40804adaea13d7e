// Package curves 提供一维曲线与二维曲面插值：由离散标定点构造，构造后不可变，可被多个组件共享引用
package curves

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var (
	ErrNonMonotonic       = xerrors.New(xerrors.KindValidation, "NON_MONOTONIC", "axis values must be strictly increasing")
	ErrInsufficientPoints = xerrors.New(xerrors.KindValidation, "INSUFFICIENT_POINTS", "not enough calibration points")
	ErrDuplicatePoint     = xerrors.New(xerrors.KindValidation, "DUPLICATE_POINT", "duplicate calibration point")
	ErrIncompleteGrid     = xerrors.New(xerrors.KindValidation, "INCOMPLETE_GRID", "surface points do not form a complete grid")
	ErrInvalidMethod      = xerrors.New(xerrors.KindValidation, "INVALID_INTERPOLATION", "unknown interpolation method")
	ErrInvalidPolicy      = xerrors.New(xerrors.KindValidation, "INVALID_EXTRAPOLATION", "unknown extrapolation policy")
	ErrOutOfDomain        = xerrors.New(xerrors.KindNumerical, "OUT_OF_DOMAIN", "coordinate outside interpolation domain")
	ErrNoConvergence      = xerrors.New(xerrors.KindNumerical, "NO_CONVERGENCE", "root finding did not converge")
	ErrNonFinite          = xerrors.New(xerrors.KindNumerical, "NON_FINITE", "interpolated value is not finite")
)

// InterpolationMethod 一维插值方法
type InterpolationMethod string

const (
	InterpolationLinear InterpolationMethod = "LINEAR"
	InterpolationCubic  InterpolationMethod = "CUBIC" // 自然三次样条
	InterpolationAkima  InterpolationMethod = "AKIMA"
)

// SurfaceMethod 二维插值方法
type SurfaceMethod string

const (
	SurfaceBilinear SurfaceMethod = "BILINEAR"
	SurfaceBicubic  SurfaceMethod = "BICUBIC"
)

// ExtrapolationPolicy 定义域外查询策略
type ExtrapolationPolicy string

const (
	ExtrapolationClamp  ExtrapolationPolicy = "CLAMP"  // 取最近边界值
	ExtrapolationLinear ExtrapolationPolicy = "LINEAR" // 沿边界线段线性延伸
	ExtrapolationReject ExtrapolationPolicy = "REJECT" // 返回 ErrOutOfDomain
)

func (p ExtrapolationPolicy) valid() bool {
	switch p {
	case ExtrapolationClamp, ExtrapolationLinear, ExtrapolationReject:
		return true
	}
	return false
}

func (m InterpolationMethod) minPoints() (int, bool) {
	switch m {
	case InterpolationLinear:
		return 2, true
	case InterpolationCubic, InterpolationAkima:
		return 3, true
	}
	return 0, false
}

func (m SurfaceMethod) minPoints() (int, bool) {
	switch m {
	case SurfaceBilinear:
		return 2, true
	case SurfaceBicubic:
		return 3, true
	}
	return 0, false
}

// toDecimal 将浮点结果转换为 decimal，NaN/Inf 视为数值错误
func toDecimal(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, ErrNonFinite
	}
	return decimal.NewFromFloat(v), nil
}

// search 在严格递增的 xs 中定位 x：返回 i 使 xs[i] <= x < xs[i+1]，exact 表示命中标定点
func search(xs []decimal.Decimal, x decimal.Decimal) (int, bool) {
	lo, hi := 0, len(xs)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch xs[mid].Cmp(x) {
		case 0:
			return mid, true
		case -1:
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return hi, false
}

// lerp 在 decimal 中计算线性插值 y0 + (y1-y0)*(x-x0)/(x1-x0)
func lerp(x0, y0, x1, y1, x decimal.Decimal) decimal.Decimal {
	return y0.Add(y1.Sub(y0).Mul(x.Sub(x0)).Div(x1.Sub(x0)))
}

func checkIncreasing(xs []decimal.Decimal, axis string) error {
	for i := 1; i < len(xs); i++ {
		if xs[i].Cmp(xs[i-1]) <= 0 {
			return ErrNonMonotonic.WithDetail("%s[%d]=%s after %s", axis, i, xs[i], xs[i-1])
		}
	}
	return nil
}
