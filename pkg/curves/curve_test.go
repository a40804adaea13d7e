package curves

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func pts(pairs ...string) []Point {
	out := make([]Point, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Point{X: d(pairs[i]), Y: d(pairs[i+1])})
	}
	return out
}

func TestNewCurve_Validation(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		method InterpolationMethod
		policy ExtrapolationPolicy
		want   error
	}{
		{"non monotonic", pts("1", "1", "3", "2", "2", "3"), InterpolationLinear, ExtrapolationClamp, ErrNonMonotonic},
		{"duplicate x", pts("1", "1", "1", "2"), InterpolationLinear, ExtrapolationClamp, ErrNonMonotonic},
		{"linear needs two", pts("1", "1"), InterpolationLinear, ExtrapolationClamp, ErrInsufficientPoints},
		{"cubic needs three", pts("1", "1", "2", "2"), InterpolationCubic, ExtrapolationClamp, ErrInsufficientPoints},
		{"unknown method", pts("1", "1", "2", "2"), "SPLINE9", ExtrapolationClamp, ErrInvalidMethod},
		{"unknown policy", pts("1", "1", "2", "2"), InterpolationLinear, "WRAP", ErrInvalidPolicy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCurve(tt.points, tt.method, tt.policy)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCurve_ExactAtKnots(t *testing.T) {
	points := pts("90", "0.25", "100", "0.2", "110", "0.22", "120", "0.27")
	for _, method := range []InterpolationMethod{InterpolationLinear, InterpolationCubic, InterpolationAkima} {
		c, err := NewCurve(points, method, ExtrapolationReject)
		require.NoError(t, err)
		for _, p := range points {
			got, err := c.At(p.X)
			require.NoError(t, err)
			assert.True(t, got.Equal(p.Y), "%s at %s: got %s want %s", method, p.X, got, p.Y)
		}
	}
}

func TestCurve_LinearInterpolation(t *testing.T) {
	c, err := NewCurve(pts("0", "0", "10", "5"), InterpolationLinear, ExtrapolationReject)
	require.NoError(t, err)

	got, err := c.At(d("4"))
	require.NoError(t, err)
	assert.Equal(t, "2", got.String())
}

func TestCurve_Extrapolation(t *testing.T) {
	points := pts("1", "10", "2", "20", "3", "25")

	clamp, err := NewCurve(points, InterpolationLinear, ExtrapolationClamp)
	require.NoError(t, err)
	lo, err := clamp.At(d("0"))
	require.NoError(t, err)
	hi, err := clamp.At(d("9"))
	require.NoError(t, err)
	assert.Equal(t, "10", lo.String())
	assert.Equal(t, "25", hi.String())

	linear, err := NewCurve(points, InterpolationLinear, ExtrapolationLinear)
	require.NoError(t, err)
	below, err := linear.At(d("0"))
	require.NoError(t, err)
	above, err := linear.At(d("5"))
	require.NoError(t, err)
	assert.Equal(t, "0", below.String())
	assert.Equal(t, "35", above.String())

	reject, err := NewCurve(points, InterpolationCubic, ExtrapolationReject)
	require.NoError(t, err)
	_, err = reject.At(d("3.0001"))
	assert.ErrorIs(t, err, ErrOutOfDomain)
	_, err = reject.At(d("0.9999"))
	assert.ErrorIs(t, err, ErrOutOfDomain)
}

func TestCurve_CubicBetweenKnots(t *testing.T) {
	// y = x^2 的自然样条在内部区间应接近真实值
	c, err := NewCurve(pts("0", "0", "1", "1", "2", "4", "3", "9", "4", "16"), InterpolationCubic, ExtrapolationReject)
	require.NoError(t, err)

	got, err := c.At(d("2.5"))
	require.NoError(t, err)
	assert.InDelta(t, 6.25, got.InexactFloat64(), 0.1)
}

func TestCurve_Roots(t *testing.T) {
	c, err := NewCurve(pts("0", "-5", "100", "-5", "110", "5"), InterpolationLinear, ExtrapolationReject)
	require.NoError(t, err)

	roots, err := c.Roots()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "105", roots[0].String())
}

func TestCurve_RootsZeroRun(t *testing.T) {
	c, err := NewCurve(pts("0", "-1", "1", "0", "2", "0", "3", "0", "4", "2"), InterpolationLinear, ExtrapolationReject)
	require.NoError(t, err)

	roots, err := c.Roots()
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "1", roots[0].String())
	assert.Equal(t, "3", roots[1].String())
}

func TestCurve_RootsSpline(t *testing.T) {
	c, err := NewCurve(pts("-2", "3", "-1", "0", "0", "-1", "1", "0", "2", "3"), InterpolationAkima, ExtrapolationReject)
	require.NoError(t, err)

	roots, err := c.Roots()
	require.NoError(t, err)
	require.Len(t, roots, 2)
	assert.Equal(t, "-1", roots[0].String())
	assert.Equal(t, "1", roots[1].String())
}

func TestCurve_PointsIsCopy(t *testing.T) {
	c, err := NewCurve(pts("1", "1", "2", "2"), InterpolationLinear, ExtrapolationClamp)
	require.NoError(t, err)

	p := c.Points()
	p[0].Y = d("100")
	got, err := c.At(d("1"))
	require.NoError(t, err)
	assert.Equal(t, "1", got.String())
}

func TestCurve_MarshalJSON(t *testing.T) {
	c, err := NewCurve(pts("1", "1", "2", "2"), InterpolationLinear, ExtrapolationClamp)
	require.NoError(t, err)

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"LINEAR","extrapolation":"CLAMP","points":[{"x":"1","y":"1"},{"x":"2","y":"2"}]}`, string(raw))
}
