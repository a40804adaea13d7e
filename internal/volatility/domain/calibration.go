package domain

import (
	"sort"

	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
)

// Market 标定时使用的标的价格、利率与股息率
type Market struct {
	Spot          decimal.Decimal
	Rate          decimal.Decimal
	DividendYield decimal.Decimal
}

// SmilePoint 单个行权价的标定结果
type SmilePoint struct {
	Strike  decimal.Decimal `json:"strike"`
	Vol     decimal.Decimal `json:"vol"`
	Samples int             `json:"samples"` // 参与平均的报价数
}

// Calibrator 由期权链报价标定微笑与曲面
type Calibrator struct {
	pricer *pricing.Pricer
}

func NewCalibrator(pricer *pricing.Pricer) *Calibrator {
	return &Calibrator{pricer: pricer}
}

// QuoteVolatility 报价自带隐含波动率时直接使用，否则由买卖中间价反解；
// 既无波动率也无价格时 ok 为 false
func (c *Calibrator) QuoteVolatility(q derivatives.OptionQuote, m Market) (vol decimal.Decimal, ok bool, err error) {
	if q.ImpliedVolatility.Valid {
		return q.ImpliedVolatility.Decimal, true, nil
	}
	mid, ok := q.Mid()
	if !ok {
		return decimal.Zero, false, nil
	}
	vol, err = c.pricer.ImpliedVolatility(q.Contract, mid, m.Spot, m.Rate, m.DividendYield)
	if err != nil {
		return decimal.Zero, false, err
	}
	return vol, true, nil
}

// SmilePoints 对某一到期日每个行权价取可用报价隐含波动率的均值。
// 反解失败的报价被跳过并计入 skipped。
func (c *Calibrator) SmilePoints(slice derivatives.ExpirySlice, m Market) (points []SmilePoint, skipped int) {
	for _, row := range slice.Rows {
		sum := decimal.Zero
		n := 0
		for _, q := range []*derivatives.OptionQuote{row.Call, row.Put} {
			if q == nil {
				continue
			}
			vol, ok, err := c.QuoteVolatility(*q, m)
			if err != nil {
				skipped++
				continue
			}
			if ok {
				sum = sum.Add(vol)
				n++
			}
		}
		if n > 0 {
			points = append(points, SmilePoint{Strike: row.Strike, Vol: sum.Div(decimal.NewFromInt(int64(n))), Samples: n})
		}
	}
	return points, skipped
}

// CalibrateSmile 为指定到期日构建微笑曲线，报价行权价处精确复现标定值
func (c *Calibrator) CalibrateSmile(chain *derivatives.OptionChain, expiry decimal.Decimal, m Market, method curves.InterpolationMethod, policy curves.ExtrapolationPolicy) (*SmileVolatility, error) {
	slice, ok := chain.Slice(expiry)
	if !ok {
		return nil, derivatives.ErrExpiryNotFound.WithDetail("expiry=%s", expiry)
	}
	points, _ := c.SmilePoints(slice, m)
	return SmileFromPoints(expiry, points, method, policy)
}

// SmileFromPoints 由已标定的行权价波动率构建微笑
func SmileFromPoints(expiry decimal.Decimal, points []SmilePoint, method curves.InterpolationMethod, policy curves.ExtrapolationPolicy) (*SmileVolatility, error) {
	curvePoints := make([]curves.Point, len(points))
	for i, p := range points {
		curvePoints[i] = curves.Point{X: p.Strike, Y: p.Vol}
	}
	curve, err := curves.NewCurve(curvePoints, method, policy)
	if err != nil {
		return nil, err
	}
	return NewSmileVolatility(expiry, curve), nil
}

// SurfaceCalibration 曲面标定结果。Dropped 为没有任何可用报价而被剔除的到期日，
// Skipped 为隐含波动率反解失败的报价数
type SurfaceCalibration struct {
	Volatility *SurfaceVolatility
	Dropped    []decimal.Decimal
	Skipped    int
}

// CalibrateSurface 以保留到期日共有的行权价构成网格。
// 没有可用报价的到期日被剔除，剩余到期日不足时由网格构建返回 ErrInsufficientPoints。
func (c *Calibrator) CalibrateSurface(chain *derivatives.OptionChain, m Market, method curves.SurfaceMethod, policy curves.ExtrapolationPolicy) (*SurfaceCalibration, error) {
	slices := chain.Slices()
	if len(slices) == 0 {
		return nil, curves.ErrInsufficientPoints.WithDetail("empty chain")
	}

	out := &SurfaceCalibration{}
	var ys []decimal.Decimal
	var byExpiry []map[string]decimal.Decimal
	var common map[string]decimal.Decimal
	for _, s := range slices {
		points, skipped := c.SmilePoints(s, m)
		out.Skipped += skipped
		if len(points) == 0 {
			out.Dropped = append(out.Dropped, s.Expiry)
			continue
		}
		vols := make(map[string]decimal.Decimal, len(points))
		for _, p := range points {
			vols[p.Strike.String()] = p.Vol
		}
		if common == nil {
			common = make(map[string]decimal.Decimal, len(points))
			for _, p := range points {
				common[p.Strike.String()] = p.Strike
			}
		} else {
			for key := range common {
				if _, ok := vols[key]; !ok {
					delete(common, key)
				}
			}
		}
		ys = append(ys, s.Expiry)
		byExpiry = append(byExpiry, vols)
	}

	xs := make([]decimal.Decimal, 0, len(common))
	for _, k := range common {
		xs = append(xs, k)
	}
	sort.Slice(xs, func(a, b int) bool { return xs[a].LessThan(xs[b]) })

	z := make([][]decimal.Decimal, len(ys))
	for j := range ys {
		z[j] = make([]decimal.Decimal, len(xs))
		for i, x := range xs {
			z[j][i] = byExpiry[j][x.String()]
		}
	}
	surface, err := curves.NewSurfaceFromGrid(xs, ys, z, method, policy)
	if err != nil {
		return nil, err
	}
	out.Volatility = NewSurfaceVolatility(surface)
	return out, nil
}
