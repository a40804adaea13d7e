// Package domain 波动率来源与标定：平坦波动率、按行权价插值的微笑曲线、按 (行权价, 期限) 插值的曲面
package domain

import (
	"github.com/shopspring/decimal"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var ErrNegativeInterpolatedVolatility = xerrors.New(xerrors.KindNumerical, "NEGATIVE_INTERPOLATED_VOLATILITY", "interpolated volatility is negative")

var (
	_ pricing.VolatilitySource = FlatVolatility{}
	_ pricing.VolatilitySource = (*SmileVolatility)(nil)
	_ pricing.VolatilitySource = (*SurfaceVolatility)(nil)
)

// FlatVolatility 与行权价和期限无关的常数波动率
type FlatVolatility struct {
	vol decimal.Decimal
}

func NewFlatVolatility(vol decimal.Decimal) (FlatVolatility, error) {
	if vol.IsNegative() {
		return FlatVolatility{}, pricing.ErrNegativeVolatility.WithDetail("vol=%s", vol)
	}
	return FlatVolatility{vol: vol}, nil
}

func (f FlatVolatility) VolatilityAt(_, _ decimal.Decimal) (decimal.Decimal, error) {
	return f.vol, nil
}

// SmileVolatility 单一期限的波动率微笑，x 为行权价。查询时忽略期限
type SmileVolatility struct {
	expiry decimal.Decimal
	curve  *curves.Curve
}

func NewSmileVolatility(expiry decimal.Decimal, curve *curves.Curve) *SmileVolatility {
	return &SmileVolatility{expiry: expiry, curve: curve}
}

func (s *SmileVolatility) VolatilityAt(strike, _ decimal.Decimal) (decimal.Decimal, error) {
	vol, err := s.curve.At(strike)
	if err != nil {
		return decimal.Zero, err
	}
	return checkVol(vol, strike, s.expiry)
}

func (s *SmileVolatility) Expiry() decimal.Decimal { return s.expiry }

func (s *SmileVolatility) Curve() *curves.Curve { return s.curve }

// SurfaceVolatility 波动率曲面，x 为行权价，y 为剩余期限（年）
type SurfaceVolatility struct {
	surface *curves.Surface
}

func NewSurfaceVolatility(surface *curves.Surface) *SurfaceVolatility {
	return &SurfaceVolatility{surface: surface}
}

func (s *SurfaceVolatility) VolatilityAt(strike, expiry decimal.Decimal) (decimal.Decimal, error) {
	vol, err := s.surface.At(strike, expiry)
	if err != nil {
		return decimal.Zero, err
	}
	return checkVol(vol, strike, expiry)
}

func (s *SurfaceVolatility) Surface() *curves.Surface { return s.surface }

// Smile 在给定期限切出微笑曲线
func (s *SurfaceVolatility) Smile(expiry decimal.Decimal, method curves.InterpolationMethod) (*SmileVolatility, error) {
	c, err := s.surface.CurveAtY(expiry, method)
	if err != nil {
		return nil, err
	}
	return NewSmileVolatility(expiry, c), nil
}

// 样条在稀疏报价间可能下冲为负
func checkVol(vol, strike, expiry decimal.Decimal) (decimal.Decimal, error) {
	if vol.IsNegative() {
		return decimal.Zero, ErrNegativeInterpolatedVolatility.WithDetail("strike=%s expiry=%s vol=%s", strike, expiry, vol)
	}
	return vol, nil
}
