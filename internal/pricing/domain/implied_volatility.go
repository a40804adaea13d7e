package domain

import (
	"math"

	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
)

const (
	ivLowerBound    = 1e-8
	ivUpperBound    = 100.0
	ivTolerance     = 1e-8
	ivMaxIterations = 100
	ivInitialGuess  = 0.2
)

// ImpliedVolatility 求使模型价格等于 price 的波动率。
// Newton 迭代，步长越出当前区间或 vega 过小时退化为二分。
func (p *Pricer) ImpliedVolatility(c derivatives.OptionContract, price, underlyingPrice, rate, dividendYield decimal.Decimal) (decimal.Decimal, error) {
	if err := validateInputs(c, underlyingPrice, decimal.Zero, rate, dividendYield); err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, ErrInvalidOptionPrice.WithDetail("price=%s", price)
	}
	if _, err := ModelFor(c.Style); err != nil {
		return decimal.Zero, err
	}
	if !c.Expiry.IsPositive() {
		return decimal.Zero, ErrNoConvergence.WithDetail("volatility undefined at expiry")
	}

	in := newInput(c, underlyingPrice, decimal.Zero, rate, dividendYield)
	target := price.InexactFloat64()
	objective := func(vol float64) (float64, error) {
		x := in
		x.V = vol
		v, err := p.value(c, x)
		return v - target, err
	}

	lo, hi := ivLowerBound, ivUpperBound
	flo, err := objective(lo)
	if err != nil {
		return decimal.Zero, err
	}
	fhi, err := objective(hi)
	if err != nil {
		return decimal.Zero, err
	}
	if flo > ivTolerance || fhi < -ivTolerance {
		return decimal.Zero, ErrPriceOutOfBounds.WithDetail("price=%s model range [%g, %g]", price, flo+target, fhi+target)
	}
	if math.Abs(flo) <= ivTolerance {
		return p.round(lo)
	}

	vol := ivInitialGuess
	for it := 0; it < ivMaxIterations; it++ {
		f, err := objective(vol)
		if err != nil {
			return decimal.Zero, err
		}
		if math.Abs(f) <= ivTolerance {
			return p.round(vol)
		}
		if f < 0 {
			lo = vol
		} else {
			hi = vol
		}

		next := 0.5 * (lo + hi)
		if vega, err := p.vega(c, in, vol); err == nil && vega > 1e-12 {
			if step := vol - f/vega; step > lo && step < hi {
				next = step
			}
		}
		if hi-lo < ivTolerance*ivTolerance {
			return p.round(next)
		}
		vol = next
	}
	return decimal.Zero, ErrNoConvergence.WithDetail("%s price=%s", c.Symbol(), price)
}

// vega 欧式使用解析值，美式使用前向差分
func (p *Pricer) vega(c derivatives.OptionContract, in modelInput, vol float64) (float64, error) {
	in.V = vol
	if c.Style == derivatives.ExerciseEuropean && in.S > 0 {
		return CalculateBlackScholes(in.call, BlackScholesInput{S: in.S, K: in.K, T: in.T, R: in.R, Q: in.Q, V: in.V}).Vega, nil
	}
	h := math.Max(p.cfg.FDBump*vol, 1e-6)
	base, err := p.value(c, in)
	if err != nil {
		return 0, err
	}
	in.V += h
	up, err := p.value(c, in)
	if err != nil {
		return 0, err
	}
	return (up - base) / h, nil
}
