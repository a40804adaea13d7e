package domain

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
)

// Greeks 希腊字母，均为原始偏导数：Vega 对应波动率变化 1.0，Theta 为每年日历时间的价值变化
type Greeks struct {
	Delta decimal.Decimal `json:"delta"`
	Gamma decimal.Decimal `json:"gamma"`
	Theta decimal.Decimal `json:"theta"`
	Vega  decimal.Decimal `json:"vega"`
	Rho   decimal.Decimal `json:"rho"`
}

func (g Greeks) Add(other Greeks) Greeks {
	return Greeks{
		Delta: g.Delta.Add(other.Delta),
		Gamma: g.Gamma.Add(other.Gamma),
		Theta: g.Theta.Add(other.Theta),
		Vega:  g.Vega.Add(other.Vega),
		Rho:   g.Rho.Add(other.Rho),
	}
}

func (g Greeks) Multiply(factor decimal.Decimal) Greeks {
	return Greeks{
		Delta: g.Delta.Mul(factor),
		Gamma: g.Gamma.Mul(factor),
		Theta: g.Theta.Mul(factor),
		Vega:  g.Vega.Mul(factor),
		Rho:   g.Rho.Mul(factor),
	}
}

// VolatilitySource 共享只读的波动率来源，例如平坦波动率、微笑曲线或曲面
type VolatilitySource interface {
	VolatilityAt(strike, expiry decimal.Decimal) (decimal.Decimal, error)
}

// MarketState 计算价格与希腊字母时的市场状态，时间取合约剩余期限
type MarketState struct {
	UnderlyingPrice decimal.Decimal  `json:"underlying_price"`
	Volatility      decimal.Decimal  `json:"volatility"`
	Rate            decimal.Decimal  `json:"rate"`
	DividendYield   decimal.Decimal  `json:"dividend_yield"`
	Source          VolatilitySource `json:"-"`
}

// VolatilityFor 有波动率来源时按合约行权价与期限查询，否则使用平坦波动率
func (m MarketState) VolatilityFor(c derivatives.OptionContract) (decimal.Decimal, error) {
	if m.Source != nil {
		return m.Source.VolatilityAt(c.Strike, c.Expiry)
	}
	return m.Volatility, nil
}

func (m MarketState) WithUnderlyingPrice(price decimal.Decimal) MarketState {
	m.UnderlyingPrice = price
	return m
}

// PriceAt 以市场状态为输入定价
func (p *Pricer) PriceAt(c derivatives.OptionContract, m MarketState) (decimal.Decimal, error) {
	vol, err := m.VolatilityFor(c)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Price(c, m.UnderlyingPrice, vol, m.Rate, m.DividendYield)
}

// Greeks 欧式且 T>0、vol>0 时使用解析解，其余情况使用有限差分
func (p *Pricer) Greeks(c derivatives.OptionContract, m MarketState) (Greeks, error) {
	vol, err := m.VolatilityFor(c)
	if err != nil {
		return Greeks{}, err
	}
	if err := validateInputs(c, m.UnderlyingPrice, vol, m.Rate, m.DividendYield); err != nil {
		return Greeks{}, err
	}
	if _, err := ModelFor(c.Style); err != nil {
		return Greeks{}, err
	}

	in := newInput(c, m.UnderlyingPrice, vol, m.Rate, m.DividendYield)
	var raw BlackScholesResult
	if c.Style == derivatives.ExerciseEuropean && in.T > 0 && in.V > 0 && in.S > 0 {
		raw = CalculateBlackScholes(in.call, BlackScholesInput{S: in.S, K: in.K, T: in.T, R: in.R, Q: in.Q, V: in.V})
	} else {
		raw, err = p.finiteDifference(c, in)
		if err != nil {
			return Greeks{}, err
		}
	}
	return p.toGreeks(raw)
}

func (p *Pricer) toGreeks(raw BlackScholesResult) (Greeks, error) {
	var g Greeks
	var err error
	for _, f := range []struct {
		dst *decimal.Decimal
		v   float64
	}{
		{&g.Delta, raw.Delta}, {&g.Gamma, raw.Gamma}, {&g.Theta, raw.Theta}, {&g.Vega, raw.Vega}, {&g.Rho, raw.Rho},
	} {
		if *f.dst, err = p.round(f.v); err != nil {
			return Greeks{}, err
		}
	}
	return g, nil
}

// finiteDifference 对称差分；下移会越出定义域（S、vol、r、T 小于零）时改用前向差分
func (p *Pricer) finiteDifference(c derivatives.OptionContract, in modelInput) (BlackScholesResult, error) {
	bump := p.cfg.FDBump
	var out BlackScholesResult

	f0, err := p.value(c, in)
	if err != nil {
		return out, err
	}
	eval := func(mut func(*modelInput)) (float64, error) {
		x := in
		mut(&x)
		return p.value(c, x)
	}

	hs := bump * in.S
	if hs == 0 {
		hs = bump * in.K
	}
	up, err := eval(func(x *modelInput) { x.S += hs })
	if err != nil {
		return out, err
	}
	if in.S-hs >= 0 {
		down, err := eval(func(x *modelInput) { x.S -= hs })
		if err != nil {
			return out, err
		}
		out.Delta = (up - down) / (2 * hs)
		out.Gamma = (up - 2*f0 + down) / (hs * hs)
	} else {
		up2, err := eval(func(x *modelInput) { x.S += 2 * hs })
		if err != nil {
			return out, err
		}
		out.Delta = (up - f0) / hs
		out.Gamma = (up2 - 2*up + f0) / (hs * hs)
	}

	if out.Vega, err = p.partial(in.V, bump, f0, func(h float64) (float64, error) {
		return eval(func(x *modelInput) { x.V += h })
	}); err != nil {
		return out, err
	}
	if out.Rho, err = p.partial(in.R, bump, f0, func(h float64) (float64, error) {
		return eval(func(x *modelInput) { x.R += h })
	}); err != nil {
		return out, err
	}
	dT, err := p.partial(in.T, bump, f0, func(h float64) (float64, error) {
		return eval(func(x *modelInput) { x.T += h })
	})
	if err != nil {
		return out, err
	}
	out.Theta = -dT
	return out, nil
}

// partial 一阶偏导，x-h < 0 时使用前向差分
func (p *Pricer) partial(x, h, f0 float64, shifted func(float64) (float64, error)) (float64, error) {
	up, err := shifted(h)
	if err != nil {
		return 0, err
	}
	if x-h < 0 {
		return (up - f0) / h, nil
	}
	down, err := shifted(-h)
	if err != nil {
		return 0, err
	}
	return (up - down) / (2 * h), nil
}
