package domain

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// BlackScholesInput Black-Scholes-Merton 模型输入
type BlackScholesInput struct {
	S float64 // 标的资产价格
	K float64 // 执行价格
	T float64 // 到期时间 (年)
	R float64 // 无风险利率
	Q float64 // 连续股息率
	V float64 // 波动率
}

// BlackScholesResult Black-Scholes-Merton 价格与希腊字母。Theta 为按日历时间每年的变化
type BlackScholesResult struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64
	Vega  float64
	Rho   float64
}

// CalculateBlackScholes 计算解析价格与希腊字母，要求 S、T、V 均为正
func CalculateBlackScholes(call bool, input BlackScholesInput) BlackScholesResult {
	sqrtT := math.Sqrt(input.T)
	d1 := (math.Log(input.S/input.K) + (input.R-input.Q+0.5*input.V*input.V)*input.T) / (input.V * sqrtT)
	d2 := d1 - input.V*sqrtT

	dq := math.Exp(-input.Q * input.T)
	dr := math.Exp(-input.R * input.T)
	pdf := normPdf(d1)

	res := BlackScholesResult{
		Gamma: dq * pdf / (input.S * input.V * sqrtT),
		Vega:  input.S * dq * pdf * sqrtT,
	}
	decay := -input.S * dq * pdf * input.V / (2 * sqrtT)

	if call {
		res.Price = input.S*dq*normCdf(d1) - input.K*dr*normCdf(d2)
		res.Delta = dq * normCdf(d1)
		res.Theta = decay - input.R*input.K*dr*normCdf(d2) + input.Q*input.S*dq*normCdf(d1)
		res.Rho = input.K * input.T * dr * normCdf(d2)
	} else {
		res.Price = input.K*dr*normCdf(-d2) - input.S*dq*normCdf(-d1)
		res.Delta = -dq * normCdf(-d1)
		res.Theta = decay + input.R*input.K*dr*normCdf(-d2) - input.Q*input.S*dq*normCdf(-d1)
		res.Rho = -input.K * input.T * dr * normCdf(-d2)
	}
	return res
}

// blackScholesPrice 处理 vol=0 与 S=0 的退化情形后求解析价格
func blackScholesPrice(in modelInput) float64 {
	forward := in.S * math.Exp(-in.Q*in.T)
	strike := in.K * math.Exp(-in.R*in.T)
	if in.V == 0 || in.S == 0 {
		if in.call {
			return math.Max(forward-strike, 0)
		}
		return math.Max(strike-forward, 0)
	}
	return CalculateBlackScholes(in.call, BlackScholesInput{S: in.S, K: in.K, T: in.T, R: in.R, Q: in.Q, V: in.V}).Price
}

// normCdf 标准正态分布累积分布函数
func normCdf(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// normPdf 标准正态分布概率密度函数
func normPdf(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
