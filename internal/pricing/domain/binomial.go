package domain

import (
	"math"
)

// binomialPrice Cox-Ross-Rubinstein 二叉树，逐节点比较继续持有与提前行权。
// 风险中性概率落在 [0,1] 之外时自动加密步数，步数超过上限时按确定性路径处理。
func binomialPrice(in modelInput, steps int) (float64, error) {
	if in.V == 0 {
		return deterministicAmerican(in, steps), nil
	}

	n := steps
	// p ∈ [0,1] 需要 |r-q|·sqrt(dt) <= σ
	ratio := math.Abs(in.R-in.Q) / in.V
	need := math.Ceil(in.T*ratio*ratio) + 1
	if need > maxBinomialSteps {
		// 漂移远大于扩散，价格与确定性路径一致
		return deterministicAmerican(in, steps), nil
	}
	if int(need) > n {
		n = int(need)
	}

	dt := in.T / float64(n)
	u := math.Exp(in.V * math.Sqrt(dt))
	d := 1 / u
	growth := math.Exp((in.R - in.Q) * dt)
	pu := (growth - d) / (u - d)
	if pu < 0 || pu > 1 {
		return 0, ErrNumericalOverflow.WithDetail("risk neutral probability %g", pu)
	}
	disc := math.Exp(-in.R * dt)

	values := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		values[i] = in.intrinsic(in.S * math.Pow(u, float64(2*i-n)))
	}
	for j := n - 1; j >= 0; j-- {
		for i := 0; i <= j; i++ {
			hold := disc * (pu*values[i+1] + (1-pu)*values[i])
			exercise := in.intrinsic(in.S * math.Pow(u, float64(2*i-j)))
			values[i] = math.Max(hold, exercise)
		}
	}
	return values[0], nil
}

// deterministicAmerican vol=0 时标的沿远期路径确定演化，取各行权时点贴现价值的最大值（含 t=0）
func deterministicAmerican(in modelInput, steps int) float64 {
	best := in.intrinsic(in.S)
	for i := 1; i <= steps; i++ {
		t := in.T * float64(i) / float64(steps)
		s := in.S * math.Exp((in.R-in.Q)*t)
		v := math.Exp(-in.R*t) * in.intrinsic(s)
		if v > best {
			best = v
		}
	}
	return best
}
