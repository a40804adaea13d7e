// Package domain 蒙特卡洛模拟引擎：按路径并行生成标的价格，评估策略损益并汇总分布统计
package domain

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var ErrInvalidProcess = xerrors.New(xerrors.KindValidation, "INVALID_PROCESS", "invalid process parameters")

// ProcessType 标的价格过程
type ProcessType string

const (
	ProcessGBM           ProcessType = "GBM"            // 几何布朗运动
	ProcessJumpDiffusion ProcessType = "JUMP_DIFFUSION" // 默顿跳跃扩散
	ProcessHeston        ProcessType = "HESTON"         // 赫斯顿随机波动率
)

// ProcessParameters 价格过程参数。Horizon 为模拟期限（年），亦即评估策略时经过的时间
type ProcessParameters struct {
	Type         ProcessType     `json:"type"`
	InitialPrice decimal.Decimal `json:"initial_price"`
	Drift        decimal.Decimal `json:"drift"`
	Volatility   decimal.Decimal `json:"volatility"`
	Horizon      decimal.Decimal `json:"horizon"`
	Steps        int             `json:"steps"`

	// 跳跃扩散
	JumpIntensity  decimal.Decimal `json:"jump_intensity"`  // 每年跳跃次数 λ
	JumpMean       decimal.Decimal `json:"jump_mean"`       // 对数跳幅均值
	JumpVolatility decimal.Decimal `json:"jump_volatility"` // 对数跳幅标准差

	// Heston，初始方差取 Volatility²
	Kappa    decimal.Decimal `json:"kappa"`
	Theta    decimal.Decimal `json:"theta"`
	VolOfVol decimal.Decimal `json:"vol_of_vol"`
	Rho      decimal.Decimal `json:"rho"`
}

// Validate 校验参数取值范围
func (p ProcessParameters) Validate() error {
	switch {
	case !p.InitialPrice.IsPositive():
		return ErrInvalidProcess.WithDetail("initial price must be positive")
	case p.Volatility.IsNegative():
		return ErrInvalidProcess.WithDetail("volatility must not be negative")
	case !p.Horizon.IsPositive():
		return ErrInvalidProcess.WithDetail("horizon must be positive")
	case p.Steps <= 0:
		return ErrInvalidProcess.WithDetail("steps must be positive")
	}
	switch p.Type {
	case ProcessGBM:
	case ProcessJumpDiffusion:
		if p.JumpIntensity.IsNegative() || p.JumpVolatility.IsNegative() {
			return ErrInvalidProcess.WithDetail("jump intensity and volatility must not be negative")
		}
	case ProcessHeston:
		one := decimal.NewFromInt(1)
		if p.Kappa.IsNegative() || p.Theta.IsNegative() || p.VolOfVol.IsNegative() {
			return ErrInvalidProcess.WithDetail("kappa, theta and vol of vol must not be negative")
		}
		if p.Rho.GreaterThan(one) || p.Rho.LessThan(one.Neg()) {
			return ErrInvalidProcess.WithDetail("rho=%s outside [-1, 1]", p.Rho)
		}
	default:
		return ErrInvalidProcess.WithDetail("unknown process %q", p.Type)
	}
	return nil
}

// PriceGenerator 单条路径的价格演化，每条路径各自持有生成器与随机源
type PriceGenerator interface {
	Next(currentPrice float64, dt float64) float64
}

func (p ProcessParameters) newGenerator(rng *rand.Rand) PriceGenerator {
	mu, sigma := p.Drift.InexactFloat64(), p.Volatility.InexactFloat64()
	switch p.Type {
	case ProcessJumpDiffusion:
		return &JumpDiffusion{
			Drift:      mu,
			Volatility: sigma,
			Lambda:     p.JumpIntensity.InexactFloat64(),
			JumpMu:     p.JumpMean.InexactFloat64(),
			JumpSigma:  p.JumpVolatility.InexactFloat64(),
			Rand:       rng,
		}
	case ProcessHeston:
		return &Heston{
			Drift:    mu,
			Kappa:    p.Kappa.InexactFloat64(),
			Theta:    p.Theta.InexactFloat64(),
			VolOfVol: p.VolOfVol.InexactFloat64(),
			Rho:      p.Rho.InexactFloat64(),
			variance: sigma * sigma,
			Rand:     rng,
		}
	default:
		return &GeometricBrownianMotion{Drift: mu, Volatility: sigma, Rand: rng}
	}
}

// GeometricBrownianMotion implements a GBM price process
type GeometricBrownianMotion struct {
	Drift      float64 // mu
	Volatility float64 // sigma
	Rand       *rand.Rand
}

func (gbm *GeometricBrownianMotion) Next(currentPrice float64, dt float64) float64 {
	z := gbm.Rand.NormFloat64()
	return currentPrice * math.Exp((gbm.Drift-0.5*gbm.Volatility*gbm.Volatility)*dt+gbm.Volatility*math.Sqrt(dt)*z)
}

// JumpDiffusion 默顿跳跃扩散，漂移项经跳跃补偿使期望增长率仍为 Drift
type JumpDiffusion struct {
	Drift      float64
	Volatility float64
	Lambda     float64
	JumpMu     float64
	JumpSigma  float64
	Rand       *rand.Rand
}

func (j *JumpDiffusion) Next(currentPrice float64, dt float64) float64 {
	k := math.Exp(j.JumpMu+0.5*j.JumpSigma*j.JumpSigma) - 1
	drift := (j.Drift - j.Lambda*k - 0.5*j.Volatility*j.Volatility) * dt
	diffusion := j.Volatility * math.Sqrt(dt) * j.Rand.NormFloat64()

	jumps := 0.0
	for n := poisson(j.Rand, j.Lambda*dt); n > 0; n-- {
		jumps += j.JumpMu + j.JumpSigma*j.Rand.NormFloat64()
	}
	return currentPrice * math.Exp(drift+diffusion+jumps)
}

// poisson Knuth 算法，适用于每步较小的期望跳跃次数
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	limit := math.Exp(-mean)
	n := 0
	for p := rng.Float64(); p > limit; p *= rng.Float64() {
		n++
	}
	return n
}

// Heston 随机波动率模型，方差采用 full truncation Euler 离散
type Heston struct {
	Drift    float64
	Kappa    float64
	Theta    float64
	VolOfVol float64
	Rho      float64
	variance float64
	Rand     *rand.Rand
}

func (h *Heston) Next(currentPrice float64, dt float64) float64 {
	v := math.Max(h.variance, 0)
	z1 := h.Rand.NormFloat64()
	z2 := h.Rho*z1 + math.Sqrt(1-h.Rho*h.Rho)*h.Rand.NormFloat64()

	next := currentPrice * math.Exp((h.Drift-0.5*v)*dt+math.Sqrt(v*dt)*z1)
	h.variance += h.Kappa*(h.Theta-v)*dt + h.VolOfVol*math.Sqrt(v*dt)*z2
	return next
}

// substream 由 (seed, 路径下标) 派生独立的 PCG 随机源，与调度顺序无关
func substream(seed uint64, index int) *rand.Rand {
	hi := splitmix64(seed ^ splitmix64(uint64(index)))
	lo := splitmix64(hi + uint64(index))
	return rand.New(rand.NewPCG(hi, lo))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
