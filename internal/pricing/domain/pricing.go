// Package domain 期权定价与希腊字母引擎。
// 欧式期权使用带连续股息率的 Black-Scholes-Merton 解析解，美式期权使用 CRR 二叉树。
// 所有输出为定精度 decimal；函数纯净、可重入。
package domain

import (
	"math"

	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var (
	ErrNegativeVolatility     = xerrors.New(xerrors.KindValidation, "NEGATIVE_VOLATILITY", "volatility must not be negative")
	ErrNegativeRate           = xerrors.New(xerrors.KindValidation, "NEGATIVE_RATE", "risk free rate must not be negative")
	ErrNegativeDividendYield  = xerrors.New(xerrors.KindValidation, "NEGATIVE_DIVIDEND_YIELD", "dividend yield must not be negative")
	ErrInvalidUnderlyingPrice = xerrors.New(xerrors.KindValidation, "INVALID_UNDERLYING_PRICE", "underlying price must not be negative")
	ErrInvalidOptionPrice     = xerrors.New(xerrors.KindValidation, "INVALID_OPTION_PRICE", "option price must be positive")
	ErrUnsupportedModel       = xerrors.New(xerrors.KindDomain, "UNSUPPORTED_MODEL", "no pricing model for exercise style")
	ErrNumericalOverflow      = xerrors.New(xerrors.KindNumerical, "NUMERICAL_OVERFLOW", "pricing produced a non finite value")
	ErrNoConvergence          = xerrors.New(xerrors.KindNumerical, "NO_CONVERGENCE", "implied volatility did not converge")
	ErrPriceOutOfBounds       = xerrors.New(xerrors.KindNumerical, "PRICE_OUT_OF_BOUNDS", "price outside model arbitrage bounds")
)

// ModelType 定价模型
type ModelType string

const (
	ModelBlackScholes ModelType = "BLACK_SCHOLES"
	ModelBinomial     ModelType = "BINOMIAL"
)

const (
	DefaultBinomialSteps = 200
	DefaultFDBump        = 1e-3
	DefaultPrecision     = 10

	maxBinomialSteps = 20000
)

// Config 定价参数
type Config struct {
	BinomialSteps int     // 二叉树步数
	FDBump        float64 // 有限差分步长：标的为相对值，其余为绝对值
	Precision     int32   // 输出保留的小数位
}

func DefaultConfig() Config {
	return Config{BinomialSteps: DefaultBinomialSteps, FDBump: DefaultFDBump, Precision: DefaultPrecision}
}

// Pricer 定价器，构造后只读，可被并发共享
type Pricer struct {
	cfg Config
}

// NewPricer 创建定价器，未设置的参数使用默认值
func NewPricer(cfg Config) *Pricer {
	def := DefaultConfig()
	if cfg.BinomialSteps <= 0 {
		cfg.BinomialSteps = def.BinomialSteps
	}
	if cfg.FDBump <= 0 {
		cfg.FDBump = def.FDBump
	}
	if cfg.Precision <= 0 {
		cfg.Precision = def.Precision
	}
	return &Pricer{cfg: cfg}
}

func (p *Pricer) Config() Config { return p.cfg }

// ModelFor 返回合约行权方式对应的模型
func ModelFor(style derivatives.ExerciseStyle) (ModelType, error) {
	switch style {
	case derivatives.ExerciseEuropean:
		return ModelBlackScholes, nil
	case derivatives.ExerciseAmerican:
		return ModelBinomial, nil
	}
	return "", ErrUnsupportedModel.WithDetail("%s", style)
}

// Price 计算期权理论价格。
// T=0 时按内在价值在 decimal 中精确返回；vol=0 时为确定性远期路径的贴现价值。
func (p *Pricer) Price(c derivatives.OptionContract, underlyingPrice, volatility, rate, dividendYield decimal.Decimal) (decimal.Decimal, error) {
	if err := validateInputs(c, underlyingPrice, volatility, rate, dividendYield); err != nil {
		return decimal.Zero, err
	}
	if c.Expiry.IsZero() {
		return c.IntrinsicValue(underlyingPrice).Round(p.cfg.Precision), nil
	}
	in := newInput(c, underlyingPrice, volatility, rate, dividendYield)
	v, err := p.value(c, in)
	if err != nil {
		return decimal.Zero, err
	}
	return p.round(v)
}

func validateInputs(c derivatives.OptionContract, underlyingPrice, volatility, rate, dividendYield decimal.Decimal) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if underlyingPrice.IsNegative() {
		return ErrInvalidUnderlyingPrice.WithDetail("S=%s", underlyingPrice)
	}
	if volatility.IsNegative() {
		return ErrNegativeVolatility.WithDetail("vol=%s", volatility)
	}
	if rate.IsNegative() {
		return ErrNegativeRate.WithDetail("r=%s", rate)
	}
	if dividendYield.IsNegative() {
		return ErrNegativeDividendYield.WithDetail("q=%s", dividendYield)
	}
	return nil
}

// modelInput 浮点模型输入
type modelInput struct {
	S, K, T, R, Q, V float64
	call           bool
}

func newInput(c derivatives.OptionContract, underlyingPrice, volatility, rate, dividendYield decimal.Decimal) modelInput {
	return modelInput{
		S:    underlyingPrice.InexactFloat64(),
		K:    c.Strike.InexactFloat64(),
		T:    c.Expiry.InexactFloat64(),
		R:    rate.InexactFloat64(),
		Q:    dividendYield.InexactFloat64(),
		V:    volatility.InexactFloat64(),
		call: c.IsCall(),
	}
}

func (in modelInput) intrinsic(s float64) float64 {
	if in.call {
		return math.Max(s-in.K, 0)
	}
	return math.Max(in.K-s, 0)
}

// value 按行权方式分派到具体模型
func (p *Pricer) value(c derivatives.OptionContract, in modelInput) (float64, error) {
	model, err := ModelFor(c.Style)
	if err != nil {
		return 0, err
	}
	var v float64
	switch {
	case in.T <= 0:
		v = in.intrinsic(in.S)
	case model == ModelBlackScholes:
		v = blackScholesPrice(in)
	default:
		v, err = binomialPrice(in, p.cfg.BinomialSteps)
		if err != nil {
			return 0, err
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNumericalOverflow.WithDetail("%s", c.Symbol())
	}
	return v, nil
}

func (p *Pricer) round(v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero, ErrNumericalOverflow
	}
	return decimal.NewFromFloat(v).Round(p.cfg.Precision), nil
}
