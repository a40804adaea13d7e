package application

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	"github.com/wyfcoding/optionsengine/internal/pricing/domain"
	volatility "github.com/wyfcoding/optionsengine/internal/volatility/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
)

// ContractInput 请求中的合约，经 NewOptionContract 校验并补全默认乘数
type ContractInput struct {
	Underlying string                    `json:"underlying"`
	OptionType derivatives.OptionType    `json:"option_type"`
	Style      derivatives.ExerciseStyle `json:"style"`
	Strike     decimal.Decimal           `json:"strike"`
	Expiry     decimal.Decimal           `json:"expiry"`
	Multiplier decimal.Decimal           `json:"multiplier"`
}

func (in ContractInput) ToDomain() (derivatives.OptionContract, error) {
	style := in.Style
	if style == "" {
		style = derivatives.ExerciseEuropean
	}
	return derivatives.NewOptionContract(in.Underlying, in.OptionType, style, in.Strike, in.Expiry, in.Multiplier)
}

// VolatilityInput 可选的波动率来源：微笑曲线（按行权价）或曲面（行权价 × 期限）
type VolatilityInput struct {
	Smile         []curves.Point             `json:"smile,omitempty"`
	SmileMethod   curves.InterpolationMethod `json:"smile_method,omitempty"`
	Surface       []curves.Point3D           `json:"surface,omitempty"`
	SurfaceMethod curves.SurfaceMethod       `json:"surface_method,omitempty"`
	Extrapolation curves.ExtrapolationPolicy `json:"extrapolation,omitempty"`
}

// Source 构建波动率来源；均未提供时返回 nil
func (v *VolatilityInput) Source() (domain.VolatilitySource, error) {
	if v == nil {
		return nil, nil
	}
	policy := v.Extrapolation
	if policy == "" {
		policy = curves.ExtrapolationClamp
	}
	switch {
	case len(v.Surface) > 0:
		method := v.SurfaceMethod
		if method == "" {
			method = curves.SurfaceBilinear
		}
		s, err := curves.NewSurface(v.Surface, method, policy)
		if err != nil {
			return nil, err
		}
		return volatility.NewSurfaceVolatility(s), nil
	case len(v.Smile) > 0:
		method := v.SmileMethod
		if method == "" {
			method = curves.InterpolationLinear
		}
		c, err := curves.NewCurve(v.Smile, method, policy)
		if err != nil {
			return nil, err
		}
		return volatility.NewSmileVolatility(decimal.Zero, c), nil
	}
	return nil, nil
}

// MarketInput 请求中的市场状态
type MarketInput struct {
	UnderlyingPrice decimal.Decimal  `json:"underlying_price"`
	Volatility      decimal.Decimal  `json:"volatility"`
	Rate            decimal.Decimal  `json:"rate"`
	DividendYield   decimal.Decimal  `json:"dividend_yield"`
	VolSource       *VolatilityInput `json:"vol_source,omitempty"`
}

func (m MarketInput) ToDomain() (domain.MarketState, error) {
	src, err := m.VolSource.Source()
	if err != nil {
		return domain.MarketState{}, err
	}
	return domain.MarketState{
		UnderlyingPrice: m.UnderlyingPrice,
		Volatility:      m.Volatility,
		Rate:            m.Rate,
		DividendYield:   m.DividendYield,
		Source:          src,
	}, nil
}

// PriceRequest 定价/希腊字母请求
type PriceRequest struct {
	Contract ContractInput `json:"contract"`
	Market   MarketInput   `json:"market"`
}

// PriceDTO 定价结果
type PriceDTO struct {
	Symbol         string           `json:"symbol"`
	Model          domain.ModelType `json:"model,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	Volatility     decimal.Decimal  `json:"volatility"`
	IntrinsicValue decimal.Decimal  `json:"intrinsic_value"`
	TimeValue      decimal.Decimal  `json:"time_value"`
	Moneyness      string           `json:"moneyness"`
}

// GreeksDTO 希腊字母结果
type GreeksDTO struct {
	Symbol string           `json:"symbol"`
	Model  domain.ModelType `json:"model,omitempty"`
	Price  decimal.Decimal  `json:"price"`
	Greeks domain.Greeks    `json:"greeks"`
}

// ImpliedVolatilityRequest 隐含波动率请求
type ImpliedVolatilityRequest struct {
	Contract        ContractInput   `json:"contract"`
	OptionPrice     decimal.Decimal `json:"option_price"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	Rate            decimal.Decimal `json:"rate"`
	DividendYield   decimal.Decimal `json:"dividend_yield"`
}

// ImpliedVolatilityDTO 隐含波动率结果
type ImpliedVolatilityDTO struct {
	Symbol            string          `json:"symbol"`
	ImpliedVolatility decimal.Decimal `json:"implied_volatility"`
}

// GreekCurveRequest 固定其余输入，沿标的价格或波动率采样价格或某个希腊字母
type GreekCurveRequest struct {
	Contract ContractInput              `json:"contract"`
	Market   MarketInput                `json:"market"`
	Measure  domain.Measure             `json:"measure"`
	Axis     domain.Axis                `json:"axis"`
	Range    domain.SampleRange         `json:"range"`
	Method   curves.InterpolationMethod `json:"method"`
}

// GreekCurveDTO 采样曲线
type GreekCurveDTO struct {
	Symbol  string         `json:"symbol"`
	Measure domain.Measure `json:"measure"`
	Axis    domain.Axis    `json:"axis"`
	Curve   *curves.Curve  `json:"curve"`
}
