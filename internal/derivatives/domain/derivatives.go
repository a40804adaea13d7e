// Package domain 期权合约与期权链模型：合约是不可变值对象，期权链由市场快照一次性构建
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var (
	ErrInvalidStrike          = xerrors.New(xerrors.KindValidation, "INVALID_STRIKE", "strike must be positive")
	ErrInvalidExpiry          = xerrors.New(xerrors.KindValidation, "INVALID_EXPIRY", "time to expiry must not be negative")
	ErrInvalidMultiplier      = xerrors.New(xerrors.KindValidation, "INVALID_MULTIPLIER", "multiplier must be positive")
	ErrInvalidOptionType      = xerrors.New(xerrors.KindValidation, "INVALID_OPTION_TYPE", "invalid option type")
	ErrInvalidExerciseStyle   = xerrors.New(xerrors.KindValidation, "INVALID_EXERCISE_STYLE", "invalid exercise style")
	ErrInvalidUnderlying      = xerrors.New(xerrors.KindValidation, "INVALID_UNDERLYING", "underlying symbol is required")
	ErrDuplicateStrike        = xerrors.New(xerrors.KindValidation, "DUPLICATE_STRIKE", "option type already listed at this strike and expiry")
	ErrUnderlyingMismatch     = xerrors.New(xerrors.KindValidation, "UNDERLYING_MISMATCH", "contract belongs to another underlying")
	ErrInvalidSpot            = xerrors.New(xerrors.KindValidation, "INVALID_SPOT", "reference underlying price must be positive")
	ErrInvalidMoneynessRange  = xerrors.New(xerrors.KindValidation, "INVALID_MONEYNESS_RANGE", "moneyness range is empty")
	ErrInvalidQuote           = xerrors.New(xerrors.KindValidation, "INVALID_QUOTE", "quote values must not be negative")
	ErrOptionContractNotFound = xerrors.New(xerrors.KindDomain, "CONTRACT_NOT_FOUND", "option contract not found")
	ErrExpiryNotFound         = xerrors.New(xerrors.KindDomain, "EXPIRY_NOT_FOUND", "expiry not listed in chain")
)

type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// ExerciseStyle 行权方式。BERMUDAN 与 ASIAN 可以表示，但没有对应的定价模型
type ExerciseStyle string

const (
	ExerciseEuropean ExerciseStyle = "EUROPEAN"
	ExerciseAmerican ExerciseStyle = "AMERICAN"
	ExerciseBermudan ExerciseStyle = "BERMUDAN"
	ExerciseAsian    ExerciseStyle = "ASIAN"
)

func (s ExerciseStyle) Valid() bool {
	switch s {
	case ExerciseEuropean, ExerciseAmerican, ExerciseBermudan, ExerciseAsian:
		return true
	}
	return false
}

// OptionContract 期权合约。Expiry 为剩余期限（年）
type OptionContract struct {
	Underlying string          `json:"underlying"`
	OptionType OptionType      `json:"option_type"`
	Style      ExerciseStyle   `json:"style"`
	Strike     decimal.Decimal `json:"strike"`
	Expiry     decimal.Decimal `json:"expiry"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// NewOptionContract 校验并构造合约；multiplier 为零值时取 1
func NewOptionContract(underlying string, optionType OptionType, style ExerciseStyle, strike, expiry, multiplier decimal.Decimal) (OptionContract, error) {
	if underlying == "" {
		return OptionContract{}, ErrInvalidUnderlying
	}
	if !optionType.Valid() {
		return OptionContract{}, ErrInvalidOptionType.WithDetail("%q", optionType)
	}
	if !style.Valid() {
		return OptionContract{}, ErrInvalidExerciseStyle.WithDetail("%q", style)
	}
	if !strike.IsPositive() {
		return OptionContract{}, ErrInvalidStrike.WithDetail("strike=%s", strike)
	}
	if expiry.IsNegative() {
		return OptionContract{}, ErrInvalidExpiry.WithDetail("expiry=%s", expiry)
	}
	if multiplier.IsZero() {
		multiplier = decimal.NewFromInt(1)
	}
	if !multiplier.IsPositive() {
		return OptionContract{}, ErrInvalidMultiplier.WithDetail("multiplier=%s", multiplier)
	}
	return OptionContract{
		Underlying: underlying,
		OptionType: optionType,
		Style:      style,
		Strike:     strike,
		Expiry:     expiry,
		Multiplier: multiplier,
	}, nil
}

// Validate 重新校验由外部（例如 JSON 反序列化）直接填充的合约
func (oc OptionContract) Validate() error {
	_, err := oc.Normalize()
	return err
}

// Normalize 校验并返回补全默认乘数后的副本
func (oc OptionContract) Normalize() (OptionContract, error) {
	return NewOptionContract(oc.Underlying, oc.OptionType, oc.Style, oc.Strike, oc.Expiry, oc.Multiplier)
}

// WithExpiry 返回剩余期限替换后的副本，用于持有期估值
func (oc OptionContract) WithExpiry(expiry decimal.Decimal) OptionContract {
	oc.Expiry = expiry
	return oc
}

func (oc OptionContract) IsCall() bool { return oc.OptionType == OptionTypeCall }

// Symbol 例如 SPY-0.25-100-C
func (oc OptionContract) Symbol() string {
	suffix := "C"
	if oc.OptionType == OptionTypePut {
		suffix = "P"
	}
	return fmt.Sprintf("%s-%s-%s-%s", oc.Underlying, oc.Expiry.String(), oc.Strike.String(), suffix)
}

// IntrinsicValue 内在价值：看涨 max(S-K, 0)，看跌 max(K-S, 0)
func (oc OptionContract) IntrinsicValue(underlyingPrice decimal.Decimal) decimal.Decimal {
	var intrinsic decimal.Decimal
	if oc.OptionType == OptionTypeCall {
		intrinsic = underlyingPrice.Sub(oc.Strike)
	} else {
		intrinsic = oc.Strike.Sub(underlyingPrice)
	}
	if intrinsic.IsNegative() {
		return decimal.Zero
	}
	return intrinsic
}

func (oc OptionContract) TimeValue(underlyingPrice, optionPrice decimal.Decimal) decimal.Decimal {
	timeValue := optionPrice.Sub(oc.IntrinsicValue(underlyingPrice))
	if timeValue.IsNegative() {
		return decimal.Zero
	}
	return timeValue
}

func (oc OptionContract) IsInTheMoney(underlyingPrice decimal.Decimal) bool {
	if oc.OptionType == OptionTypeCall {
		return underlyingPrice.GreaterThan(oc.Strike)
	}
	return underlyingPrice.LessThan(oc.Strike)
}

// Moneyness 行权价相对标的价格 K/S；S 非正时返回零
func (oc OptionContract) Moneyness(underlyingPrice decimal.Decimal) decimal.Decimal {
	if !underlyingPrice.IsPositive() {
		return decimal.Zero
	}
	return oc.Strike.Div(underlyingPrice)
}

var atmBand = decimal.RequireFromString("0.05")

// MoneynessLabel K/S 偏离 1 不超过 5% 视为 ATM
func (oc OptionContract) MoneynessLabel(underlyingPrice decimal.Decimal) string {
	m := oc.Moneyness(underlyingPrice)
	if m.IsZero() {
		return "UNKNOWN"
	}
	if m.Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(atmBand) {
		return "ATM"
	}
	if oc.IsInTheMoney(underlyingPrice) {
		return "ITM"
	}
	return "OTM"
}

// OptionQuote 市场快照中的一行：合约及可选的买卖价与隐含波动率
type OptionQuote struct {
	Contract          OptionContract      `json:"contract"`
	Bid               decimal.NullDecimal `json:"bid"`
	Ask               decimal.NullDecimal `json:"ask"`
	ImpliedVolatility decimal.NullDecimal `json:"implied_volatility"`
}

func (q OptionQuote) validate() error {
	for _, v := range []decimal.NullDecimal{q.Bid, q.Ask, q.ImpliedVolatility} {
		if v.Valid && v.Decimal.IsNegative() {
			return ErrInvalidQuote.WithDetail("%s", q.Contract.Symbol())
		}
	}
	return nil
}

// Mid 买卖价中间价；任一侧缺失时返回另一侧，均缺失时 ok 为 false
func (q OptionQuote) Mid() (decimal.Decimal, bool) {
	switch {
	case q.Bid.Valid && q.Ask.Valid:
		return q.Bid.Decimal.Add(q.Ask.Decimal).Div(decimal.NewFromInt(2)), true
	case q.Bid.Valid:
		return q.Bid.Decimal, true
	case q.Ask.Valid:
		return q.Ask.Decimal, true
	}
	return decimal.Zero, false
}
