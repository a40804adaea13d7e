// Package domain 多腿期权策略：净权利金、净希腊字母（写时失效缓存）、到期损益曲线与盈亏平衡点
package domain

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var (
	ErrInvalidQuantity    = xerrors.New(xerrors.KindValidation, "INVALID_QUANTITY", "leg quantity must be positive")
	ErrInvalidSide        = xerrors.New(xerrors.KindValidation, "INVALID_SIDE", "leg side must be LONG or SHORT")
	ErrInvalidPremium     = xerrors.New(xerrors.KindValidation, "INVALID_PREMIUM", "leg premium must not be negative")
	ErrInvalidPriceRange  = xerrors.New(xerrors.KindValidation, "INVALID_PRICE_RANGE", "invalid underlying price range")
	ErrInvalidHorizon     = xerrors.New(xerrors.KindValidation, "INVALID_HORIZON", "elapsed time must not be negative")
	ErrInvalidStrikeOrder = xerrors.New(xerrors.KindValidation, "INVALID_STRIKE_ORDER", "template strikes out of order")
	ErrUnknownTemplate    = xerrors.New(xerrors.KindValidation, "UNKNOWN_TEMPLATE", "unknown strategy template")
	ErrInvalidExpiries    = xerrors.New(xerrors.KindValidation, "INVALID_TEMPLATE_EXPIRIES", "template expiries missing or out of order")
	ErrLegNotFound        = xerrors.New(xerrors.KindDomain, "LEG_NOT_FOUND", "strategy leg not found")
	ErrEmptyStrategy      = xerrors.New(xerrors.KindDomain, "EMPTY_STRATEGY", "strategy has no legs")
)

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

func (s Side) Valid() bool { return s == SideLong || s == SideShort }

// StrategyType 策略类型
type StrategyType string

const (
	StrategyTypeCustom         StrategyType = "CUSTOM"
	StrategyTypeLongCall       StrategyType = "LONG_CALL"
	StrategyTypeShortCall      StrategyType = "SHORT_CALL"
	StrategyTypeLongPut        StrategyType = "LONG_PUT"
	StrategyTypeShortPut       StrategyType = "SHORT_PUT"
	StrategyTypeBullCallSpread StrategyType = "BULL_CALL_SPREAD"
	StrategyTypeBearPutSpread  StrategyType = "BEAR_PUT_SPREAD"
	StrategyTypeStraddle       StrategyType = "STRADDLE"
	StrategyTypeStrangle       StrategyType = "STRANGLE"
	StrategyTypeIronCondor     StrategyType = "IRON_CONDOR"
	StrategyTypeCallButterfly  StrategyType = "CALL_BUTTERFLY"

	StrategyTypeBearCallSpread      StrategyType = "BEAR_CALL_SPREAD"
	StrategyTypeBullPutSpread       StrategyType = "BULL_PUT_SPREAD"
	StrategyTypeShortStraddle       StrategyType = "SHORT_STRADDLE"
	StrategyTypeShortStrangle       StrategyType = "SHORT_STRANGLE"
	StrategyTypeShortButterfly      StrategyType = "SHORT_BUTTERFLY_SPREAD"
	StrategyTypeRatioCallSpread     StrategyType = "RATIO_CALL_SPREAD"
	StrategyTypePoorMansCoveredCall StrategyType = "POOR_MANS_COVERED_CALL"
)

// Leg 策略腿。Premium 为单位合约的建仓权利金
type Leg struct {
	Contract derivatives.OptionContract `json:"contract"`
	Quantity decimal.Decimal            `json:"quantity"`
	Side     Side                       `json:"side"`
	Premium  decimal.Decimal            `json:"premium"`
}

// SignedQuantity 多头为正，空头为负
func (l Leg) SignedQuantity() decimal.Decimal {
	if l.Side == SideShort {
		return l.Quantity.Neg()
	}
	return l.Quantity
}

// Exposure 带符号数量乘以合约乘数
func (l Leg) Exposure() decimal.Decimal {
	return l.SignedQuantity().Mul(l.Contract.Multiplier)
}

// Strategy 期权策略。腿只能通过 AddLeg/AddLegWithPremium/RemoveLeg 修改，每次修改使缓存失效
type Strategy struct {
	ID   string
	Name string
	Kind StrategyType

	pricer *pricing.Pricer
	market pricing.MarketState

	mu     sync.RWMutex
	legs   []Leg
	greeks pricing.Greeks
	dirty  bool
}

// NewStrategy 创建空策略，pricer 与 market 用于腿的定价与希腊字母
func NewStrategy(name string, kind StrategyType, pricer *pricing.Pricer, market pricing.MarketState) *Strategy {
	if kind == "" {
		kind = StrategyTypeCustom
	}
	return &Strategy{
		ID:     uuid.NewString(),
		Name:   name,
		Kind:   kind,
		pricer: pricer,
		market: market,
		dirty:  true,
	}
}

func (s *Strategy) Market() pricing.MarketState { return s.market }

// AddLeg 以策略的市场状态定价后追加一条腿
func (s *Strategy) AddLeg(c derivatives.OptionContract, quantity decimal.Decimal, side Side) error {
	c, err := c.Normalize()
	if err != nil {
		return err
	}
	premium, err := s.pricer.PriceAt(c, s.market)
	if err != nil {
		return err
	}
	return s.AddLegWithPremium(c, quantity, side, premium)
}

// AddLegWithPremium 以观察到的权利金追加一条腿
func (s *Strategy) AddLegWithPremium(c derivatives.OptionContract, quantity decimal.Decimal, side Side, premium decimal.Decimal) error {
	c, err := c.Normalize()
	if err != nil {
		return err
	}
	if !quantity.IsPositive() {
		return ErrInvalidQuantity.WithDetail("quantity=%s", quantity)
	}
	if !side.Valid() {
		return ErrInvalidSide.WithDetail("%q", side)
	}
	if premium.IsNegative() {
		return ErrInvalidPremium.WithDetail("premium=%s", premium)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.legs) > 0 && s.legs[0].Contract.Underlying != c.Underlying {
		return derivatives.ErrUnderlyingMismatch.WithDetail("%s in %s strategy", c.Symbol(), s.legs[0].Contract.Underlying)
	}
	s.legs = append(s.legs, Leg{Contract: c, Quantity: quantity, Side: side, Premium: premium})
	s.dirty = true
	return nil
}

// RemoveLeg 按下标删除腿
func (s *Strategy) RemoveLeg(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.legs) {
		return ErrLegNotFound.WithDetail("index %d of %d", index, len(s.legs))
	}
	s.legs = append(s.legs[:index], s.legs[index+1:]...)
	s.dirty = true
	return nil
}

// Legs 返回腿的副本
func (s *Strategy) Legs() []Leg {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Leg(nil), s.legs...)
}

// NetQuantity 带符号数量之和
func (s *Strategy) NetQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Legs() {
		total = total.Add(l.SignedQuantity())
	}
	return total
}

// NetPremium 净权利金，正数为净支出
func (s *Strategy) NetPremium() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Legs() {
		total = total.Add(l.Exposure().Mul(l.Premium))
	}
	return total
}

// NetGreeks 各腿希腊字母按敞口加权求和；结果缓存至下一次修改
func (s *Strategy) NetGreeks() (pricing.Greeks, error) {
	s.mu.RLock()
	if !s.dirty {
		g := s.greeks
		s.mu.RUnlock()
		return g, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return s.greeks, nil
	}
	net := pricing.Greeks{}
	for _, l := range s.legs {
		g, err := s.pricer.Greeks(l.Contract, s.market)
		if err != nil {
			return pricing.Greeks{}, err
		}
		net = net.Add(g.Multiply(l.Exposure()))
	}
	s.greeks = net
	s.dirty = false
	return net, nil
}

// Snapshot 当前腿的不可变快照，可在并发模拟中共享
func (s *Strategy) Snapshot() Snapshot {
	return Snapshot{legs: s.Legs(), pricer: s.pricer, market: s.market}
}

// PayoffAt 到期损益
func (s *Strategy) PayoffAt(price decimal.Decimal) decimal.Decimal {
	return s.Snapshot().PayoffAt(price)
}

// ValueAt 经过 elapsed 年后标的为 price 时的盯市损益
func (s *Strategy) ValueAt(price, elapsed decimal.Decimal) (decimal.Decimal, error) {
	return s.Snapshot().ValueAt(price, elapsed)
}

// Snapshot 策略腿的只读副本
type Snapshot struct {
	legs   []Leg
	pricer *pricing.Pricer
	market pricing.MarketState
}

func (sn Snapshot) Legs() []Leg { return append([]Leg(nil), sn.legs...) }

// PayoffAt Σ 敞口·(内在价值 - 权利金)
func (sn Snapshot) PayoffAt(price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range sn.legs {
		total = total.Add(l.Exposure().Mul(l.Contract.IntrinsicValue(price).Sub(l.Premium)))
	}
	return total
}

// ValueAt 剩余期限为正的腿按模型重新定价，其余按内在价值
func (sn Snapshot) ValueAt(price, elapsed decimal.Decimal) (decimal.Decimal, error) {
	if elapsed.IsNegative() {
		return decimal.Zero, ErrInvalidHorizon.WithDetail("elapsed=%s", elapsed)
	}
	m := sn.market.WithUnderlyingPrice(price)
	total := decimal.Zero
	for _, l := range sn.legs {
		remaining := l.Contract.Expiry.Sub(elapsed)
		value := l.Contract.IntrinsicValue(price)
		if remaining.IsPositive() {
			v, err := sn.pricer.PriceAt(l.Contract.WithExpiry(remaining), m)
			if err != nil {
				return decimal.Zero, err
			}
			value = v
		}
		total = total.Add(l.Exposure().Mul(value.Sub(l.Premium)))
	}
	return total, nil
}
