package domain

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"
)

// ChainRow 同一到期日、同一行权价上的看涨与看跌报价
type ChainRow struct {
	Strike decimal.Decimal `json:"strike"`
	Call   *OptionQuote    `json:"call,omitempty"`
	Put    *OptionQuote    `json:"put,omitempty"`
}

// Quote 按期权类型取报价
func (r ChainRow) Quote(t OptionType) (OptionQuote, bool) {
	q := r.Call
	if t == OptionTypePut {
		q = r.Put
	}
	if q == nil {
		return OptionQuote{}, false
	}
	return *q, true
}

// ExpirySlice 单一到期日的行，行权价升序
type ExpirySlice struct {
	Expiry decimal.Decimal `json:"expiry"`
	Rows   []ChainRow      `json:"rows"`
}

// Strikes 返回该到期日的全部行权价
func (s ExpirySlice) Strikes() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Strike
	}
	return out
}

func (s ExpirySlice) row(strike decimal.Decimal) (ChainRow, bool) {
	i := sort.Search(len(s.Rows), func(i int) bool { return s.Rows[i].Strike.GreaterThanOrEqual(strike) })
	if i < len(s.Rows) && s.Rows[i].Strike.Equal(strike) {
		return s.Rows[i], true
	}
	return ChainRow{}, false
}

// OptionChain 单一标的的期权链，按到期日升序分组。构建后不可变，过滤操作返回新链
type OptionChain struct {
	underlying string
	slices     []ExpirySlice
}

// NewOptionChain 由合约列表构建期权链
func NewOptionChain(underlying string, contracts []OptionContract) (*OptionChain, error) {
	quotes := make([]OptionQuote, len(contracts))
	for i, c := range contracts {
		quotes[i] = OptionQuote{Contract: c}
	}
	return NewOptionChainFromQuotes(underlying, quotes)
}

// NewOptionChainFromQuotes 由报价快照构建期权链。
// 重复按 (到期日, 行权价, 类型) 判定：同一行权价的看涨与看跌合并为一个 ChainRow，不算重复；
// 同一槽位出现第二个合约（行权价与到期日按数值比较）返回 ErrDuplicateStrike。
func NewOptionChainFromQuotes(underlying string, quotes []OptionQuote) (*OptionChain, error) {
	if underlying == "" {
		return nil, ErrInvalidUnderlying
	}

	byExpiry := make(map[string]*ExpirySlice)
	rowIndex := make(map[string]map[string]int)
	for i := range quotes {
		q := quotes[i]
		c, err := q.Contract.Normalize()
		if err != nil {
			return nil, err
		}
		q.Contract = c
		if c.Underlying != underlying {
			return nil, ErrUnderlyingMismatch.WithDetail("%s in %s chain", c.Symbol(), underlying)
		}
		if err := q.validate(); err != nil {
			return nil, err
		}

		ek, sk := c.Expiry.String(), c.Strike.String()
		slice, ok := byExpiry[ek]
		if !ok {
			slice = &ExpirySlice{Expiry: c.Expiry}
			byExpiry[ek] = slice
			rowIndex[ek] = make(map[string]int)
		}
		idx, ok := rowIndex[ek][sk]
		if !ok {
			slice.Rows = append(slice.Rows, ChainRow{Strike: c.Strike})
			idx = len(slice.Rows) - 1
			rowIndex[ek][sk] = idx
		}
		row := &slice.Rows[idx]
		slot := &row.Call
		if c.OptionType == OptionTypePut {
			slot = &row.Put
		}
		if *slot != nil {
			return nil, ErrDuplicateStrike.WithDetail("%s %s at expiry %s", c.OptionType, sk, ek)
		}
		*slot = &q
	}

	chain := &OptionChain{underlying: underlying, slices: make([]ExpirySlice, 0, len(byExpiry))}
	for _, s := range byExpiry {
		sort.Slice(s.Rows, func(a, b int) bool { return s.Rows[a].Strike.LessThan(s.Rows[b].Strike) })
		chain.slices = append(chain.slices, *s)
	}
	sort.Slice(chain.slices, func(a, b int) bool { return chain.slices[a].Expiry.LessThan(chain.slices[b].Expiry) })
	return chain, nil
}

func (oc *OptionChain) Underlying() string { return oc.underlying }

// Len 链中合约总数
func (oc *OptionChain) Len() int {
	n := 0
	for _, s := range oc.slices {
		for _, r := range s.Rows {
			if r.Call != nil {
				n++
			}
			if r.Put != nil {
				n++
			}
		}
	}
	return n
}

// Expirations 到期日升序列表
func (oc *OptionChain) Expirations() []decimal.Decimal {
	out := make([]decimal.Decimal, len(oc.slices))
	for i, s := range oc.slices {
		out[i] = s.Expiry
	}
	return out
}

// Slices 返回全部到期日分组的副本
func (oc *OptionChain) Slices() []ExpirySlice {
	out := make([]ExpirySlice, len(oc.slices))
	for i, s := range oc.slices {
		out[i] = ExpirySlice{Expiry: s.Expiry, Rows: append([]ChainRow(nil), s.Rows...)}
	}
	return out
}

// Slice 取某一到期日的分组
func (oc *OptionChain) Slice(expiry decimal.Decimal) (ExpirySlice, bool) {
	i := sort.Search(len(oc.slices), func(i int) bool { return oc.slices[i].Expiry.GreaterThanOrEqual(expiry) })
	if i < len(oc.slices) && oc.slices[i].Expiry.Equal(expiry) {
		s := oc.slices[i]
		return ExpirySlice{Expiry: s.Expiry, Rows: append([]ChainRow(nil), s.Rows...)}, true
	}
	return ExpirySlice{}, false
}

// Lookup 按 (到期日, 行权价) 查找行
func (oc *OptionChain) Lookup(expiry, strike decimal.Decimal) (ChainRow, bool) {
	s, ok := oc.Slice(expiry)
	if !ok {
		return ChainRow{}, false
	}
	return s.row(strike)
}

// Contract 按 (到期日, 行权价, 类型) 查找合约
func (oc *OptionChain) Contract(expiry, strike decimal.Decimal, t OptionType) (OptionContract, error) {
	row, ok := oc.Lookup(expiry, strike)
	if !ok {
		return OptionContract{}, ErrOptionContractNotFound.WithDetail("expiry=%s strike=%s", expiry, strike)
	}
	q, ok := row.Quote(t)
	if !ok {
		return OptionContract{}, ErrOptionContractNotFound.WithDetail("expiry=%s strike=%s type=%s", expiry, strike, t)
	}
	return q.Contract, nil
}

// FilterByMoneyness 保留 min <= K/S <= max 的行，返回新链；过滤后为空的到期日被移除
func (oc *OptionChain) FilterByMoneyness(spot, lower, upper decimal.Decimal) (*OptionChain, error) {
	if !spot.IsPositive() {
		return nil, ErrInvalidSpot.WithDetail("spot=%s", spot)
	}
	if lower.GreaterThan(upper) {
		return nil, ErrInvalidMoneynessRange.WithDetail("[%s, %s]", lower, upper)
	}

	out := &OptionChain{underlying: oc.underlying}
	for _, s := range oc.slices {
		var rows []ChainRow
		for _, r := range s.Rows {
			m := r.Strike.Div(spot)
			if m.GreaterThanOrEqual(lower) && m.LessThanOrEqual(upper) {
				rows = append(rows, r)
			}
		}
		if len(rows) > 0 {
			out.slices = append(out.slices, ExpirySlice{Expiry: s.Expiry, Rows: rows})
		}
	}
	return out, nil
}

// AtmStrike 返回某到期日最接近 spot 的行权价，距离相同取较低者
func (oc *OptionChain) AtmStrike(expiry, spot decimal.Decimal) (decimal.Decimal, error) {
	if !spot.IsPositive() {
		return decimal.Zero, ErrInvalidSpot.WithDetail("spot=%s", spot)
	}
	s, ok := oc.Slice(expiry)
	if !ok || len(s.Rows) == 0 {
		return decimal.Zero, ErrExpiryNotFound.WithDetail("expiry=%s", expiry)
	}
	atm := s.Rows[0].Strike
	minDiff := atm.Sub(spot).Abs()
	for _, r := range s.Rows[1:] {
		diff := r.Strike.Sub(spot).Abs()
		if diff.LessThan(minDiff) {
			minDiff = diff
			atm = r.Strike
		}
	}
	return atm, nil
}

// Quotes 按到期日、行权价、看涨先于看跌的顺序返回全部报价
func (oc *OptionChain) Quotes() []OptionQuote {
	var out []OptionQuote
	for _, s := range oc.slices {
		for _, r := range s.Rows {
			if r.Call != nil {
				out = append(out, *r.Call)
			}
			if r.Put != nil {
				out = append(out, *r.Put)
			}
		}
	}
	return out
}

type chainJSON struct {
	Underlying  string        `json:"underlying"`
	Expirations []ExpirySlice `json:"expirations"`
}

func (oc *OptionChain) MarshalJSON() ([]byte, error) {
	return json.Marshal(chainJSON{Underlying: oc.underlying, Expirations: oc.slices})
}
