package domain

import (
	"github.com/shopspring/decimal"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	pricing "github.com/wyfcoding/optionsengine/internal/pricing/domain"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

const maxCombinations = 200000

var (
	ErrInvalidOptimalSide = xerrors.New(xerrors.KindValidation, "INVALID_OPTIMAL_SIDE", "side must be UPPER, LOWER, ALL or CENTER")
	ErrInvalidCriteria    = xerrors.New(xerrors.KindValidation, "INVALID_CRITERIA", "criteria must be RATIO or AREA")
	ErrSearchTooLarge     = xerrors.New(xerrors.KindValidation, "SEARCH_TOO_LARGE", "too many strike combinations")
	ErrNotOptimizable     = xerrors.New(xerrors.KindDomain, "NOT_OPTIMIZABLE", "template spans several expiries")
	ErrNoValidCombination = xerrors.New(xerrors.KindDomain, "NO_VALID_COMBINATION", "no strike combination has usable quotes")
)

// OptimalSide 候选行权价相对标的价格的范围：UPPER 取行权价不低于标的，LOWER 取不高于标的，
// CENTER 要求组合行权价跨越标的，单行权价模板取平值
type OptimalSide string

const (
	OptimalSideUpper  OptimalSide = "UPPER"
	OptimalSideLower  OptimalSide = "LOWER"
	OptimalSideAll    OptimalSide = "ALL"
	OptimalSideCenter OptimalSide = "CENTER"
)

// OptimizationCriteria 优化目标
type OptimizationCriteria string

const (
	CriteriaRatio OptimizationCriteria = "RATIO"
	CriteriaArea  OptimizationCriteria = "AREA"
)

// OptimizeParams 最优腿搜索参数
type OptimizeParams struct {
	Kind     StrategyType         `json:"kind"`
	Expiry   decimal.Decimal      `json:"expiry"`
	Side     OptimalSide          `json:"side"`
	Criteria OptimizationCriteria `json:"criteria"`
	Quantity decimal.Decimal      `json:"quantity"`
}

// Optimum 搜索结果
type Optimum struct {
	Strategy  *Strategy
	Strikes   []decimal.Decimal
	Score     decimal.Decimal
	Evaluated int
}

// BestLegs 在 expiry 的链行上枚举模板所需的行权价组合，多头按卖价、空头按买价建仓，
// 返回 Criteria 得分最高的组合。面积统一在 [0, 2·链上最高行权价] 上计算以便比较。
func BestLegs(chain *derivatives.OptionChain, p OptimizeParams, pricer *pricing.Pricer, market pricing.MarketState) (*Optimum, error) {
	legs, ok := templates[p.Kind]
	if !ok {
		return nil, ErrUnknownTemplate.WithDetail("%q", p.Kind)
	}
	if n, _ := ExpiriesRequired(p.Kind); n > 1 {
		return nil, ErrNotOptimizable.WithDetail("%s", p.Kind)
	}
	if p.Criteria != CriteriaRatio && p.Criteria != CriteriaArea {
		return nil, ErrInvalidCriteria.WithDetail("%q", p.Criteria)
	}
	if p.Quantity.IsZero() {
		p.Quantity = decimal.NewFromInt(1)
	}
	slice, ok := chain.Slice(p.Expiry)
	if !ok {
		return nil, derivatives.ErrExpiryNotFound.WithDetail("expiry=%s", p.Expiry)
	}
	need, _ := StrikesRequired(p.Kind)
	rows, err := candidateRows(chain, slice, p.Side, market.UnderlyingPrice, need)
	if err != nil {
		return nil, err
	}
	if c := combinations(len(rows), need); c > maxCombinations {
		return nil, ErrSearchTooLarge.WithDetail("%d strikes choose %d", len(rows), need)
	}
	area := defaultRange(slice.Strikes())

	var best *Optimum
	evaluated := 0
	idx := make([]int, need)
	var walk func(pos, start int)
	walk = func(pos, start int) {
		if pos == need {
			picked := make([]derivatives.ChainRow, need)
			for i, j := range idx {
				picked[i] = rows[j]
			}
			if p.Side == OptimalSideCenter && need > 1 && !straddlesSpot(picked, market.UnderlyingPrice) {
				return
			}
			st, ok := quotedStrategy(p.Kind, legs, picked, p.Quantity, pricer, market)
			if !ok {
				return
			}
			score, err := st.score(p.Criteria, area)
			if err != nil {
				return
			}
			evaluated++
			if best == nil || score.GreaterThan(best.Score) {
				strikes := make([]decimal.Decimal, need)
				for i, r := range picked {
					strikes[i] = r.Strike
				}
				best = &Optimum{Strategy: st, Strikes: strikes, Score: score}
			}
			return
		}
		for j := start; j < len(rows); j++ {
			idx[pos] = j
			walk(pos+1, j+1)
		}
	}
	walk(0, 0)

	if best == nil {
		return nil, ErrNoValidCombination.WithDetail("%s at expiry %s", p.Kind, p.Expiry)
	}
	best.Evaluated = evaluated
	return best, nil
}

func (s *Strategy) score(c OptimizationCriteria, r PriceRange) (decimal.Decimal, error) {
	if c == CriteriaArea {
		return s.ProfitArea(r)
	}
	return s.ProfitRatio()
}

// candidateRows 按 side 过滤链行。CENTER 下单行权价模板只保留平值行
func candidateRows(chain *derivatives.OptionChain, slice derivatives.ExpirySlice, side OptimalSide, spot decimal.Decimal, need int) ([]derivatives.ChainRow, error) {
	var keep func(k decimal.Decimal) bool
	switch side {
	case OptimalSideAll, "":
		keep = func(decimal.Decimal) bool { return true }
	case OptimalSideUpper:
		keep = func(k decimal.Decimal) bool { return k.GreaterThanOrEqual(spot) }
	case OptimalSideLower:
		keep = func(k decimal.Decimal) bool { return k.LessThanOrEqual(spot) }
	case OptimalSideCenter:
		if need > 1 {
			keep = func(decimal.Decimal) bool { return true }
			break
		}
		atm, err := chain.AtmStrike(slice.Expiry, spot)
		if err != nil {
			return nil, err
		}
		keep = func(k decimal.Decimal) bool { return k.Equal(atm) }
	default:
		return nil, ErrInvalidOptimalSide.WithDetail("%q", side)
	}

	out := make([]derivatives.ChainRow, 0, len(slice.Rows))
	for _, r := range slice.Rows {
		if keep(r.Strike) {
			out = append(out, r)
		}
	}
	return out, nil
}

func straddlesSpot(rows []derivatives.ChainRow, spot decimal.Decimal) bool {
	return rows[0].Strike.LessThanOrEqual(spot) && rows[len(rows)-1].Strike.GreaterThanOrEqual(spot)
}

// quotedStrategy 以链上报价建仓；所需一侧报价缺失或为零时 ok 为 false
func quotedStrategy(kind StrategyType, legs []templateLeg, rows []derivatives.ChainRow, quantity decimal.Decimal, pricer *pricing.Pricer, market pricing.MarketState) (*Strategy, bool) {
	st := NewStrategy(string(kind), kind, pricer, market)
	for _, tl := range legs {
		q, ok := rows[tl.strike].Quote(tl.ot)
		if !ok {
			return nil, false
		}
		px := q.Ask
		if tl.side == SideShort {
			px = q.Bid
		}
		if !px.Valid || !px.Decimal.IsPositive() {
			return nil, false
		}
		if err := st.AddLegWithPremium(q.Contract, quantity.Mul(decimal.NewFromInt(tl.ratio)), tl.side, px.Decimal); err != nil {
			return nil, false
		}
	}
	return st, true
}

// combinations C(n, k)，超过 maxCombinations 时提前截断
func combinations(n, k int) int {
	if k > n {
		return 0
	}
	c := 1
	for i := 1; i <= k; i++ {
		c = c * (n - k + i) / i
		if c > maxCombinations {
			return c
		}
	}
	return c
}
