package domain

import (
	"fmt"
	"math"
	"sort"

	"github.com/montanaflynn/stats"
)

// percentileLevels 结果中报告的损益分位点
var percentileLevels = []float64{1, 5, 10, 25, 50, 75, 90, 95, 99}

// SimulationResult 一次模拟的损益分布。PnL 与 TerminalPrices 按路径下标顺序排列（已剔除失败路径）
type SimulationResult struct {
	Seed          uint64      `json:"seed"`
	Process       ProcessType `json:"process"`
	NumPaths      int         `json:"num_paths"`
	ValidPaths    int         `json:"valid_paths"`
	Excluded      int         `json:"excluded"`
	ExcludedPaths []int       `json:"excluded_paths,omitempty"`

	PnL            []float64 `json:"-"`
	TerminalPrices []float64 `json:"-"`

	Mean                float64      `json:"mean"`
	StdDev              float64      `json:"std_dev"`
	Min                 float64      `json:"min"`
	Max                 float64      `json:"max"`
	ProbabilityOfProfit float64      `json:"probability_of_profit"`
	Percentiles         []Percentile `json:"percentiles"`

	// VaR/ES 以正数表示亏损
	VaR95 float64 `json:"var_95"`
	VaR99 float64 `json:"var_99"`
	ES95  float64 `json:"es_95"`
	ES99  float64 `json:"es_99"`
}

// Percentile 损益分位值，Level 取 (0, 100]
type Percentile struct {
	Level float64 `json:"level"`
	Value float64 `json:"value"`
}

// Percentile 按分位水平查找已计算的分位值
func (r *SimulationResult) Percentile(level float64) (float64, bool) {
	for _, p := range r.Percentiles {
		if p.Level == level {
			return p.Value, true
		}
	}
	return 0, false
}

func (r *SimulationResult) summarize() error {
	data := stats.Float64Data(r.PnL)

	var err error
	if r.Mean, err = stats.Mean(data); err != nil {
		return fmt.Errorf("mean: %w", err)
	}
	if r.StdDev, err = stats.StandardDeviation(data); err != nil {
		return fmt.Errorf("stddev: %w", err)
	}
	if r.Min, err = stats.Min(data); err != nil {
		return fmt.Errorf("min: %w", err)
	}
	if r.Max, err = stats.Max(data); err != nil {
		return fmt.Errorf("max: %w", err)
	}

	r.Percentiles = make([]Percentile, 0, len(percentileLevels))
	for _, p := range percentileLevels {
		v, err := stats.Percentile(data, p)
		if err != nil {
			return fmt.Errorf("percentile %v: %w", p, err)
		}
		r.Percentiles = append(r.Percentiles, Percentile{Level: p, Value: v})
	}

	profitable := 0
	for _, v := range r.PnL {
		if v > 0 {
			profitable++
		}
	}
	r.ProbabilityOfProfit = float64(profitable) / float64(len(r.PnL))

	sorted := append([]float64(nil), r.PnL...)
	sort.Float64s(sorted)
	r.VaR95, r.ES95 = tailRisk(sorted, 0.05)
	r.VaR99, r.ES99 = tailRisk(sorted, 0.01)
	return nil
}

// tailRisk 在升序损益上取 alpha 分位的 VaR，以及不劣于该分位的尾部平均亏损 ES
func tailRisk(sorted []float64, alpha float64) (valueAtRisk, shortfall float64) {
	idx := int(float64(len(sorted)) * alpha)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	sum := 0.0
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	return -sorted[idx], -sum / float64(idx+1)
}

// HistogramBin 直方图区间 [Lower, Upper)，最后一个区间包含上界
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram 将损益等宽分为 bins 个区间
func (r *SimulationResult) Histogram(bins int) ([]HistogramBin, error) {
	if bins <= 0 {
		return nil, ErrInvalidHistogram.WithDetail("bins=%d", bins)
	}
	if len(r.PnL) == 0 {
		return nil, ErrNoValidPaths
	}
	lo, hi := r.Min, r.Max
	if hi == lo {
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(r.PnL)}}, nil
	}
	width := (hi - lo) / float64(bins)
	out := make([]HistogramBin, bins)
	for i := range out {
		out[i] = HistogramBin{Lower: lo + float64(i)*width, Upper: lo + float64(i+1)*width}
	}
	out[bins-1].Upper = hi
	for _, v := range r.PnL {
		i := int(math.Floor((v - lo) / width))
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}
