package domain

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidPathCount = xerrors.New(xerrors.KindValidation, "INVALID_PATH_COUNT", "path count must be positive")
	ErrInvalidHistogram = xerrors.New(xerrors.KindValidation, "INVALID_HISTOGRAM", "histogram bin count must be positive")
	ErrNoValidPaths     = xerrors.New(xerrors.KindDomain, "NO_VALID_PATHS", "every simulated path failed evaluation")
)

// Evaluator 给出经过 elapsed 年、标的价格为 price 时的损益。实现必须可并发调用
type Evaluator interface {
	ValueAt(price, elapsed decimal.Decimal) (decimal.Decimal, error)
}

// Engine 蒙特卡洛引擎，workers 为并发上限
type Engine struct {
	workers int
}

// NewEngine workers <= 0 时取 GOMAXPROCS
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{workers: workers}
}

func (e *Engine) Workers() int { return e.workers }

// pathOutcome 单条路径的结果，按路径下标写入缓冲区
type pathOutcome struct {
	terminal float64
	pnl      float64
	err      error
}

// Simulate 生成 numPaths 条路径并在每条路径终点评估 ev。
// 路径 i 的随机源只由 (seed, i) 决定，结果按下标合并，与 workers 数量无关。
// ctx 取消时各工作协程在下一条路径前退出，返回 ctx 的错误。
func (e *Engine) Simulate(ctx context.Context, ev Evaluator, params ProcessParameters, numPaths int, seed uint64) (*SimulationResult, error) {
	if numPaths <= 0 {
		return nil, ErrInvalidPathCount.WithDetail("numPaths=%d", numPaths)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	outcomes := make([]pathOutcome, numPaths)
	workers := min(e.workers, numPaths)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			for i := w; i < numPaths; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = runPath(ev, params, seed, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(params, seed, outcomes)
}

func runPath(ev Evaluator, params ProcessParameters, seed uint64, index int) pathOutcome {
	gen := params.newGenerator(substream(seed, index))
	dt := params.Horizon.InexactFloat64() / float64(params.Steps)

	price := params.InitialPrice.InexactFloat64()
	for range params.Steps {
		price = gen.Next(price, dt)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return pathOutcome{terminal: price, err: fmt.Errorf("path %d: non-finite terminal price %v", index, price)}
	}

	v, err := ev.ValueAt(decimal.NewFromFloat(price), params.Horizon)
	if err != nil {
		return pathOutcome{terminal: price, err: fmt.Errorf("path %d: %w", index, err)}
	}
	return pathOutcome{terminal: price, pnl: v.InexactFloat64()}
}

func aggregate(params ProcessParameters, seed uint64, outcomes []pathOutcome) (*SimulationResult, error) {
	res := &SimulationResult{
		Seed:     seed,
		Process:  params.Type,
		NumPaths: len(outcomes),
	}
	var firstErr error
	for i, o := range outcomes {
		if o.err != nil {
			res.ExcludedPaths = append(res.ExcludedPaths, i)
			if firstErr == nil {
				firstErr = o.err
			}
			continue
		}
		res.PnL = append(res.PnL, o.pnl)
		res.TerminalPrices = append(res.TerminalPrices, o.terminal)
	}
	res.Excluded = len(res.ExcludedPaths)
	res.ValidPaths = len(res.PnL)
	if res.ValidPaths == 0 {
		return nil, ErrNoValidPaths.Wrap(firstErr)
	}
	if err := res.summarize(); err != nil {
		return nil, err
	}
	return res, nil
}
