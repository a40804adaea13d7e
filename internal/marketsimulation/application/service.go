// Package application 蒙特卡洛模拟应用服务：构建策略、运行模拟、保存结果
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	strategyapp "github.com/wyfcoding/optionsengine/internal/strategy/application"
	"github.com/wyfcoding/optionsengine/pkg/config"
	"github.com/wyfcoding/optionsengine/pkg/idgen"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var (
	ErrPathLimit = xerrors.New(xerrors.KindValidation, "PATH_LIMIT_EXCEEDED", "requested paths exceed the configured limit")
	ErrStepLimit = xerrors.New(xerrors.KindValidation, "STEP_LIMIT_EXCEEDED", "requested steps exceed the configured limit")
)

// SimulationService 模拟服务
type SimulationService struct {
	strategies *strategyapp.StrategyService
	engine     *domain.Engine
	repo       domain.RunRepository
	ids        *idgen.Generator
	metrics    *metrics.Metrics
	cfg        config.SimulationConfig
}

func NewSimulationService(
	strategies *strategyapp.StrategyService,
	engine *domain.Engine,
	repo domain.RunRepository,
	ids *idgen.Generator,
	m *metrics.Metrics,
	cfg config.SimulationConfig,
) *SimulationService {
	return &SimulationService{strategies: strategies, engine: engine, repo: repo, ids: ids, metrics: m, cfg: cfg}
}

// Run 运行模拟并保存结果
func (s *SimulationService) Run(ctx context.Context, req RunRequest) (*domain.SimulationRun, error) {
	if req.NumPaths > s.cfg.MaxPaths {
		return nil, ErrPathLimit.WithDetail("num_paths=%d max=%d", req.NumPaths, s.cfg.MaxPaths)
	}
	st, err := s.strategies.Build(ctx, req.Strategy)
	if err != nil {
		return nil, err
	}

	params := req.Process
	if params.InitialPrice.IsZero() {
		params.InitialPrice = st.Market().UnderlyingPrice
	}
	if params.Steps == 0 {
		params.Steps = s.cfg.DefaultSteps
	}
	if params.Steps > s.cfg.MaxSteps {
		return nil, ErrStepLimit.WithDetail("steps=%d max=%d", params.Steps, s.cfg.MaxSteps)
	}
	seed := uint64(time.Now().UnixNano())
	if req.Seed != nil {
		seed = *req.Seed
	}

	start := time.Now()
	result, err := s.engine.Simulate(ctx, st.Snapshot(), params, req.NumPaths, seed)
	elapsed := time.Since(start)
	excluded := 0
	if result != nil {
		excluded = result.Excluded
	}
	s.metrics.RecordSimulation(string(params.Type), req.NumPaths, excluded, elapsed, err)
	if err != nil {
		logger.Warn(ctx, "simulation failed", "strategy", st.Name, "process", params.Type, "paths", req.NumPaths, "seed", seed, "error", err)
		return nil, err
	}

	var histogram []domain.HistogramBin
	if req.HistogramBins != 0 {
		if histogram, err = result.Histogram(req.HistogramBins); err != nil {
			return nil, err
		}
	}
	// 逐路径数据只用于汇总，不随结果保存
	summary := *result
	summary.PnL, summary.TerminalPrices = nil, nil

	run := &domain.SimulationRun{
		ID:         s.ids.NextID(),
		Strategy:   st.Name,
		Parameters: params,
		CreatedAt:  start.UTC(),
		Elapsed:    elapsed,
		Result:     &summary,
		Histogram:  histogram,
	}
	if err := s.repo.Save(ctx, run); err != nil {
		logger.Error(ctx, "failed to save simulation run", "id", run.ID, "error", err)
		return nil, err
	}

	logger.Info(ctx, "simulation completed",
		"id", run.ID, "strategy", st.Name, "process", params.Type,
		"paths", req.NumPaths, "excluded", result.Excluded, "seed", seed,
		"workers", s.engine.Workers(), "elapsed", elapsed)
	return run, nil
}

// Get 查询已保存的模拟结果
func (s *SimulationService) Get(ctx context.Context, id string) (*domain.SimulationRun, error) {
	return s.repo.Get(ctx, id)
}
