package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/optionsengine/pkg/xerrors"
)

var ErrRunNotFound = xerrors.New(xerrors.KindNotFound, "RUN_NOT_FOUND", "simulation run not found")

// SimulationRun 一次已完成的模拟及其统计结果，原始路径数据不保存
type SimulationRun struct {
	ID         string            `json:"id"`
	Strategy   string            `json:"strategy"`
	Parameters ProcessParameters `json:"parameters"`
	CreatedAt  time.Time         `json:"created_at"`
	Elapsed    time.Duration     `json:"elapsed_ns"`
	Result     *SimulationResult `json:"result"`
	Histogram  []HistogramBin    `json:"histogram,omitempty"`
}

// RunRepository 模拟结果存储
type RunRepository interface {
	Save(ctx context.Context, run *SimulationRun) error
	// Get 不存在时返回 ErrRunNotFound
	Get(ctx context.Context, id string) (*SimulationRun, error)
}
