package application

import (
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	strategyapp "github.com/wyfcoding/optionsengine/internal/strategy/application"
)

// RunRequest 模拟请求。Process.InitialPrice 为零时取策略市场的标的价格，
// Process.Steps 为零时取配置的默认步数，Seed 为空时按当前时间生成并在结果中返回
type RunRequest struct {
	Strategy      strategyapp.StrategySpec `json:"strategy"`
	Process       domain.ProcessParameters `json:"process"`
	NumPaths      int                      `json:"num_paths"`
	Seed          *uint64                  `json:"seed,omitempty"`
	HistogramBins int                      `json:"histogram_bins"`
}
