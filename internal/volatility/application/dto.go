package application

import (
	"github.com/shopspring/decimal"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	"github.com/wyfcoding/optionsengine/internal/volatility/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
)

// CurveEvaluateRequest 由标定点构建曲线并在 Xs 处求值
type CurveEvaluateRequest struct {
	Points        []curves.Point             `json:"points"`
	Method        curves.InterpolationMethod `json:"method"`
	Extrapolation curves.ExtrapolationPolicy `json:"extrapolation"`
	Xs            []decimal.Decimal          `json:"xs"`
	WithRoots     bool                       `json:"with_roots"`
}

// CurveEvaluationDTO 曲线求值结果
type CurveEvaluationDTO struct {
	Curve  *curves.Curve      `json:"curve"`
	Values []decimal.Decimal  `json:"values"`
	Roots  []decimal.Decimal  `json:"roots,omitempty"`
	Domain [2]decimal.Decimal `json:"domain"`
}

// SurfaceEvaluateRequest 由网格点构建曲面并在 Queries 处求值；SliceAt 非空时另返回该 y 处的截面曲线
type SurfaceEvaluateRequest struct {
	Points        []curves.Point3D           `json:"points"`
	Method        curves.SurfaceMethod       `json:"method"`
	Extrapolation curves.ExtrapolationPolicy `json:"extrapolation"`
	Queries       []curves.Point             `json:"queries"`
	SliceAt       *decimal.Decimal           `json:"slice_at,omitempty"`
	SliceMethod   curves.InterpolationMethod `json:"slice_method,omitempty"`
}

// SurfaceEvaluationDTO 曲面求值结果
type SurfaceEvaluationDTO struct {
	Values []decimal.Decimal  `json:"values"`
	Slice  *curves.Curve      `json:"slice,omitempty"`
	Domain [4]decimal.Decimal `json:"domain"`
}

// MarketInput 标定使用的市场参数
type MarketInput struct {
	Spot          decimal.Decimal `json:"spot"`
	Rate          decimal.Decimal `json:"rate"`
	DividendYield decimal.Decimal `json:"dividend_yield"`
}

func (m MarketInput) toDomain() domain.Market {
	return domain.Market{Spot: m.Spot, Rate: m.Rate, DividendYield: m.DividendYield}
}

// SmileCalibrateRequest 单一到期日微笑标定
type SmileCalibrateRequest struct {
	Chain         chains.ChainInput          `json:"chain"`
	Expiry        decimal.Decimal            `json:"expiry"`
	Market        MarketInput                `json:"market"`
	Method        curves.InterpolationMethod `json:"method"`
	Extrapolation curves.ExtrapolationPolicy `json:"extrapolation"`
}

// SmileDTO 微笑标定结果
type SmileDTO struct {
	Expiry  decimal.Decimal     `json:"expiry"`
	Points  []domain.SmilePoint `json:"points"`
	Skipped int                 `json:"skipped"`
	Curve   *curves.Curve       `json:"curve"`
}

// SurfaceCalibrateRequest 全链曲面标定
type SurfaceCalibrateRequest struct {
	Chain         chains.ChainInput          `json:"chain"`
	Market        MarketInput                `json:"market"`
	Method        curves.SurfaceMethod       `json:"method"`
	Extrapolation curves.ExtrapolationPolicy `json:"extrapolation"`
}

// SurfaceDTO 曲面标定结果，Dropped 为无可用报价而剔除的到期日
type SurfaceDTO struct {
	Surface *curves.Surface   `json:"surface"`
	Dropped []decimal.Decimal `json:"dropped,omitempty"`
	Skipped int               `json:"skipped"`
}
