// Package application 曲线求值与波动率标定应用服务
package application

import (
	"context"

	"github.com/shopspring/decimal"
	chains "github.com/wyfcoding/optionsengine/internal/derivatives/application"
	derivatives "github.com/wyfcoding/optionsengine/internal/derivatives/domain"
	"github.com/wyfcoding/optionsengine/internal/volatility/domain"
	"github.com/wyfcoding/optionsengine/pkg/curves"
	"github.com/wyfcoding/optionsengine/pkg/logger"
	"github.com/wyfcoding/optionsengine/pkg/metrics"
)

// VolatilityService 波动率服务
type VolatilityService struct {
	chains     *chains.ChainService
	calibrator *domain.Calibrator
	metrics    *metrics.Metrics
}

func NewVolatilityService(chainService *chains.ChainService, calibrator *domain.Calibrator, m *metrics.Metrics) *VolatilityService {
	return &VolatilityService{chains: chainService, calibrator: calibrator, metrics: m}
}

func curveDefaults(method curves.InterpolationMethod, policy curves.ExtrapolationPolicy) (curves.InterpolationMethod, curves.ExtrapolationPolicy) {
	if method == "" {
		method = curves.InterpolationLinear
	}
	if policy == "" {
		policy = curves.ExtrapolationClamp
	}
	return method, policy
}

func surfaceDefaults(method curves.SurfaceMethod, policy curves.ExtrapolationPolicy) (curves.SurfaceMethod, curves.ExtrapolationPolicy) {
	if method == "" {
		method = curves.SurfaceBilinear
	}
	if policy == "" {
		policy = curves.ExtrapolationClamp
	}
	return method, policy
}

// EvaluateCurve 构建曲线并逐点求值
func (s *VolatilityService) EvaluateCurve(ctx context.Context, req CurveEvaluateRequest) (dto *CurveEvaluationDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordCalibration("curve", err) }()

	method, policy := curveDefaults(req.Method, req.Extrapolation)
	curve, err := curves.NewCurve(req.Points, method, policy)
	if err != nil {
		return nil, err
	}
	values := make([]decimal.Decimal, len(req.Xs))
	for i, x := range req.Xs {
		if values[i], err = curve.At(x); err != nil {
			return nil, err
		}
	}
	dto = &CurveEvaluationDTO{Curve: curve, Values: values}
	dto.Domain[0], dto.Domain[1] = curve.Domain()
	if req.WithRoots {
		if dto.Roots, err = curve.Roots(); err != nil {
			return nil, err
		}
	}
	logger.Debug(ctx, "curve evaluated", "method", method, "points", curve.Len(), "queries", len(req.Xs))
	return dto, nil
}

// EvaluateSurface 构建曲面并逐点求值
func (s *VolatilityService) EvaluateSurface(ctx context.Context, req SurfaceEvaluateRequest) (dto *SurfaceEvaluationDTO, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordCalibration("surface", err) }()

	method, policy := surfaceDefaults(req.Method, req.Extrapolation)
	surface, err := curves.NewSurface(req.Points, method, policy)
	if err != nil {
		return nil, err
	}
	values := make([]decimal.Decimal, len(req.Queries))
	for i, q := range req.Queries {
		if values[i], err = surface.At(q.X, q.Y); err != nil {
			return nil, err
		}
	}
	dto = &SurfaceEvaluationDTO{Values: values}
	dto.Domain[0], dto.Domain[1], dto.Domain[2], dto.Domain[3] = surface.Domain()
	if req.SliceAt != nil {
		sliceMethod, _ := curveDefaults(req.SliceMethod, policy)
		if dto.Slice, err = surface.CurveAtY(*req.SliceAt, sliceMethod); err != nil {
			return nil, err
		}
	}
	return dto, nil
}

// CalibrateSmile 由单一到期日报价反解隐含波动率并构建微笑，无法反解的报价计入 Skipped
func (s *VolatilityService) CalibrateSmile(ctx context.Context, req SmileCalibrateRequest) (dto *SmileDTO, err error) {
	chain, err := s.chains.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordCalibration("smile", err) }()

	slice, ok := chain.Slice(req.Expiry)
	if !ok {
		return nil, derivatives.ErrExpiryNotFound.WithDetail("expiry=%s", req.Expiry)
	}
	points, skipped := s.calibrator.SmilePoints(slice, req.Market.toDomain())
	method, policy := curveDefaults(req.Method, req.Extrapolation)
	smile, err := domain.SmileFromPoints(req.Expiry, points, method, policy)
	if err != nil {
		logger.Warn(ctx, "smile calibration failed", "underlying", chain.Underlying(), "expiry", req.Expiry, "solved", len(points), "skipped", skipped, "error", err)
		return nil, err
	}

	logger.Info(ctx, "smile calibrated", "underlying", chain.Underlying(), "expiry", req.Expiry, "solved", len(points), "skipped", skipped)
	return &SmileDTO{Expiry: req.Expiry, Points: points, Skipped: skipped, Curve: smile.Curve()}, nil
}

// CalibrateSurface 以全链报价标定波动率曲面
func (s *VolatilityService) CalibrateSurface(ctx context.Context, req SurfaceCalibrateRequest) (dto *SurfaceDTO, err error) {
	chain, err := s.chains.Build(ctx, req.Chain)
	if err != nil {
		return nil, err
	}
	defer func() { s.metrics.RecordCalibration("surface_calibration", err) }()

	method, policy := surfaceDefaults(req.Method, req.Extrapolation)
	cal, err := s.calibrator.CalibrateSurface(chain, req.Market.toDomain(), method, policy)
	if err != nil {
		logger.Warn(ctx, "surface calibration failed", "underlying", chain.Underlying(), "error", err)
		return nil, err
	}
	logger.Info(ctx, "surface calibrated", "underlying", chain.Underlying(), "expirations", len(chain.Expirations()),
		"dropped", len(cal.Dropped), "skipped", cal.Skipped)
	return &SurfaceDTO{Surface: cal.Volatility.Surface(), Dropped: cal.Dropped, Skipped: cal.Skipped}, nil
}
