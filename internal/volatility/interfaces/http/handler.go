// Package http 曲线与波动率 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/volatility/application"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

type VolatilityHandler struct {
	service *application.VolatilityService
}

func NewVolatilityHandler(service *application.VolatilityService) *VolatilityHandler {
	return &VolatilityHandler{service: service}
}

func (h *VolatilityHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/volatility")
	{
		g.POST("/curve/evaluate", h.EvaluateCurve)
		g.POST("/surface/evaluate", h.EvaluateSurface)
		g.POST("/smile/calibrate", h.CalibrateSmile)
		g.POST("/surface/calibrate", h.CalibrateSurface)
	}
}

func (h *VolatilityHandler) EvaluateCurve(c *gin.Context) {
	var req application.CurveEvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.EvaluateCurve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *VolatilityHandler) EvaluateSurface(c *gin.Context) {
	var req application.SurfaceEvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.EvaluateSurface(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *VolatilityHandler) CalibrateSmile(c *gin.Context) {
	var req application.SmileCalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.CalibrateSmile(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *VolatilityHandler) CalibrateSurface(c *gin.Context) {
	var req application.SurfaceCalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.CalibrateSurface(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}
