// Package http 策略 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/strategy/application"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

type StrategyHandler struct {
	service *application.StrategyService
}

func NewStrategyHandler(service *application.StrategyService) *StrategyHandler {
	return &StrategyHandler{service: service}
}

func (h *StrategyHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/strategies")
	{
		g.POST("/analyze", h.Analyze)
		g.POST("/value", h.Value)
		g.POST("/optimize", h.Optimize)
	}
}

func (h *StrategyHandler) Analyze(c *gin.Context) {
	var req application.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *StrategyHandler) Value(c *gin.Context) {
	var req application.ValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Value(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *StrategyHandler) Optimize(c *gin.Context) {
	var req application.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Optimize(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}
