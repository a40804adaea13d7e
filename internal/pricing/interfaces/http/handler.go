// Package http 定价 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/pricing/application"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

// PricingHandler 处理定价、希腊字母与隐含波动率请求
type PricingHandler struct {
	service *application.PricingService
}

func NewPricingHandler(service *application.PricingService) *PricingHandler {
	return &PricingHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/pricing")
	{
		g.POST("/price", h.Price)
		g.POST("/greeks", h.Greeks)
		g.POST("/implied-volatility", h.ImpliedVolatility)
		g.POST("/greek-curve", h.GreekCurve)
	}
}

func (h *PricingHandler) Price(c *gin.Context) {
	var req application.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Price(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *PricingHandler) Greeks(c *gin.Context) {
	var req application.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Greeks(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *PricingHandler) ImpliedVolatility(c *gin.Context) {
	var req application.ImpliedVolatilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.ImpliedVolatility(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *PricingHandler) GreekCurve(c *gin.Context) {
	var req application.GreekCurveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.GreekCurve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}
