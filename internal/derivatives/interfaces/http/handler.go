// Package http 期权链 HTTP 接口
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/derivatives/application"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

type Handler struct {
	service *application.ChainService
}

func NewHandler(service *application.ChainService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/chains")
	{
		g.POST("/summary", h.Summary)
		g.POST("/filter", h.Filter)
		g.POST("/atm", h.Atm)
		g.POST("/lookup", h.Lookup)
	}
}

func (h *Handler) Summary(c *gin.Context) {
	var req application.ChainInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	dto, err := h.service.Summary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto)
}

func (h *Handler) Filter(c *gin.Context) {
	var req application.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	chain, err := h.service.Filter(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, chain)
}

func (h *Handler) Atm(c *gin.Context) {
	var req application.AtmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	row, err := h.service.Atm(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}

func (h *Handler) Lookup(c *gin.Context) {
	var req application.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	row, err := h.service.Lookup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, row)
}
