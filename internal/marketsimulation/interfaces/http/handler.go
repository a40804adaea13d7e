// Package http 蒙特卡洛模拟 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionsengine/internal/marketsimulation/application"
	"github.com/wyfcoding/optionsengine/pkg/response"
)

type Handler struct {
	service *application.SimulationService
}

func NewHandler(service *application.SimulationService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/simulations")
	{
		g.POST("", h.Run)
		g.GET("/:id", h.Get)
	}
}

func (h *Handler) Run(c *gin.Context) {
	var req application.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	run, err := h.service.Run(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func (h *Handler) Get(c *gin.Context) {
	run, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, run)
}
