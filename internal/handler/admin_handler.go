package handler

import (
	"net/http"

	"fest-ticketing/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	stats service.StatsService
}

func NewAdminHandler(stats service.StatsService) *AdminHandler {
	return &AdminHandler{stats: stats}
}

func (h *AdminHandler) RegisterRoutes(api *gin.RouterGroup, requireAuth, requireAdmin gin.HandlerFunc) {
	router := api.Group("/admin", requireAuth, requireAdmin)
	{
		router.GET("stats", h.Stats)
	}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.stats.GetAdminStats(c.Request.Context(), identity(c))
	if err != nil {
		respondError(c, err, "Stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
