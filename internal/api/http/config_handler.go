package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"xo-arena/internal/config"
)

// @Summary Get engine tuning
// @Description Returns the heuristic weights, depth policy and node budget in use
// @Tags Config
// @Produce json
// @Success 200 {object} ConfigResponse
// @Router /api/config [get]
func GetConfigHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ConfigResponse{
			Weights:  cfg.Weights,
			Depths:   cfg.Depths,
			MaxNodes: cfg.Search.MaxNodes,
		})
	}
}
