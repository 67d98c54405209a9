package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"xo-arena/internal/api/ws"
	"xo-arena/internal/config"
	"xo-arena/internal/logging"
	"xo-arena/internal/room"
)

func SetupRouter(rm *room.Manager, solver MoveSolver, hub *ws.Hub, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket for the JSON action protocol
	r.GET("/ws", hub.HandleWS)

	api := r.Group("/api")

	// --- ENGINE ---
	api.POST("/ai/move", RateLimit(cfg.RatePerSec, cfg.RateBurst), MoveRequestHandler(solver))

	// --- GAME ENDPOINTS ---
	api.POST("/games", CreateGameHandler(rm))
	api.GET("/games/:id", GetGameHandler(rm))
	api.POST("/games/:id/move", GameMoveHandler(rm))
	api.POST("/games/:id/computer-move", ComputerMoveHandler(rm))
	api.POST("/games/:id/restart", RestartGameHandler(rm))

	// --- CONFIG ---
	api.GET("/config", GetConfigHandler(cfg))

	return r
}

// RateLimit is a process-wide token bucket; a non-positive rate disables it.
func RateLimit(perSec float64, burst int) gin.HandlerFunc {
	if perSec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}
	lim := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(c *gin.Context) {
		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many move requests"})
			return
		}
		c.Next()
	}
}
