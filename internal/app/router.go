package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"relaybot.io/relaybot/internal/api/handlers"
	"relaybot.io/relaybot/internal/api/middleware"
	"relaybot.io/relaybot/internal/config"
)

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	v1.GET("/health", server.HandleHealth)

	// The webhook is authenticated with the shared relay secret. The
	// relay client is the only caller, so no CORS here.
	v1.POST("/messages", middleware.WebhookAuth(cfg.Bot.WebhookSecret), server.HandleMessage)

	// Read-only stats for dashboards; browser clients need CORS.
	statsGroup := v1.Group("/rooms")
	if len(cfg.Server.CORSOrigins) > 0 {
		statsGroup.Use(cors.New(cors.Config{
			AllowOrigins: cfg.Server.CORSOrigins,
			AllowMethods: []string{"GET", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	statsGroup.GET("/stats", server.HandleRoomTotals)
	statsGroup.GET("/:roomID/stats", server.HandleRoomStats)

	return router
}
