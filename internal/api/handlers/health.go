package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHealth processes GET /api/v1/health.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"workers": s.pools.Metrics(),
	})
}
