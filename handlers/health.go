package handlers

import (
	"net/http"

	"taskmaster/utils"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"message":  "Task Master companion is running",
		"services": utils.GetHealthStatus(),
	})
}
