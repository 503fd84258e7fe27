package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck responds to liveness probes.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error": false, "message": "ok"})
}

func Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Travel Tales API",
		"version": "0.1.0",
		"status":  "operational",
	})
}
