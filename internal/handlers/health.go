package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "FlowTrack is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
