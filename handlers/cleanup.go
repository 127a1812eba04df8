package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-stormwatch/engine"
)

// Cleanup triggers one retention sweep. Cloud Scheduler calls it with POST;
// anything else is rejected before any side effect.
func Cleanup(c *gin.Context, sweeper *engine.Sweeper) {
	log.Println("Cleanup trigger received")

	if c.Request.Method != http.MethodPost {
		log.Println("Cleanup received a non-POST request")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
		return
	}

	result, err := sweeper.Sweep(c.Request.Context())
	if err != nil {
		log.Printf("Sweep failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	c.JSON(http.StatusOK, result)
}
