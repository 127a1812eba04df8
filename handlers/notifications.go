package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-stormwatch/notify"
	"go-stormwatch/stats"
	"go-stormwatch/types"
)

// Notify records an official citizen notification in the yearly statistics
// and fans it out to registered devices. Fan-out problems are logged but do
// not fail the request; the statistics update is the part that must land.
func Notify(c *gin.Context, recorder *stats.Recorder, sender *notify.Sender) {
	var n types.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if n.Phenomenon == "" || n.Timestamp == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phenomenon and timestamp are required"})
		return
	}

	if err := recorder.RecordNotification(c.Request.Context(), n); err != nil {
		log.Printf("Recording notification statistics failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	if sender != nil {
		if err := sender.Send(c.Request.Context(), n); err != nil {
			log.Printf("Error sending notifications: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
