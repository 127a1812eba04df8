package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-stormwatch/engine"
	"go-stormwatch/types"
)

type purgeBucketRequest struct {
	Phenomenon types.Phenomenon `json:"phenomenon" binding:"required"`
	LocationID string           `json:"locationId" binding:"required"`
}

type purgeAlertRequest struct {
	Phenomenon types.Phenomenon `json:"phenomenon" binding:"required"`
	LocationID string           `json:"locationId" binding:"required"`
	AlertID    string           `json:"alertId" binding:"required"`
}

// PurgeBucket removes every alert for a phenomenon at a place.
func PurgeBucket(c *gin.Context, purger *engine.Purger) {
	var req purgeBucketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.PurgeResult{Success: false, Message: "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, purger.PurgeBucket(c.Request.Context(), req.Phenomenon, req.LocationID))
}

// PurgeAlert removes a single alert from a bucket.
func PurgeAlert(c *gin.Context, purger *engine.Purger) {
	var req purgeAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.PurgeResult{Success: false, Message: "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, purger.PurgeMember(c.Request.Context(), req.Phenomenon, req.LocationID, req.AlertID))
}
