package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-stormwatch/engine"
	"go-stormwatch/store"
	"go-stormwatch/types"
)

// IngestAlert handles one citizen alert submission and files it into its
// aggregation bucket. Malformed or un-geocodable events are acknowledged and
// dropped; only store unavailability is a server error, so the trigger can
// redeliver.
func IngestAlert(c *gin.Context, ingestor *engine.Ingestor) {
	var ev types.AlertEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := ingestor.Ingest(c.Request.Context(), ev)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListBuckets returns the full aggregation snapshot for operators.
func ListBuckets(c *gin.Context, st store.Store) {
	buckets, err := st.ListBuckets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	if buckets == nil {
		buckets = []types.Bucket{}
	}
	c.JSON(http.StatusOK, gin.H{"buckets": buckets})
}
