package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-stormwatch/engine"
	"go-stormwatch/handlers"
	"go-stormwatch/notify"
	"go-stormwatch/stats"
	"go-stormwatch/store"
)

func SetupRouter(st store.Store, ingestor *engine.Ingestor, sweeper *engine.Sweeper, purger *engine.Purger, recorder *stats.Recorder, sender *notify.Sender) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, welcome to Stormwatch!",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// The scheduler posts here; the method check inside rejects everything
	// else without side effects.
	r.Any("/api/cleanup", func(c *gin.Context) {
		handlers.Cleanup(c, sweeper)
	})

	// api routes
	api := r.Group("/api/stormwatch")
	{
		api.POST("/alerts", func(c *gin.Context) {
			handlers.IngestAlert(c, ingestor)
		})
		api.GET("/buckets", func(c *gin.Context) {
			handlers.ListBuckets(c, st)
		})
		api.POST("/purge/bucket", func(c *gin.Context) {
			handlers.PurgeBucket(c, purger)
		})
		api.POST("/purge/alert", func(c *gin.Context) {
			handlers.PurgeAlert(c, purger)
		})
		api.POST("/notifications", func(c *gin.Context) {
			handlers.Notify(c, recorder, sender)
		})
	}

	return r
}
