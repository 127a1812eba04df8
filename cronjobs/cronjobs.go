package cronjobs

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"go-stormwatch/engine"
)

// InitCronJobs schedules the retention sweep. The sweep is idempotent, so an
// overlap with an operator-triggered HTTP sweep is harmless.
func InitCronJobs(sweeper *engine.Sweeper, spec string) *cron.Cron {
	log.Println("\nStarting Cron Jobs -------------------------------------------------------")
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		log.Println("\nCronJob: Retention Sweep Running")
		if _, err := sweeper.Sweep(context.Background()); err != nil {
			log.Println("Error running retention sweep:", err)
		}
	})
	if err != nil {
		log.Println("Error scheduling Retention Sweep:", err)
	}

	c.Start()
	return c
}
