package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"go-stormwatch/config"
	"go-stormwatch/cronjobs"
	"go-stormwatch/engine"
	"go-stormwatch/geocode"
	"go-stormwatch/notify"
	"go-stormwatch/observability"
	"go-stormwatch/routes"
	"go-stormwatch/stats"
	"go-stormwatch/store"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx := context.Background()

	// Pick the store backend. Without Firebase credentials the service runs
	// on the in-memory store, which is enough for local development.
	var st store.Store
	var sender *notify.Sender
	if cfg.FirebaseCredentials != "" {
		app, err := store.NewApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseDatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		fb, err := store.NewFirebase(ctx, app)
		if err != nil {
			log.Fatalf("Failed to initialize Realtime Database store: %v", err)
		}
		st = fb

		msg, err := app.Messaging(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Messaging: %v", err)
		}
		sender = notify.NewSender(fb, msg)
	} else {
		log.Println("FIREBASE_CREDENTIALS not set, using in-memory store")
		st = store.NewMemory()
	}

	// The maps client is created lazily on the first geocode; warn early if
	// the key is missing so ingestion failures are no surprise.
	if cfg.MapsAPIKey == "" {
		log.Println("MAPS_CREDENTIALS not set, ingestion will drop every alert")
	}

	metrics := observability.NewMetrics()
	ingestor := engine.NewIngestor(st, geocode.NewClient(), metrics, cfg.GeocodeTimeout, cfg.StoreTimeout)
	sweeper := engine.NewSweeper(st, clockwork.NewRealClock(), metrics, cfg.RetentionWindow)
	purger := engine.NewPurger(st, metrics)
	recorder := stats.NewRecorder(st)

	// Initialize cron jobs
	cronjobs.InitCronJobs(sweeper, cfg.SweepCron)

	r := routes.SetupRouter(st, ingestor, sweeper, purger, recorder, sender)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
