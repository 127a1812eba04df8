package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"go-stormwatch/bucketkey"
	"go-stormwatch/observability"
	"go-stormwatch/store"
	"go-stormwatch/types"
)

// Geocoder turns submission coordinates into a place name and bounding box.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, types.Bounds, error)
}

// athensTZ renders the client-facing display time. The service's deployment
// region is Greece.
var athensTZ = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Athens")
	if err != nil {
		return time.FixedZone("EET", 2*60*60)
	}
	return loc
}()

// Ingestor files each submitted alert into its (phenomenon, place) bucket.
// Events are processed at-least-once by the trigger, so everything here is
// idempotent per formID. A malformed or un-geocodable event is dropped with a
// logged reason; there is no retry queue.
type Ingestor struct {
	store          store.Store
	geocoder       Geocoder
	metrics        *observability.Metrics
	geocodeTimeout time.Duration
	storeTimeout   time.Duration
}

func NewIngestor(st store.Store, gc Geocoder, m *observability.Metrics, geocodeTimeout, storeTimeout time.Duration) *Ingestor {
	return &Ingestor{
		store:          st,
		geocoder:       gc,
		metrics:        m,
		geocodeTimeout: geocodeTimeout,
		storeTimeout:   storeTimeout,
	}
}

// Ingest validates, geocodes, and stores one alert event. The returned
// result says whether the alert landed in a bucket and why not otherwise;
// only store unavailability is returned as an error, for the trigger runtime
// to retry on its own terms.
func (in *Ingestor) Ingest(ctx context.Context, ev types.AlertEvent) (types.IngestResult, error) {
	if ev.FormID == "" || ev.Location == nil || ev.Phenomenon == "" {
		log.Printf("Dropping alert form %q: missing location or phenomenon", ev.FormID)
		in.metrics.AlertsDropped.WithLabelValues("validation").Inc()
		return types.IngestResult{Stored: false, Reason: "missing location or phenomenon", FormID: ev.FormID}, nil
	}

	gctx, cancel := context.WithTimeout(ctx, in.geocodeTimeout)
	defer cancel()
	place, bounds, err := in.geocoder.ReverseGeocode(gctx, ev.Location.Latitude, ev.Location.Longitude)
	if err != nil {
		// The alert is permanently lost to aggregation; accepted trade-off.
		log.Printf("Dropping alert form %s: geocoding failed: %v", ev.FormID, err)
		in.metrics.AlertsDropped.WithLabelValues("geocode").Inc()
		in.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return types.IngestResult{Stored: false, Reason: "geocoding failed", FormID: ev.FormID}, nil
	}
	in.metrics.GeocodeRequests.WithLabelValues("success").Inc()

	bucketID := bucketkey.Derive(place, bounds)
	rec := types.AlertRecord{
		Location:      *ev.Location,
		Timestamp:     ev.Timestamp,
		Time:          time.UnixMilli(ev.Timestamp).In(athensTZ).Format("15:04"),
		ImageURL:      ev.ImageURL,
		CriticalLevel: ev.CriticalLevel,
		Message:       ev.Message,
	}

	sctx, cancel := context.WithTimeout(ctx, in.storeTimeout)
	defer cancel()
	if err := in.storeRecord(sctx, ev.Phenomenon, bucketID, place, bounds, ev.FormID, rec); err != nil {
		log.Printf("Storing alert form %s in %s/%s failed: %v", ev.FormID, ev.Phenomenon, bucketID, err)
		in.metrics.AlertsDropped.WithLabelValues("store").Inc()
		return types.IngestResult{Stored: false, Reason: "store unavailable", FormID: ev.FormID}, err
	}

	in.metrics.AlertsIngested.Inc()
	return types.IngestResult{
		Stored:     true,
		Phenomenon: ev.Phenomenon,
		BucketID:   bucketID,
		PlaceName:  place,
		FormID:     ev.FormID,
	}, nil
}

func (in *Ingestor) storeRecord(ctx context.Context, ph types.Phenomenon, bucketID, place string, bounds types.Bounds, formID string, rec types.AlertRecord) error {
	exists, err := in.store.BucketExists(ctx, ph, bucketID)
	if err != nil {
		return err
	}
	if !exists {
		if err := in.store.CreateBucket(ctx, ph, bucketID, place, bounds); err != nil {
			return err
		}
	}

	added, err := in.store.AddMember(ctx, ph, bucketID, formID, rec)
	if errors.Is(err, store.ErrBucketNotFound) {
		// The sweeper emptied the bucket between our create and add.
		if err := in.store.CreateBucket(ctx, ph, bucketID, place, bounds); err != nil {
			return err
		}
		added, err = in.store.AddMember(ctx, ph, bucketID, formID, rec)
	}
	if err != nil {
		return err
	}
	if !added {
		log.Printf("Alert form %s already recorded in %s/%s, ignoring redelivery", formID, ph, bucketID)
	}
	return nil
}
