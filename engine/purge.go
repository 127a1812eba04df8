package engine

import (
	"context"
	"errors"
	"log"

	"go-stormwatch/observability"
	"go-stormwatch/store"
	"go-stormwatch/types"
)

// Purger handles on-demand removal by civil protection operators. Missing
// targets come back as structured results with a per-level message, never as
// errors; repeating a purge is harmless.
type Purger struct {
	store   store.Store
	metrics *observability.Metrics
}

func NewPurger(st store.Store, m *observability.Metrics) *Purger {
	return &Purger{store: st, metrics: m}
}

// PurgeBucket deletes a whole bucket and its counter.
func (p *Purger) PurgeBucket(ctx context.Context, ph types.Phenomenon, bucketID string) types.PurgeResult {
	err := p.store.DeleteBucket(ctx, ph, bucketID)
	res := p.result("bucket", err)
	if res.Success {
		log.Printf("Purged bucket %s/%s", ph, bucketID)
	}
	return res
}

// PurgeMember deletes one alert, reconciling the counter and removing the
// bucket if that was its last member.
func (p *Purger) PurgeMember(ctx context.Context, ph types.Phenomenon, bucketID, recordID string) types.PurgeResult {
	err := p.store.RemoveMember(ctx, ph, bucketID, recordID)
	res := p.result("alert", err)
	if res.Success {
		log.Printf("Purged alert %s from %s/%s", recordID, ph, bucketID)
	}
	return res
}

func (p *Purger) result(target string, err error) types.PurgeResult {
	switch {
	case err == nil:
		p.metrics.Purges.WithLabelValues(target, "success").Inc()
		return types.PurgeResult{Success: true}
	case errors.Is(err, store.ErrPhenomenonNotFound):
		p.metrics.Purges.WithLabelValues(target, "not_found").Inc()
		return types.PurgeResult{Success: false, Message: "Phenomenon not found"}
	case errors.Is(err, store.ErrBucketNotFound):
		p.metrics.Purges.WithLabelValues(target, "not_found").Inc()
		return types.PurgeResult{Success: false, Message: "Place not found"}
	case errors.Is(err, store.ErrMemberNotFound):
		p.metrics.Purges.WithLabelValues(target, "not_found").Inc()
		return types.PurgeResult{Success: false, Message: "Alert not found"}
	default:
		log.Printf("Purge of %s failed: %v", target, err)
		p.metrics.Purges.WithLabelValues(target, "error").Inc()
		return types.PurgeResult{Success: false, Message: "An unexpected error occurred"}
	}
}
