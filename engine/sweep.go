package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"go-stormwatch/observability"
	"go-stormwatch/store"
	"go-stormwatch/types"
)

// Sweeper evicts alerts older than the retention window and lets the store
// drop the buckets they empty. Sweeps are idempotent and safe to run
// concurrently with ingestion: the eviction decision uses each member's own
// timestamp, so a member added after the snapshot was taken is never evicted
// by age it does not have.
type Sweeper struct {
	store     store.Store
	clock     clockwork.Clock
	metrics   *observability.Metrics
	retention time.Duration
}

func NewSweeper(st store.Store, clock clockwork.Clock, m *observability.Metrics, retention time.Duration) *Sweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sweeper{store: st, clock: clock, metrics: m, retention: retention}
}

// Sweep runs one full retention pass over every bucket. A failed removal is
// logged and skipped; it stays eligible for the next pass.
func (s *Sweeper) Sweep(ctx context.Context) (types.SweepResult, error) {
	start := s.clock.Now()
	nowMillis := start.UnixMilli()
	retentionMillis := s.retention.Milliseconds()

	buckets, err := s.store.ListBuckets(ctx)
	if err != nil {
		return types.SweepResult{}, err
	}
	log.Printf("Sweep started: %d buckets to scan", len(buckets))

	deleted := 0
	for _, bkt := range buckets {
		for recordID, rec := range bkt.Members {
			if nowMillis-rec.Timestamp < retentionMillis {
				continue
			}
			err := s.store.RemoveMember(ctx, bkt.Phenomenon, bkt.BucketID, recordID)
			switch {
			case err == nil:
				deleted++
				log.Printf("Evicted alert %s from %s/%s", recordID, bkt.Phenomenon, bkt.BucketID)
			case errors.Is(err, store.ErrMemberNotFound),
				errors.Is(err, store.ErrBucketNotFound),
				errors.Is(err, store.ErrPhenomenonNotFound):
				// Already gone, most likely to a manual purge.
			default:
				log.Printf("Evicting alert %s from %s/%s failed: %v", recordID, bkt.Phenomenon, bkt.BucketID, err)
			}
		}
	}

	if err := s.store.RecordSweep(ctx, nowMillis, deleted); err != nil {
		log.Printf("Recording sweep bookkeeping failed: %v", err)
	}

	s.metrics.SweepsTotal.Inc()
	s.metrics.AlertsSwept.Add(float64(deleted))
	s.metrics.SweepDuration.Observe(s.clock.Since(start).Seconds())

	log.Printf("Sweep completed: deleted %d alerts", deleted)
	return types.SweepResult{
		SweptAt:        nowMillis,
		BucketsScanned: len(buckets),
		Deleted:        deleted,
	}, nil
}
