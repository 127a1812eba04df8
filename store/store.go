package store

import (
	"context"
	"errors"

	"go-stormwatch/types"
)

// Per-level targets a purge can miss. Callers report these as normal
// outcomes, not faults.
var (
	ErrPhenomenonNotFound = errors.New("phenomenon not found")
	ErrBucketNotFound     = errors.New("place not found")
	ErrMemberNotFound     = errors.New("alert not found")
)

// Store is the aggregation tree. Implementations must keep the per-bucket
// counter exactly equal to the number of live members whenever no call is in
// flight on that bucket: AddMember and RemoveMember mutate member and counter
// as one logical operation, never as independent read-then-write steps.
type Store interface {
	// BucketExists reports whether the (phenomenon, bucketId) node exists.
	BucketExists(ctx context.Context, ph types.Phenomenon, bucketID string) (bool, error)

	// CreateBucket creates the bucket with its place name and bounds.
	// Idempotent: an existing bucket keeps its original name and bounds.
	CreateBucket(ctx context.Context, ph types.Phenomenon, bucketID, name string, b types.Bounds) error

	// AddMember inserts the record and increments the counter by one, as a
	// single atomic step. Re-adding an existing record id is a no-op and
	// reports added=false.
	AddMember(ctx context.Context, ph types.Phenomenon, bucketID, recordID string, rec types.AlertRecord) (added bool, err error)

	// RemoveMember deletes the record and decrements the counter; when the
	// last member goes, the bucket and its counter node go with it. Missing
	// targets are reported through the ErrXxxNotFound sentinels.
	RemoveMember(ctx context.Context, ph types.Phenomenon, bucketID, recordID string) error

	// DeleteBucket removes a whole bucket and its counter in one step,
	// regardless of member count. Missing targets use the same sentinels.
	DeleteBucket(ctx context.Context, ph types.Phenomenon, bucketID string) error

	// ListBuckets returns a snapshot of every bucket for sweeping. The
	// snapshot may lag concurrent writers but every record in it is whole.
	ListBuckets(ctx context.Context) ([]types.Bucket, error)

	// Counter reads the live member count for a bucket; zero if absent.
	Counter(ctx context.Context, ph types.Phenomenon, bucketID string) (int64, error)

	// RecordSweep persists the wall clock time and removal count of the
	// latest retention pass.
	RecordSweep(ctx context.Context, sweptAtMillis int64, deleted int) error

	// IncrementCounter atomically adds one to an arbitrary counter path,
	// creating it at 1. Used by the report statistics.
	IncrementCounter(ctx context.Context, path string) error

	// Tokens lists the registered device tokens for notification fan-out.
	Tokens(ctx context.Context) ([]string, error)
}
