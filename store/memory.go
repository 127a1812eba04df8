package store

import (
	"context"
	"sync"

	"go-stormwatch/types"
)

type memBucket struct {
	name    string
	bounds  types.Bounds
	members map[string]types.AlertRecord
}

// Memory is an in-process Store. It backs the engine tests and local runs
// without Firebase credentials. One mutex covers members and counters, so
// every operation is atomic as observed by other callers.
type Memory struct {
	mu       sync.Mutex
	buckets  map[types.Phenomenon]map[string]*memBucket
	counters map[types.Phenomenon]map[string]int64

	genericCounters map[string]int64
	tokens          []string

	lastSweepAt      int64
	lastSweepDeleted int
}

func NewMemory() *Memory {
	return &Memory{
		buckets:         make(map[types.Phenomenon]map[string]*memBucket),
		counters:        make(map[types.Phenomenon]map[string]int64),
		genericCounters: make(map[string]int64),
	}
}

func (m *Memory) BucketExists(_ context.Context, ph types.Phenomenon, bucketID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buckets[ph][bucketID]
	return ok, nil
}

func (m *Memory) CreateBucket(_ context.Context, ph types.Phenomenon, bucketID, name string, b types.Bounds) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[ph][bucketID]; ok {
		return nil // bounds are fixed at first creation
	}
	if m.buckets[ph] == nil {
		m.buckets[ph] = make(map[string]*memBucket)
	}
	m.buckets[ph][bucketID] = &memBucket{
		name:    name,
		bounds:  b,
		members: make(map[string]types.AlertRecord),
	}
	return nil
}

func (m *Memory) AddMember(_ context.Context, ph types.Phenomenon, bucketID, recordID string, rec types.AlertRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bkt, ok := m.buckets[ph][bucketID]
	if !ok {
		return false, ErrBucketNotFound
	}
	if _, exists := bkt.members[recordID]; exists {
		return false, nil
	}
	bkt.members[recordID] = rec
	if m.counters[ph] == nil {
		m.counters[ph] = make(map[string]int64)
	}
	m.counters[ph][bucketID]++
	return true, nil
}

func (m *Memory) RemoveMember(_ context.Context, ph types.Phenomenon, bucketID, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	places, ok := m.buckets[ph]
	if !ok {
		return ErrPhenomenonNotFound
	}
	bkt, ok := places[bucketID]
	if !ok {
		return ErrBucketNotFound
	}
	if _, exists := bkt.members[recordID]; !exists {
		return ErrMemberNotFound
	}
	delete(bkt.members, recordID)
	if c := m.counters[ph][bucketID] - 1; c > 0 {
		m.counters[ph][bucketID] = c
	} else {
		delete(m.counters[ph], bucketID)
	}
	if len(bkt.members) == 0 {
		delete(places, bucketID)
		if len(places) == 0 {
			delete(m.buckets, ph)
		}
	}
	return nil
}

func (m *Memory) DeleteBucket(_ context.Context, ph types.Phenomenon, bucketID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	places, ok := m.buckets[ph]
	if !ok {
		return ErrPhenomenonNotFound
	}
	if _, ok := places[bucketID]; !ok {
		return ErrBucketNotFound
	}
	delete(places, bucketID)
	if len(places) == 0 {
		delete(m.buckets, ph)
	}
	delete(m.counters[ph], bucketID)
	return nil
}

func (m *Memory) ListBuckets(_ context.Context) ([]types.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Bucket
	for ph, places := range m.buckets {
		for id, bkt := range places {
			members := make(map[string]types.AlertRecord, len(bkt.members))
			for rid, rec := range bkt.members {
				members[rid] = rec
			}
			out = append(out, types.Bucket{
				Phenomenon: ph,
				BucketID:   id,
				Name:       bkt.name,
				Bounds:     bkt.bounds,
				Members:    members,
			})
		}
	}
	return out, nil
}

func (m *Memory) Counter(_ context.Context, ph types.Phenomenon, bucketID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[ph][bucketID], nil
}

func (m *Memory) RecordSweep(_ context.Context, sweptAtMillis int64, deleted int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSweepAt = sweptAtMillis
	m.lastSweepDeleted = deleted
	return nil
}

// LastSweep returns the bookkeeping of the most recent retention pass.
func (m *Memory) LastSweep() (sweptAtMillis int64, deleted int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastSweepAt, m.lastSweepDeleted
}

func (m *Memory) IncrementCounter(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.genericCounters[path]++
	return nil
}

// CounterAt reads a generic counter path, zero if absent.
func (m *Memory) CounterAt(path string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.genericCounters[path]
}

func (m *Memory) Tokens(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tokens...), nil
}

// SetTokens replaces the registered device tokens.
func (m *Memory) SetTokens(tokens []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append([]string(nil), tokens...)
}
