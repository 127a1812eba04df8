package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stormwatch/store"
	"go-stormwatch/types"
)

var testBounds = types.Bounds{
	Northeast: types.LatLng{Lat: 38.0, Lng: 23.8},
	Southwest: types.LatLng{Lat: 37.9, Lng: 23.7},
}

func record(ts int64) types.AlertRecord {
	return types.AlertRecord{
		Location:  types.Location{Latitude: 37.98, Longitude: 23.72},
		Timestamp: ts,
	}
}

func newBucketWithMember(t *testing.T, m *store.Memory, ph types.Phenomenon, id, recordID string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.CreateBucket(ctx, ph, id, "Kolonaki", testBounds))
	added, err := m.AddMember(ctx, ph, id, recordID, record(1000))
	require.NoError(t, err)
	require.True(t, added)
}

func TestMemory_CounterMatchesMembers(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateBucket(ctx, types.Flood, "b1", "Kolonaki", testBounds))
	for i := 0; i < 5; i++ {
		added, err := m.AddMember(ctx, types.Flood, "b1", fmt.Sprintf("rec-%d", i), record(int64(i)))
		require.NoError(t, err)
		assert.True(t, added)
	}

	count, err := m.Counter(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].Members, 5)
}

func TestMemory_AddMemberIdempotent(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")

	added, err := m.AddMember(ctx, types.Flood, "b1", "rec-1", record(9999))
	require.NoError(t, err)
	assert.False(t, added)

	count, err := m.Counter(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	// The original record wins; a redelivery never overwrites.
	assert.EqualValues(t, 1000, buckets[0].Members["rec-1"].Timestamp)
}

func TestMemory_CreateBucketKeepsOriginalBounds(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateBucket(ctx, types.Flood, "b1", "Kolonaki", testBounds))
	other := types.Bounds{Northeast: types.LatLng{Lat: 1, Lng: 1}}
	require.NoError(t, m.CreateBucket(ctx, types.Flood, "b1", "Elsewhere", other))

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "Kolonaki", buckets[0].Name)
	assert.Equal(t, testBounds, buckets[0].Bounds)
}

func TestMemory_RemoveLastMemberDeletesBucket(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")

	require.NoError(t, m.RemoveMember(ctx, types.Flood, "b1", "rec-1"))

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Empty(t, buckets)

	count, err := m.Counter(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.Zero(t, count)

	exists, err := m.BucketExists(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemory_RemoveMemberNotFoundLevels(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")

	err := m.RemoveMember(ctx, types.Fire, "b1", "rec-1")
	assert.ErrorIs(t, err, store.ErrPhenomenonNotFound)

	err = m.RemoveMember(ctx, types.Flood, "other", "rec-1")
	assert.ErrorIs(t, err, store.ErrBucketNotFound)

	err = m.RemoveMember(ctx, types.Flood, "b1", "other")
	assert.ErrorIs(t, err, store.ErrMemberNotFound)

	// The failed removals must not have touched the counter.
	count, err := m.Counter(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemory_DeleteBucket(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")

	require.NoError(t, m.DeleteBucket(ctx, types.Flood, "b1"))

	assert.ErrorIs(t, m.DeleteBucket(ctx, types.Flood, "b1"), store.ErrPhenomenonNotFound)

	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")
	assert.ErrorIs(t, m.DeleteBucket(ctx, types.Flood, "other"), store.ErrBucketNotFound)
}

func TestMemory_ConcurrentAdds(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateBucket(ctx, types.Flood, "b1", "Kolonaki", testBounds))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			added, err := m.AddMember(ctx, types.Flood, "b1", fmt.Sprintf("rec-%d", i), record(int64(i)))
			assert.NoError(t, err)
			assert.True(t, added)
		}(i)
	}
	wg.Wait()

	count, err := m.Counter(ctx, types.Flood, "b1")
	require.NoError(t, err)
	assert.EqualValues(t, n, count)

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].Members, n)
}

func TestMemory_ListBucketsReturnsCopies(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	newBucketWithMember(t, m, types.Flood, "b1", "rec-1")

	buckets, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	delete(buckets[0].Members, "rec-1")

	again, err := m.ListBuckets(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Len(t, again[0].Members, 1)
}

func TestMemory_GenericCountersAndTokens(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.IncrementCounter(ctx, "statisticsPerYear/2026/sumOfReports/FLOOD"))
	require.NoError(t, m.IncrementCounter(ctx, "statisticsPerYear/2026/sumOfReports/FLOOD"))
	assert.EqualValues(t, 2, m.CounterAt("statisticsPerYear/2026/sumOfReports/FLOOD"))

	m.SetTokens([]string{"tok-a", "tok-b"})
	tokens, err := m.Tokens(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, tokens)
}
