package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-stormwatch/engine"
	"go-stormwatch/observability"
	"go-stormwatch/routes"
	"go-stormwatch/stats"
	"go-stormwatch/store"
	"go-stormwatch/types"
)

var kolonakiBounds = types.Bounds{
	Northeast: types.LatLng{Lat: 37.985, Lng: 23.745},
	Southwest: types.LatLng{Lat: 37.975, Lng: 23.735},
}

type fakeGeocoder struct{}

func (fakeGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (string, types.Bounds, error) {
	return "Kolonaki", kolonakiBounds, nil
}

type testEnv struct {
	router *gin.Engine
	store  *store.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	metrics := observability.NewMetricsForTesting()
	ingestor := engine.NewIngestor(st, fakeGeocoder{}, metrics, time.Second, time.Second)
	sweeper := engine.NewSweeper(st, clockwork.NewRealClock(), metrics, 24*time.Hour)
	purger := engine.NewPurger(st, metrics)
	recorder := stats.NewRecorder(st)

	return &testEnv{
		router: routes.SetupRouter(st, ingestor, sweeper, purger, recorder, nil),
		store:  st,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) ingest(t *testing.T, formID string, ageAgo time.Duration) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/stormwatch/alerts", types.AlertEvent{
		FormID:     formID,
		Phenomenon: types.Flood,
		Location:   &types.Location{Latitude: 37.98, Longitude: 23.72},
		Timestamp:  time.Now().Add(-ageAgo).UnixMilli(),
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCleanup_RejectsNonPost(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "form-1", 25*time.Hour)

	w := env.do(t, http.MethodGet, "/api/cleanup", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	// The expired alert must still be there: no side effects on rejection.
	buckets, err := env.store.ListBuckets(context.Background())
	require.NoError(t, err)
	assert.Len(t, buckets, 1)
}

func TestCleanup_SweepsExpiredAlerts(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "form-old", 25*time.Hour)
	env.ingest(t, "form-fresh", time.Hour)

	w := env.do(t, http.MethodPost, "/api/cleanup", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res types.SweepResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Deleted)

	buckets, err := env.store.ListBuckets(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Contains(t, buckets[0].Members, "form-fresh")
}

func TestIngestEndpoint_RejectsInvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodPost, "/api/stormwatch/alerts", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestEndpoint_AcknowledgesDroppedEvent(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/stormwatch/alerts", types.AlertEvent{
		FormID:     "form-1",
		Phenomenon: types.Flood,
		// no location
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res types.IngestResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Stored)
	assert.NotEmpty(t, res.Reason)
}

func TestBucketsEndpoint_ReturnsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "form-1", time.Hour)

	w := env.do(t, http.MethodGet, "/api/stormwatch/buckets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Buckets []types.Bucket `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Buckets, 1)
	assert.Equal(t, "Kolonaki", body.Buckets[0].Name)
}

func TestPurgeEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.ingest(t, "form-1", time.Hour)

	buckets, err := env.store.ListBuckets(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	bucketID := buckets[0].BucketID

	w := env.do(t, http.MethodPost, "/api/stormwatch/purge/alert", map[string]string{
		"phenomenon": "FLOOD",
		"locationId": bucketID,
		"alertId":    "form-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var res types.PurgeResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)

	// The bucket went with its last member; purging it now reports not found.
	w = env.do(t, http.MethodPost, "/api/stormwatch/purge/bucket", map[string]string{
		"phenomenon": "FLOOD",
		"locationId": bucketID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "Phenomenon not found", res.Message)
}

func TestNotificationsEndpoint_RecordsStatistics(t *testing.T) {
	env := newTestEnv(t)
	ts := time.Date(2026, time.March, 5, 10, 0, 0, 0, time.UTC)

	w := env.do(t, http.MethodPost, "/api/stormwatch/notifications", types.Notification{
		Phenomenon:     types.Fire,
		LocationName:   "Kolonaki",
		LocationBounds: kolonakiBounds,
		CriticalLevel:  "HIGH",
		Timestamp:      ts.UnixMilli(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	assert.EqualValues(t, 1, env.store.CounterAt(fmt.Sprintf("statisticsPerYear/2026/sumOfReports/%s", types.Fire)))
	assert.EqualValues(t, 1, env.store.CounterAt(fmt.Sprintf("statisticsPerYear/2026/sumPerMonth/March/%s", types.Fire)))
}
