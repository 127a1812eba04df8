package types

// Bucket is one aggregation group: every live alert of a single phenomenon
// inside a single geocoded place. The counter lives in a parallel tree and
// must always equal len(Members).
type Bucket struct {
	Phenomenon Phenomenon             `json:"phenomenon"`
	BucketID   string                 `json:"bucketId"`
	Name       string                 `json:"name"`
	Bounds     Bounds                 `json:"bounds"`
	Members    map[string]AlertRecord `json:"alertForms"`
}

// IngestResult reports what the ingestion pipeline did with one event.
type IngestResult struct {
	Stored     bool       `json:"stored"`
	Reason     string     `json:"reason,omitempty"`
	Phenomenon Phenomenon `json:"phenomenon,omitempty"`
	BucketID   string     `json:"bucketId,omitempty"`
	PlaceName  string     `json:"placeName,omitempty"`
	FormID     string     `json:"formID,omitempty"`
}

// SweepResult summarizes one retention pass.
type SweepResult struct {
	SweptAt        int64 `json:"sweptAt"` // milliseconds since epoch
	BucketsScanned int   `json:"bucketsScanned"`
	Deleted        int   `json:"deleted"`
}

// PurgeResult is the structured outcome of a manual purge call. A missing
// target is reported here, never raised as an error.
type PurgeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Notification is an official warning pushed to citizens; it also feeds the
// yearly report statistics.
type Notification struct {
	Phenomenon     Phenomenon `json:"criticalWeatherPhenomenon"`
	LocationName   string     `json:"locationName,omitempty"`
	LocationBounds Bounds     `json:"locationBounds"`
	CriticalLevel  string     `json:"criticalLevel,omitempty"`
	Message        string     `json:"message,omitempty"`
	Timestamp      int64      `json:"timestamp"`
}
