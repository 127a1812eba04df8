package types

// Phenomenon is the category of critical weather a citizen can report.
type Phenomenon string

const (
	Flood      Phenomenon = "FLOOD"
	Fire       Phenomenon = "FIRE"
	Earthquake Phenomenon = "EARTHQUAKE"
	Snowstorm  Phenomenon = "SNOWSTORM"
	Heatwave   Phenomenon = "HEATWAVE"
	Storm      Phenomenon = "STORM"
)

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Bounds is the bounding box a geocoded place covers.
type Bounds struct {
	Northeast LatLng `json:"northeast"`
	Southwest LatLng `json:"southwest"`
}

// IsZero reports whether the box was never set.
func (b Bounds) IsZero() bool {
	return b == Bounds{}
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AlertRecord is the slice of a submitted alert form that the aggregation
// tree keeps per member. Timestamp is milliseconds since epoch and drives
// retention; Time is the client-facing Athens wall clock rendering of it.
type AlertRecord struct {
	Location      Location `json:"location"`
	Timestamp     int64    `json:"timestamp"`
	Time          string   `json:"time,omitempty"`
	ImageURL      string   `json:"imageURL,omitempty"`
	CriticalLevel string   `json:"criticalLevel,omitempty"`
	Message       string   `json:"message,omitempty"`
}

// AlertEvent is one citizen submission as delivered by the upload trigger.
// Location is a pointer so a missing field can be told apart from (0, 0).
type AlertEvent struct {
	FormID        string     `json:"formID"`
	Phenomenon    Phenomenon `json:"criticalWeatherPhenomenon"`
	Location      *Location  `json:"location"`
	Timestamp     int64      `json:"timestamp"`
	ImageURL      string     `json:"imageURL,omitempty"`
	CriticalLevel string     `json:"criticalLevel,omitempty"`
	Message       string     `json:"message,omitempty"`
}
