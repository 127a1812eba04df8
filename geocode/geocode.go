package geocode

import (
	"context"
	"fmt"
	"os"
	"sync"

	"googlemaps.github.io/maps"

	"go-stormwatch/types"
)

// mapsClient is a singleton maps client instance.
var (
	mapsClient *maps.Client
	clientOnce sync.Once
	clientErr  error
)

// InitMapsClient initializes and returns a singleton Google Maps client.
func InitMapsClient() (*maps.Client, error) {
	clientOnce.Do(func() {
		apiKey := os.Getenv("MAPS_CREDENTIALS")
		if apiKey == "" {
			clientErr = fmt.Errorf("MAPS_CREDENTIALS environment variable not set")
			return
		}
		mapsClient, clientErr = maps.NewClient(maps.WithAPIKey(apiKey))
	})
	return mapsClient, clientErr
}

// Client reverse-geocodes submission coordinates into a place name and the
// bounding box the aggregation buckets carry.
type Client struct{}

func NewClient() *Client { return &Client{} }

// ReverseGeocode looks up the place covering (lat, lng). The name prefers a
// neighborhood or locality component; the bounds come from the coarsest
// result, falling back to its viewport when the geometry has no bounds.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, types.Bounds, error) {
	client, err := InitMapsClient()
	if err != nil {
		return "", types.Bounds{}, err
	}

	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}
	results, err := client.ReverseGeocode(ctx, req)
	if err != nil {
		return "", types.Bounds{}, fmt.Errorf("reverse geocode (%v, %v): %w", lat, lng, err)
	}
	if len(results) == 0 {
		return "", types.Bounds{}, fmt.Errorf("no geocode results for (%v, %v)", lat, lng)
	}

	name := placeName(results[0])

	// The last result is the widest administrative area Google returns.
	geom := results[len(results)-1].Geometry
	bounds := toBounds(geom.Bounds)
	if bounds.IsZero() {
		bounds = toBounds(geom.Viewport)
	}
	if bounds.IsZero() {
		return "", types.Bounds{}, fmt.Errorf("geocode for (%v, %v) returned no bounds or viewport", lat, lng)
	}

	return name, bounds, nil
}

func placeName(r maps.GeocodingResult) string {
	for _, comp := range r.AddressComponents {
		for _, t := range comp.Types {
			if t == "neighborhood" || t == "locality" {
				return comp.LongName
			}
		}
	}
	// Fall back to the third component, which tends to be the locality for
	// street-level results.
	if len(r.AddressComponents) > 2 {
		return r.AddressComponents[2].LongName
	}
	return r.FormattedAddress
}

func toBounds(b maps.LatLngBounds) types.Bounds {
	return types.Bounds{
		Northeast: types.LatLng{Lat: b.NorthEast.Lat, Lng: b.NorthEast.Lng},
		Southwest: types.LatLng{Lat: b.SouthWest.Lat, Lng: b.SouthWest.Lng},
	}
}
