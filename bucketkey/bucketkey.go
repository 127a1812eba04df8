package bucketkey

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"go-stormwatch/types"
)

// Derive turns a geocoded place and its bounding box into the short id the
// aggregation tree is keyed by. Equal inputs always map to the same id; the
// truncated SHA-256 keeps distinct places apart in practice. Note the bounds
// participate verbatim, so jitter in geocoder output yields distinct ids for
// the same physical place.
func Derive(place string, b types.Bounds) string {
	key := fmt.Sprintf("%s_%v_%v_%v_%v",
		place,
		b.Northeast.Lat, b.Northeast.Lng,
		b.Southwest.Lat, b.Southwest.Lng,
	)
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}
