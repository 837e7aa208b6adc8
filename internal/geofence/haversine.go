package geofence

import (
	"math"

	"github.com/bloodlink/bloodlink-backend/pkg/types"
)

const earthRadiusKM = 6371.0

// DistanceKM returns the great-circle distance between two points using the
// haversine formula.
func DistanceKM(a, b types.Coordinates) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(h))
}
