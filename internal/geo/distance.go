// Package geo provides the great-circle distance used to rank cameras and
// sirens by proximity to the caller.
package geo

import "math"

// Point is a WGS84 coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// earthRadiusMeters is the mean earth radius. The haversine formula on a
// sphere is within ~0.3% of the ellipsoidal distance, far below what matters
// at city scale, while a flat-earth approximation is not.
const earthRadiusMeters = 6371008.8

// DistanceMeters returns the great-circle distance between a and b.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}
