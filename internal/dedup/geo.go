// Package dedup implements the spatio-temporal clustering pass that turns a
// rolling window of normalized events into unified events: spatial
// pre-partitioning (a hand-rolled DBSCAN-equivalent, since no DBSCAN library
// exists anywhere in the retrieval pack this was built from), time/magnitude
// sub-clustering, canonical-record selection, and the three per-cluster
// quality metrics.
package dedup

import "math"

// EarthRadiusKM is the sphere radius used for every haversine computation in
// this package. No geodesic or WGS84-ellipsoid correction is applied.
const EarthRadiusKM = 6371.0

// HaversineKM returns the great-circle distance between two points in
// kilometers. Grounded on apimgr-weather's haversineDistance, which uses the
// same formula.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusKM * c
}
