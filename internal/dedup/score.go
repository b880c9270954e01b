package dedup

import (
	"math"

	"github.com/quakestream/quakestream/internal/domain"
)

const (
	maxDtSeconds  = 30.0
	maxDistanceKM = 100.0
	maxMagDelta   = 0.5

	// MatchThreshold is the minimum score for two records to join the same
	// cluster.
	MatchThreshold = 0.6
)

// MatchScore implements spec.md §4.5.1. Any of the three gates failing
// (dt, distance, or magnitude delta at or over its limit) yields 0 outright,
// independent of the weighted formula.
func MatchScore(a, b domain.EventRecord) float64 {
	dt := math.Abs(a.OriginTimeUTC.Sub(b.OriginTimeUTC).Seconds())
	if dt >= maxDtSeconds {
		return 0
	}

	dist := HaversineKM(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	if dist >= maxDistanceKM {
		return 0
	}

	dmag := math.Abs(a.MagnitudeValue - b.MagnitudeValue)
	if dmag >= maxMagDelta {
		return 0
	}

	return 0.4*(1-dt/maxDtSeconds) + 0.4*(1-dist/maxDistanceKM) + 0.2*(1-dmag/maxMagDelta)
}
