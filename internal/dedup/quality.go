package dedup

import (
	"math"

	"github.com/quakestream/quakestream/internal/domain"
)

// MagnitudeStd returns the population standard deviation of member
// magnitudes, rounded to 4 decimals, 0 for a single-member cluster.
func MagnitudeStd(members []domain.EventRecord) float64 {
	if len(members) <= 1 {
		return 0
	}

	var sum float64
	for _, m := range members {
		sum += m.MagnitudeValue
	}
	mean := sum / float64(len(members))

	var variance float64
	for _, m := range members {
		d := m.MagnitudeValue - mean
		variance += d * d
	}
	variance /= float64(len(members))

	return round(math.Sqrt(variance), 4)
}

// LocationSpreadKM returns the maximum pairwise haversine distance between
// members, rounded to 2 decimals.
func LocationSpreadKM(members []domain.EventRecord) float64 {
	var max float64
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			d := HaversineKM(members[i].Latitude, members[i].Longitude, members[j].Latitude, members[j].Longitude)
			if d > max {
				max = d
			}
		}
	}
	return round(max, 2)
}

// SourceAgreementScore returns distinct-source-count / member-count,
// rounded to 4 decimals.
func SourceAgreementScore(members []domain.EventRecord) float64 {
	seen := make(map[domain.Source]bool, len(members))
	for _, m := range members {
		seen[m.Source] = true
	}
	return round(float64(len(seen))/float64(len(members)), 4)
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
