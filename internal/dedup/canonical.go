package dedup

import (
	"math"

	"github.com/quakestream/quakestream/internal/domain"
)

// SimpleMean computes the unweighted centroid used to look up the
// region-aware priority list (spec.md §4.5.2 step 1).
func SimpleMean(members []domain.EventRecord) (lat, lon float64) {
	var sumLat, sumLon float64
	for _, m := range members {
		sumLat += m.Latitude
		sumLon += m.Longitude
	}
	n := float64(len(members))
	return sumLat / n, sumLon / n
}

// SelectPreferred implements spec.md §4.5.2 steps 2-4: restrict to reviewed
// members if any exist, then pick the candidate whose source ranks earliest
// in priority, with unlisted sources ranking after every listed one and
// ties breaking by first insertion (discovery) order.
func SelectPreferred(members []domain.EventRecord, priority []domain.Source) domain.EventRecord {
	candidates := members
	for _, m := range members {
		if m.Status == domain.StatusReviewed {
			candidates = reviewedOnly(members)
			break
		}
	}

	best := candidates[0]
	bestRank := sourceRank(best.Source, priority)
	for _, c := range candidates[1:] {
		if r := sourceRank(c.Source, priority); r < bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

func reviewedOnly(members []domain.EventRecord) []domain.EventRecord {
	out := make([]domain.EventRecord, 0, len(members))
	for _, m := range members {
		if m.Status == domain.StatusReviewed {
			out = append(out, m)
		}
	}
	return out
}

func sourceRank(s domain.Source, priority []domain.Source) int {
	for i, p := range priority {
		if p == s {
			return i
		}
	}
	return len(priority)
}

// WeightedCentroid implements spec.md §4.5.4: weight per member is
// max(1, N-rank) where N is the priority list length; falls back to anchor
// values if total weight is zero (unreachable in practice since weight is
// always >= 1, kept for the explicit edge case it guards against).
func WeightedCentroid(members []domain.EventRecord, priority []domain.Source, anchor domain.EventRecord) (lat, lon, depth float64) {
	n := len(priority)
	var sumLat, sumLon, sumDepth, totalWeight float64

	for _, m := range members {
		rank := sourceRank(m.Source, priority)
		w := math.Max(1, float64(n-rank))
		sumLat += w * m.Latitude
		sumLon += w * m.Longitude
		sumDepth += w * m.DepthKM
		totalWeight += w
	}

	if totalWeight == 0 {
		return anchor.Latitude, anchor.Longitude, anchor.DepthKM
	}
	return sumLat / totalWeight, sumLon / totalWeight, sumDepth / totalWeight
}
