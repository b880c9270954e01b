// Package region maps a coordinate to a region-aware source-preference
// list, used by the dedup engine's canonical-record selection step.
//
// Region classification is first-match over five cases and keeps gaps that
// only resolve to "global" by falling through every listed case; see
// DESIGN.md's Open Question decision on this boundary. It is intentionally
// not replaced by a nearest-reference classification.
package region

import "github.com/quakestream/quakestream/internal/domain"

// Name is one of the five classification buckets.
type Name string

const (
	Americas    Name = "americas"
	Europe      Name = "europe"
	Africa      Name = "africa"
	AsiaPacific Name = "asia_pacific"
	Global      Name = "global"
)

var priorities = map[Name][]domain.Source{
	Americas:    {domain.SourceUSGS, domain.SourceEMSC, domain.SourceGFZ, domain.SourceISC, domain.SourceIPGP, domain.SourceGeonet},
	Europe:      {domain.SourceEMSC, domain.SourceGFZ, domain.SourceUSGS, domain.SourceISC, domain.SourceIPGP, domain.SourceGeonet},
	Africa:      {domain.SourceISC, domain.SourceEMSC, domain.SourceIPGP, domain.SourceUSGS, domain.SourceGFZ, domain.SourceGeonet},
	AsiaPacific: {domain.SourceISC, domain.SourceUSGS, domain.SourceGeonet, domain.SourceEMSC, domain.SourceGFZ, domain.SourceIPGP},
	Global:      {domain.SourceUSGS, domain.SourceEMSC, domain.SourceISC, domain.SourceGFZ, domain.SourceIPGP, domain.SourceGeonet},
}

// Classify returns the region bucket for a coordinate, first match wins.
func Classify(lat, lon float64) Name {
	switch {
	case lon >= -170 && lon <= -30:
		return Americas
	case lon > -30 && lon <= 45 && lat >= 30:
		return Europe
	case lon >= -20 && lon <= 55 && lat < 30:
		return Africa
	case lon > 45 || lon < -170:
		return AsiaPacific
	default:
		return Global
	}
}

// Priority returns the ordered source-preference list for a coordinate,
// highest priority first.
func Priority(lat, lon float64) []domain.Source {
	return priorities[Classify(lat, lon)]
}
