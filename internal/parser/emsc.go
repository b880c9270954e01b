package parser

import (
	"time"

	"github.com/quakestream/quakestream/internal/domain"
)

// EMSCGeoJSONParser parses the EMSC earthquake feed. EMSC publishes the same
// FeatureCollection shape as USGS (same properties/geometry keys in
// practice); the per-deployment key differences noted in spec.md §4.2 are
// absorbed into parseGeoJSON's shared struct rather than a second copy of it.
type EMSCGeoJSONParser struct{}

func (EMSCGeoJSONParser) Parse(rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent {
	return parseGeoJSON(domain.SourceEMSC, rawPayload, fetchedAt)
}
