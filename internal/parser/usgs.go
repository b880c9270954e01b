package parser

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/quakestream/quakestream/internal/domain"
)

// geoJSONFeatureCollection models the USGS/EMSC earthquake GeoJSON feed
// shape, confirmed against apimgr-weather's USGSGeoJSONResponse: a
// FeatureCollection whose features carry a flat properties bag and a
// [lon, lat, depth_km] coordinate triple.
type geoJSONFeatureCollection struct {
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	ID         string             `json:"id"`
	Properties geoJSONProperties  `json:"properties"`
	Geometry   geoJSONGeometry    `json:"geometry"`
}

type geoJSONProperties struct {
	Mag     *float64 `json:"mag"`
	MagType string   `json:"magType"`
	Place   string   `json:"place"`
	Time    int64    `json:"time"` // milliseconds since epoch
	Status  string   `json:"status"`
}

type geoJSONGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth_km]
}

// USGSGeoJSONParser parses the USGS earthquake feed GeoJSON format.
type USGSGeoJSONParser struct{}

func (USGSGeoJSONParser) Parse(rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent {
	return parseGeoJSON(domain.SourceUSGS, rawPayload, fetchedAt)
}

func parseGeoJSON(source domain.Source, rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent {
	var fc geoJSONFeatureCollection
	if err := json.Unmarshal(rawPayload, &fc); err != nil {
		return nil
	}

	events := make([]domain.NormalizedEvent, 0, len(fc.Features))
	for _, f := range fc.Features {
		e, ok := normalizeFeature(source, f, fetchedAt)
		if !ok {
			continue
		}
		events = append(events, e)
	}
	return events
}

func normalizeFeature(source domain.Source, f geoJSONFeature, fetchedAt time.Time) (domain.NormalizedEvent, bool) {
	if f.ID == "" || f.Properties.Mag == nil || len(f.Geometry.Coordinates) < 3 {
		return domain.NormalizedEvent{}, false
	}

	lon := domain.NormalizeLongitude(f.Geometry.Coordinates[0])
	lat := f.Geometry.Coordinates[1]
	depth := f.Geometry.Coordinates[2]

	status := domain.StatusAutomatic
	if strings.EqualFold(f.Properties.Status, "reviewed") {
		status = domain.StatusReviewed
	}

	return domain.NormalizedEvent{
		EventUID:       string(source) + ":" + f.ID,
		Source:         source,
		SourceEventID:  f.ID,
		OriginTimeUTC:  time.UnixMilli(f.Properties.Time).UTC(),
		Latitude:       lat,
		Longitude:      lon,
		DepthKM:        depth,
		MagnitudeValue: *f.Properties.Mag,
		MagnitudeType:  strings.ToLower(f.Properties.MagType),
		Place:          f.Properties.Place,
		Status:         status,
		FetchedAt:      fetchedAt,
	}, true
}
