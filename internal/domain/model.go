package domain

import "time"

// Source is the closed set of seismological agencies this system ingests.
type Source string

const (
	SourceUSGS   Source = "usgs"
	SourceEMSC   Source = "emsc"
	SourceGFZ    Source = "gfz"
	SourceISC    Source = "isc"
	SourceIPGP   Source = "ipgp"
	SourceGeonet Source = "geonet"
)

// AllSources lists the six agencies in a stable, arbitrary order. Used by
// config loading to build one source config per agency, and by the region
// tests as the "every source" reference set.
var AllSources = []Source{SourceUSGS, SourceEMSC, SourceGFZ, SourceISC, SourceIPGP, SourceGeonet}

// Status collapses every agency's evaluation vocabulary into two values.
// See the package doc comment for why this collapse is deliberate.
type Status string

const (
	StatusAutomatic Status = "automatic"
	StatusReviewed  Status = "reviewed"
)

// NormalizedEvent is one agency's report of an earthquake, after its wire
// format has been translated into the shared vocabulary. Produced by a
// parser, validated by Validate, and appended to the raw-event store if it
// passes. Never mutated after creation.
type NormalizedEvent struct {
	EventUID       string
	Source         Source
	SourceEventID  string
	OriginTimeUTC  time.Time
	Latitude       float64
	Longitude      float64
	DepthKM        float64
	MagnitudeValue float64
	MagnitudeType  string
	Place          string
	Region         string

	LatErrorKM   *float64
	LonErrorKM   *float64
	DepthErrorKM *float64
	MagError     *float64

	Status Status
	Author string

	FetchedAt  time.Time
	RawPayload string
}

// Validate returns every invariant this event violates; an empty slice means
// the event is fit for the raw-event store. All invariants are checked, not
// just the first failing one, so a dead-letter row carries a complete
// diagnosis.
func Validate(e NormalizedEvent) []string {
	var errs []string

	if e.SourceEventID == "" {
		errs = append(errs, "source_event_id must not be empty")
	}
	if e.Latitude < -90 || e.Latitude > 90 {
		errs = append(errs, "latitude out of range [-90, 90]")
	}
	if e.Longitude < -180 || e.Longitude > 180 {
		errs = append(errs, "longitude out of range [-180, 180]")
	}
	if e.DepthKM < 0 {
		errs = append(errs, "depth_km must be non-negative")
	}
	if e.OriginTimeUTC.IsZero() {
		errs = append(errs, "origin_time_utc must be set")
	} else if e.OriginTimeUTC.Location() != time.UTC {
		errs = append(errs, "origin_time_utc must be UTC")
	}
	if isNonFinite(e.MagnitudeValue) {
		errs = append(errs, "magnitude_value must be finite")
	}

	return errs
}

func isNonFinite(f float64) bool {
	return f != f || f > maxFloat || f < -maxFloat
}

const maxFloat = 1.7976931348623157e+308

// NormalizeLongitude wraps a longitude value into [-180, 180] by a single
// +-360 correction, as required before Validate runs.
func NormalizeLongitude(lon float64) float64 {
	switch {
	case lon > 180:
		return lon - 360
	case lon < -180:
		return lon + 360
	default:
		return lon
	}
}

// EventRecord is the projection of a NormalizedEvent used by the dedup pass:
// identical origin/location/magnitude fields, with raw_payload, author, the
// uncertainty fields, and fetched_at dropped since clustering never needs
// them.
type EventRecord struct {
	EventUID       string
	Source         Source
	SourceEventID  string
	OriginTimeUTC  time.Time
	Latitude       float64
	Longitude      float64
	DepthKM        float64
	MagnitudeValue float64
	MagnitudeType  string
	Place          string
	Region         string
	Status         Status
}

// ToEventRecord drops the fields the dedup pass never reads.
func (e NormalizedEvent) ToEventRecord() EventRecord {
	return EventRecord{
		EventUID:       e.EventUID,
		Source:         e.Source,
		SourceEventID:  e.SourceEventID,
		OriginTimeUTC:  e.OriginTimeUTC,
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
		DepthKM:        e.DepthKM,
		MagnitudeValue: e.MagnitudeValue,
		MagnitudeType:  e.MagnitudeType,
		Place:          e.Place,
		Region:         e.Region,
		Status:         e.Status,
	}
}

// Cluster is an ordered, non-empty group of EventRecords believed to report
// the same physical earthquake. Members are kept in discovery order; Anchor
// is always the first member by ascending origin time and, once set, never
// changes as later members join (see openCluster in the dedup package).
type Cluster struct {
	Members   []EventRecord
	BestScore float64
}

// Anchor returns the earliest-by-origin-time member. Callers must not call
// Anchor on an empty cluster.
func (c Cluster) Anchor() EventRecord {
	anchor := c.Members[0]
	for _, m := range c.Members[1:] {
		if m.OriginTimeUTC.Before(anchor.OriginTimeUTC) {
			anchor = m
		}
	}
	return anchor
}

// UnifiedEvent is the canonical record for one cluster, upserted at the end
// of a dedup pass.
type UnifiedEvent struct {
	UnifiedEventID   string
	OriginTimeUTC    time.Time
	Latitude         float64
	Longitude        float64
	DepthKM          float64
	MagnitudeValue   float64
	MagnitudeType    string
	Place            string
	Region           string
	Status           Status
	NumSources       int
	PreferredSource  Source
	PreferredEventID string

	MagnitudeStd          float64
	LocationSpreadKM      float64
	SourceAgreementScore  float64
	UpdatedAt             time.Time
}

// CrosswalkEntry links one cluster member to the unified event it belongs to.
type CrosswalkEntry struct {
	EventUID       string
	UnifiedEventID string
	MatchScore     float64
	IsPreferred    bool
}
