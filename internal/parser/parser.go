// Package parser translates each agency's wire format into
// domain.NormalizedEvent. Every format gets one Parser implementation;
// QuakeML's namespace-resilient XML helpers are shared by composition
// (quakemlDoc, not inheritance) across the three agencies that publish it.
//
// A parser never fails its whole batch over one bad event: a malformed
// individual event is skipped silently, and a payload that does not parse at
// the top level yields an empty sequence. Callers that need to distinguish
// "nothing happened" from "top-level parse failure" wrap Parse themselves
// (see internal/ingest).
package parser

import (
	"time"

	"github.com/quakestream/quakestream/internal/domain"
)

// Parser turns one fetch's raw payload into normalized events.
type Parser interface {
	Parse(rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent
}

// FormatForSource maps a source name to its wire format token, mirroring the
// static FORMAT_MAP used to pick both the parser and the ?format= query
// parameter sent to the FDSN endpoint.
var FormatForSource = map[domain.Source]string{
	domain.SourceUSGS:   "geojson",
	domain.SourceEMSC:   "geojson",
	domain.SourceGFZ:    "text",
	domain.SourceISC:    "xml",
	domain.SourceIPGP:   "xml",
	domain.SourceGeonet: "xml",
}

// For builds the parser for a given source. reviewedCatalogs is the set of
// FDSN catalog names a deployment has configured as reviewed-bulletin
// catalogs (only meaningful for the FDSN-text source, gfz).
func For(source domain.Source, reviewedCatalogs map[string]bool) Parser {
	switch source {
	case domain.SourceUSGS:
		return USGSGeoJSONParser{}
	case domain.SourceEMSC:
		return EMSCGeoJSONParser{}
	case domain.SourceGFZ:
		return FDSNTextParser{Source: source, ReviewedCatalogs: reviewedCatalogs}
	case domain.SourceISC, domain.SourceIPGP, domain.SourceGeonet:
		return QuakeMLParser{DefaultSource: source}
	default:
		return nil
	}
}
