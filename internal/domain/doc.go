// Package domain models a single agency's report of an earthquake after
// format translation, and the structures built from many such reports during
// deduplication.
//
// # Event identity
//
// event_uid is "<source>:<source_event_id>" and is the only identifier a
// NormalizedEvent carries on its own. unified_event_id is computed later, over
// a whole cluster of event_uids (see the dedup package), and changes if
// cluster membership changes on a later pass.
//
// # Source vocabulary
//
// Source is a closed six-value enum: usgs, emsc, gfz, isc, ipgp, geonet. A
// seventh value never appears; parsers that would produce one are a
// configuration bug, not a runtime condition to handle gracefully.
//
// # Status collapse
//
// Every agency exposes a richer evaluation vocabulary than this model keeps.
// QuakeML's evaluationMode/evaluationStatus pair surfaces automatic, manual,
// reviewed, confirmed, and final; all of it collapses to Automatic or
// Reviewed. See DESIGN.md for why this collapse is kept rather than widened.
//
// # Units and coordinates
//
// Latitude/longitude are decimal degrees; longitude is wrapped into
// [-180, 180] by a single +-360 correction before validation. Depth and all
// distances are kilometers. Magnitude has no fixed scale: magnitude_type
// records which one a given value uses, and unrecognized types are kept
// verbatim, lowercased, rather than rejected.
package domain
