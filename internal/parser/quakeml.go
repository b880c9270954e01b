package parser

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/quakestream/quakestream/internal/domain"
)

// QuakeMLParser parses QuakeML 1.2 XML (namespace
// http://quakeml.org/xmlns/bed/1.2). encoding/xml matches struct tags without
// a namespace prefix against any namespace, which is what makes the
// namespace-resilient / no-namespace-fallback behavior in spec.md §4.2 fall
// out of plain struct tags instead of two parsing paths, confirmed against
// GeoNet-qsearch's quakeml12 package, a zero-dependency production QuakeML
// parser that relies on the same mechanism.
//
// DefaultSource parameterizes one parser implementation across isc, ipgp,
// and geonet (all QuakeML publishers); it never changes parse semantics,
// only which Source value normalized events carry.
type QuakeMLParser struct {
	DefaultSource domain.Source
}

type quakemlRoot struct {
	EventParameters struct {
		Events []quakemlEvent `xml:"event"`
	} `xml:"eventParameters"`
}

type quakemlEvent struct {
	PublicID              string             `xml:"publicID,attr"`
	PreferredOriginID     string             `xml:"preferredOriginID"`
	PreferredMagnitudeID  string             `xml:"preferredMagnitudeID"`
	Origins               []quakemlOrigin    `xml:"origin"`
	Magnitudes            []quakemlMagnitude `xml:"magnitude"`
}

type quakemlOrigin struct {
	PublicID string `xml:"publicID,attr"`
	Time     struct {
		Value string `xml:"value"`
	} `xml:"time"`
	Latitude struct {
		Value       float64  `xml:"value"`
		Uncertainty *float64 `xml:"uncertainty"`
	} `xml:"latitude"`
	Longitude struct {
		Value       float64  `xml:"value"`
		Uncertainty *float64 `xml:"uncertainty"`
	} `xml:"longitude"`
	Depth *struct {
		Value       float64  `xml:"value"`
		Uncertainty *float64 `xml:"uncertainty"`
	} `xml:"depth"`
	EvaluationMode   string               `xml:"evaluationMode"`
	EvaluationStatus string               `xml:"evaluationStatus"`
	Descriptions     []quakemlDescription `xml:"description"`
	CreationInfo     *struct {
		Author string `xml:"author"`
	} `xml:"creationInfo"`
}

type quakemlDescription struct {
	Text string `xml:"text"`
	Type string `xml:"type"`
}

type quakemlMagnitude struct {
	PublicID string `xml:"publicID,attr"`
	Mag      struct {
		Value       float64  `xml:"value"`
		Uncertainty *float64 `xml:"uncertainty"`
	} `xml:"mag"`
	Type string `xml:"type"`
}

// magnitudePreference ranks magnitude types when preferredMagnitudeID is
// absent, e.g. ISC's feed (spec.md §4.2 step 3).
var magnitudePreference = []string{"mw", "mb", "ms"}

func (p QuakeMLParser) Parse(rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent {
	var doc quakemlRoot
	if err := xml.Unmarshal(rawPayload, &doc); err != nil {
		return nil
	}

	events := make([]domain.NormalizedEvent, 0, len(doc.EventParameters.Events))
	for _, ev := range doc.EventParameters.Events {
		e, ok := p.safeNormalize(ev, fetchedAt)
		if !ok {
			continue
		}
		events = append(events, e)
	}
	return events
}

// safeNormalize recovers from any unexpected panic in normalizeEvent so one
// malformed event never fails the batch, matching the try/except-per-event
// semantics of the source this was ported from.
func (p QuakeMLParser) safeNormalize(ev quakemlEvent, fetchedAt time.Time) (out domain.NormalizedEvent, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return p.normalizeEvent(ev, fetchedAt)
}

func (p QuakeMLParser) normalizeEvent(ev quakemlEvent, fetchedAt time.Time) (domain.NormalizedEvent, bool) {
	eventID := extractEventID(strings.TrimSpace(ev.PublicID))
	if eventID == "" {
		return domain.NormalizedEvent{}, false
	}

	origin, ok := selectOrigin(strings.TrimSpace(ev.PreferredOriginID), ev.Origins)
	if !ok {
		return domain.NormalizedEvent{}, false
	}

	mag, ok := selectMagnitude(strings.TrimSpace(ev.PreferredMagnitudeID), ev.Magnitudes)
	if !ok {
		return domain.NormalizedEvent{}, false
	}

	originTime, err := parseQuakeMLTime(origin.Time.Value)
	if err != nil {
		return domain.NormalizedEvent{}, false
	}

	var depthKM float64
	var depthErrKM *float64
	if origin.Depth != nil {
		depthKM = origin.Depth.Value / 1000
		if origin.Depth.Uncertainty != nil {
			v := *origin.Depth.Uncertainty / 1000
			depthErrKM = &v
		}
	}

	var latErrKM, lonErrKM, magErr *float64
	if origin.Latitude.Uncertainty != nil {
		v := *origin.Latitude.Uncertainty
		latErrKM = &v
	}
	if origin.Longitude.Uncertainty != nil {
		v := *origin.Longitude.Uncertainty
		lonErrKM = &v
	}
	if mag.Mag.Uncertainty != nil {
		v := *mag.Mag.Uncertainty
		magErr = &v
	}

	author := ""
	if origin.CreationInfo != nil {
		author = origin.CreationInfo.Author
	}

	return domain.NormalizedEvent{
		EventUID:       string(p.DefaultSource) + ":" + eventID,
		Source:         p.DefaultSource,
		SourceEventID:  eventID,
		OriginTimeUTC:  originTime,
		Latitude:       origin.Latitude.Value,
		Longitude:      domain.NormalizeLongitude(origin.Longitude.Value),
		DepthKM:        depthKM,
		MagnitudeValue: mag.Mag.Value,
		MagnitudeType:  strings.ToLower(mag.Type),
		Place:          extractPlace(origin.Descriptions),
		Status:         mapQuakeMLStatus(origin.EvaluationMode, origin.EvaluationStatus),
		Author:         author,
		LatErrorKM:     latErrKM,
		LonErrorKM:     lonErrKM,
		DepthErrorKM:   depthErrKM,
		MagError:       magErr,
		FetchedAt:      fetchedAt,
	}, true
}

// extractEventID implements spec.md §4.2 step 1's priority order: evid=
// (ISC convention), then the final path segment, then the URI fragment,
// then the publicID verbatim.
func extractEventID(publicID string) string {
	if publicID == "" {
		return ""
	}
	if idx := strings.Index(publicID, "evid="); idx != -1 {
		return publicID[idx+len("evid="):]
	}
	if idx := strings.LastIndex(publicID, "/"); idx != -1 {
		return publicID[idx+1:]
	}
	if idx := strings.Index(publicID, "#"); idx != -1 {
		return publicID[idx+1:]
	}
	return publicID
}

func selectOrigin(preferredID string, origins []quakemlOrigin) (quakemlOrigin, bool) {
	if preferredID != "" {
		for _, o := range origins {
			if o.PublicID == preferredID {
				return o, true
			}
		}
	}
	if len(origins) == 0 {
		return quakemlOrigin{}, false
	}
	return origins[0], true
}

// selectMagnitude applies the preferredMagnitudeID match, falling back to
// the mw/mb/ms preference order (spec.md §4.2 step 3) for feeds like ISC
// that omit preferredMagnitudeID. Earlier document-order entries win ties.
func selectMagnitude(preferredID string, mags []quakemlMagnitude) (quakemlMagnitude, bool) {
	if preferredID != "" {
		for _, m := range mags {
			if m.PublicID == preferredID {
				return m, true
			}
		}
	}
	if len(mags) == 0 {
		return quakemlMagnitude{}, false
	}

	best := 0
	bestRank := magnitudeRank(mags[0].Type)
	for i := 1; i < len(mags); i++ {
		if r := magnitudeRank(mags[i].Type); r < bestRank {
			best, bestRank = i, r
		}
	}
	return mags[best], true
}

func magnitudeRank(magType string) int {
	t := strings.ToLower(magType)
	for i, p := range magnitudePreference {
		if t == p {
			return i
		}
	}
	return len(magnitudePreference)
}

// extractPlace prefers a Flinn-Engdahl region or region-name description,
// then the first description present, matching spec.md §4.2 step 7.
func extractPlace(descs []quakemlDescription) string {
	for _, d := range descs {
		t := strings.ToLower(strings.TrimSpace(d.Type))
		if t == "flinn-engdahl region" || t == "region name" {
			return strings.TrimSpace(d.Text)
		}
	}
	if len(descs) > 0 {
		return strings.TrimSpace(descs[0].Text)
	}
	return ""
}

// mapQuakeMLStatus implements spec.md §4.2 step 6, collapsing
// confirmed/final into reviewed per DESIGN.md's Open Question decision.
func mapQuakeMLStatus(mode, status string) domain.Status {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "manual":
		return domain.StatusReviewed
	case "automatic":
		return domain.StatusAutomatic
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "reviewed", "confirmed", "final":
		return domain.StatusReviewed
	}
	return domain.StatusAutomatic
}

var quakeMLTimePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(\.\d+)?(Z|[+-]\d{2}:\d{2})?$`)

// parseQuakeMLTime implements spec.md §4.2 step 8: fractional seconds are
// right-padded or truncated to exactly 6 digits before parsing, Z means
// +00:00, and an absent zone is assumed UTC.
func parseQuakeMLTime(raw string) (time.Time, error) {
	m := quakeMLTimePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return time.Time{}, fmt.Errorf("unparseable quakeml timestamp %q", raw)
	}
	base, frac, zone := m[1], m[2], m[3]

	digits := ""
	if frac != "" {
		digits = frac[1:]
	}
	if len(digits) > 6 {
		digits = digits[:6]
	} else {
		digits += strings.Repeat("0", 6-len(digits))
	}

	if zone == "" || zone == "Z" {
		zone = "+00:00"
	}

	t, err := time.Parse(time.RFC3339Nano, base+"."+digits+zone)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
