package parser

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/quakestream/quakestream/internal/domain"
)

// FDSNTextParser parses the FDSN pipe-delimited text format. Header lines
// begin with '#' and are skipped; each data line has 13 pipe-separated
// columns:
//
//	EventID|Time|Latitude|Longitude|Depth/km|Author|Catalog|Contributor|
//	ContributorID|MagType|Magnitude|MagAuthor|EventLocationName
type FDSNTextParser struct {
	Source domain.Source
	// ReviewedCatalogs names the catalogs this deployment treats as
	// reviewed-bulletin catalogs; every other catalog reports automatic.
	ReviewedCatalogs map[string]bool
}

const fdsnColumnCount = 13

func (p FDSNTextParser) Parse(rawPayload []byte, fetchedAt time.Time) []domain.NormalizedEvent {
	events := make([]domain.NormalizedEvent, 0)

	scanner := bufio.NewScanner(bytes.NewReader(rawPayload))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cols := strings.Split(line, "|")
		if len(cols) != fdsnColumnCount {
			continue
		}

		e, ok := p.normalizeLine(cols, fetchedAt)
		if !ok {
			continue
		}
		events = append(events, e)
	}

	return events
}

func (p FDSNTextParser) normalizeLine(cols []string, fetchedAt time.Time) (domain.NormalizedEvent, bool) {
	eventID := strings.TrimSpace(cols[0])
	if eventID == "" {
		return domain.NormalizedEvent{}, false
	}

	originTime, err := time.Parse(time.RFC3339, normalizeFDSNTimestamp(cols[1]))
	if err != nil {
		return domain.NormalizedEvent{}, false
	}

	lat, errLat := strconv.ParseFloat(strings.TrimSpace(cols[2]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(cols[3]), 64)
	depth, errDepth := strconv.ParseFloat(strings.TrimSpace(cols[4]), 64)
	mag, errMag := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
	if errLat != nil || errLon != nil || errDepth != nil || errMag != nil {
		return domain.NormalizedEvent{}, false
	}

	author := strings.TrimSpace(cols[5])
	catalog := strings.TrimSpace(cols[6])
	magType := strings.ToLower(strings.TrimSpace(cols[9]))
	place := strings.TrimSpace(cols[12])

	status := domain.StatusAutomatic
	if p.ReviewedCatalogs[catalog] {
		status = domain.StatusReviewed
	}

	return domain.NormalizedEvent{
		EventUID:       string(p.Source) + ":" + eventID,
		Source:         p.Source,
		SourceEventID:  eventID,
		OriginTimeUTC:  originTime.UTC(),
		Latitude:       lat,
		Longitude:      domain.NormalizeLongitude(lon),
		DepthKM:        depth,
		MagnitudeValue: mag,
		MagnitudeType:  magType,
		Place:          place,
		Region:         place,
		Status:         status,
		Author:         author,
		FetchedAt:      fetchedAt,
	}, true
}

// normalizeFDSNTimestamp assumes UTC when no zone suffix is present by
// appending "Z". Any fractional seconds are left as given; time.RFC3339
// parsing accepts them without padding.
func normalizeFDSNTimestamp(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.ContainsAny(s, "Zz+") && strings.Count(s, "-") <= 2 {
		s += "Z"
	}
	return s
}
