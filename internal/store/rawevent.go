package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakestream/quakestream/internal/domain"
)

// RawEventStore is the append-only sink for accepted NormalizedEvents and
// the source the dedup pass loads its lookback window from. Duplicates
// (same event_uid, re-fetched on an overlapping window) are permitted; they
// collapse during clustering.
type RawEventStore struct {
	pool *pgxpool.Pool
}

func NewRawEventStore(pool *pgxpool.Pool) *RawEventStore {
	return &RawEventStore{pool: pool}
}

// InsertRawEvents implements ingest.RawEventSink.
func (s *RawEventStore) InsertRawEvents(ctx context.Context, events []domain.NormalizedEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO raw_events (
				event_uid, source, source_event_id, origin_time_utc,
				latitude, longitude, depth_km, magnitude_value, magnitude_type,
				place, region, lat_error_km, lon_error_km, depth_error_km, mag_error,
				status, author, fetched_at, raw_payload
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		`,
			e.EventUID, e.Source, e.SourceEventID, e.OriginTimeUTC,
			e.Latitude, e.Longitude, e.DepthKM, e.MagnitudeValue, e.MagnitudeType,
			e.Place, e.Region, e.LatErrorKM, e.LonErrorKM, e.DepthErrorKM, e.MagError,
			e.Status, e.Author, e.FetchedAt, e.RawPayload,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range events {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("insert raw event: %w", err)
		}
	}
	return len(events), nil
}

// LoadWindow implements dedup.RawEventLoader: every raw event with
// origin_time_utc >= since, ascending by origin_time_utc.
func (s *RawEventStore) LoadWindow(ctx context.Context, since time.Time) ([]domain.EventRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT event_uid, source, source_event_id, origin_time_utc,
		       latitude, longitude, depth_km, magnitude_value, magnitude_type,
		       place, region, status
		FROM raw_events
		WHERE origin_time_utc >= $1
		ORDER BY origin_time_utc ASC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query raw events: %w", err)
	}
	defer rows.Close()

	var records []domain.EventRecord
	for rows.Next() {
		var r domain.EventRecord
		if err := rows.Scan(
			&r.EventUID, &r.Source, &r.SourceEventID, &r.OriginTimeUTC,
			&r.Latitude, &r.Longitude, &r.DepthKM, &r.MagnitudeValue, &r.MagnitudeType,
			&r.Place, &r.Region, &r.Status,
		); err != nil {
			return nil, fmt.Errorf("scan raw event: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate raw events: %w", err)
	}
	return records, nil
}
