package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakestream/quakestream/internal/ingest"
)

// DeadLetterStore is the append-only sink for rejected payloads and records.
type DeadLetterStore struct {
	pool *pgxpool.Pool
}

func NewDeadLetterStore(pool *pgxpool.Pool) *DeadLetterStore {
	return &DeadLetterStore{pool: pool}
}

// InsertDeadLetter implements ingest.DeadLetterSink.
func (s *DeadLetterStore) InsertDeadLetter(ctx context.Context, rows []ingest.DeadLetterRow) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO dead_letters (source, source_event_id, raw_payload, errors)
			VALUES ($1, $2, $3, $4)
		`, r.Source, r.SourceEventID, r.RawPayload, r.Errors)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert dead letter: %w", err)
		}
	}
	return nil
}
