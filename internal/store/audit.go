package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakestream/quakestream/internal/ingest"
)

// AuditStore records one row per ingestion pipeline run.
type AuditStore struct {
	pool *pgxpool.Pool
}

func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

// LogPipelineRun implements ingest.AuditSink.
func (s *AuditStore) LogPipelineRun(ctx context.Context, audit ingest.PipelineRunAudit) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_run_audit (
			run_id, end_time, status, source_name, raw_count, dead_letter_count, duration_s
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, audit.RunID, audit.EndTime, audit.Status, audit.SourceName, audit.RawCount, audit.DeadLetterCount, audit.DurationS)
	if err != nil {
		return fmt.Errorf("insert pipeline run audit: %w", err)
	}
	return nil
}
