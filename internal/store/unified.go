package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakestream/quakestream/internal/dedup"
	"github.com/quakestream/quakestream/internal/domain"
)

// UnifiedCrosswalkStore upserts unified events and their crosswalk rows.
// spec.md §4.5.6 requires the whole dedup pass to commit-or-none at the
// store's granularity; InTransaction is the only write path, and the
// UpsertUnifiedEvent/UpsertCrosswalkEntry methods exist only on the
// tx-scoped store it hands to the caller.
type UnifiedCrosswalkStore struct {
	pool *pgxpool.Pool
}

func NewUnifiedCrosswalkStore(pool *pgxpool.Pool) *UnifiedCrosswalkStore {
	return &UnifiedCrosswalkStore{pool: pool}
}

// InTransaction runs fn against a tx-scoped dedup.UnifiedStore, committing
// on success and rolling back on error or panic.
func (s *UnifiedCrosswalkStore) InTransaction(ctx context.Context, fn func(dedup.UnifiedStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&txUnifiedStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txUnifiedStore struct {
	tx pgx.Tx
}

func (s *txUnifiedStore) UpsertUnifiedEvent(ctx context.Context, e domain.UnifiedEvent) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO unified_events (
			unified_event_id, origin_time_utc, latitude, longitude, depth_km,
			magnitude_value, magnitude_type, place, region, status,
			num_sources, preferred_source, preferred_event_uid,
			magnitude_std, location_spread_km, source_agreement_score, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now())
		ON CONFLICT (unified_event_id) DO UPDATE SET
			origin_time_utc = EXCLUDED.origin_time_utc,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			depth_km = EXCLUDED.depth_km,
			magnitude_value = EXCLUDED.magnitude_value,
			magnitude_type = EXCLUDED.magnitude_type,
			place = EXCLUDED.place,
			region = EXCLUDED.region,
			status = EXCLUDED.status,
			num_sources = EXCLUDED.num_sources,
			preferred_source = EXCLUDED.preferred_source,
			preferred_event_uid = EXCLUDED.preferred_event_uid,
			magnitude_std = EXCLUDED.magnitude_std,
			location_spread_km = EXCLUDED.location_spread_km,
			source_agreement_score = EXCLUDED.source_agreement_score,
			updated_at = now()
	`,
		e.UnifiedEventID, e.OriginTimeUTC, e.Latitude, e.Longitude, e.DepthKM,
		e.MagnitudeValue, e.MagnitudeType, e.Place, e.Region, e.Status,
		e.NumSources, e.PreferredSource, e.PreferredEventID,
		e.MagnitudeStd, e.LocationSpreadKM, e.SourceAgreementScore,
	)
	if err != nil {
		return fmt.Errorf("upsert unified event: %w", err)
	}
	return nil
}

func (s *txUnifiedStore) UpsertCrosswalkEntry(ctx context.Context, e domain.CrosswalkEntry) error {
	_, err := s.tx.Exec(ctx, `
		INSERT INTO crosswalk_entries (event_uid, unified_event_id, match_score, is_preferred)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_uid, unified_event_id) DO UPDATE SET
			match_score = EXCLUDED.match_score,
			is_preferred = EXCLUDED.is_preferred
	`, e.EventUID, e.UnifiedEventID, e.MatchScore, e.IsPreferred)
	if err != nil {
		return fmt.Errorf("upsert crosswalk entry: %w", err)
	}
	return nil
}
