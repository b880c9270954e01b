package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quakestream/quakestream/internal/config"
	"github.com/quakestream/quakestream/internal/dedup"
	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/httpapi"
	"github.com/quakestream/quakestream/internal/ingest"
	"github.com/quakestream/quakestream/internal/observability"
	"github.com/quakestream/quakestream/internal/store"
)

// poolReadiness adapts a pgxpool.Pool to httpapi.ReadinessChecker.
type poolReadiness struct {
	pool *pgxpool.Pool
}

func (p poolReadiness) CheckReadiness(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// ingestRunner adapts ingest.RunSourcePipeline to httpapi.IngestRunner.
type ingestRunner struct {
	cfg     *config.Config
	deps    func(domain.Source) ingest.Dependencies
	metrics *observability.Metrics
}

func (r ingestRunner) RunIngest(ctx context.Context, sourceName string) (httpapi.RunResult, error) {
	source := domain.Source(sourceName)
	sc, ok := r.cfg.Sources[source]
	if !ok {
		return httpapi.RunResult{}, fmt.Errorf("unknown source %q", sourceName)
	}

	report, err := ingest.RunSourcePipeline(ctx, source, sc, r.deps(source))
	if err != nil {
		return httpapi.RunResult{}, err
	}

	return httpapi.RunResult{
		RunID:       report.RunID,
		Source:      string(report.Source),
		RawEvents:   report.RawEvents,
		DeadLetters: report.DeadLetters,
		DurationS:   report.DurationS,
	}, nil
}

// dedupRunner adapts dedup.RunDedupPass to httpapi.DedupRunner, wrapping the
// whole pass in one transaction per spec.md §4.5.6.
type dedupRunner struct {
	cfg       *config.Config
	loader    dedup.RawEventLoader
	txStore   *store.UnifiedCrosswalkStore
	metrics   *observability.Metrics
	logger    *slog.Logger
}

func (r dedupRunner) RunDedup(ctx context.Context) (httpapi.RunResult, error) {
	start := domain.Now()
	opts := dedup.Options{LookbackHours: r.cfg.LookbackHours, UseSpatialPrepass: r.cfg.UseSpatialPrepass}

	var report dedup.Report
	err := r.txStore.InTransaction(ctx, func(us dedup.UnifiedStore) error {
		var runErr error
		report, runErr = dedup.RunDedupPass(ctx, r.loader, us, opts)
		return runErr
	})
	if err != nil {
		return httpapi.RunResult{}, err
	}

	r.metrics.DedupClusters.Add(float64(report.Clusters))
	r.metrics.DedupUnifiedEvents.Add(float64(report.UnifiedEvents))
	r.metrics.DedupRecordsLoaded.Add(float64(report.RecordsLoaded))
	r.metrics.DedupPassDuration.Observe(domain.Now().Sub(start).Seconds())

	return httpapi.RunResult{
		RunID:     fmt.Sprintf("dedup-%d", domain.Now().UnixNano()),
		Clusters:  report.Clusters,
		DurationS: report.DurationS,
	}, nil
}
