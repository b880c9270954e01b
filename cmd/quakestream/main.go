// Command quakestream runs one of two service shapes from the same binary:
// an ingestion-service instance when SOURCE_NAME is set, or the dedup
// service when it is unset, per spec.md §6's "Environment" note.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/quakestream/quakestream/internal/config"
	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/httpapi"
	"github.com/quakestream/quakestream/internal/ingest"
	"github.com/quakestream/quakestream/internal/observability"
	"github.com/quakestream/quakestream/internal/scheduler"
	"github.com/quakestream/quakestream/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	rawStore := store.NewRawEventStore(pool)
	deadStore := store.NewDeadLetterStore(pool)
	auditStore := store.NewAuditStore(pool)
	unifiedStore := store.NewUnifiedCrosswalkStore(pool)
	fetcher := ingest.NewHTTPFetcher()
	fetchCache := ingest.NewFetchCache(cfg.FetchCacheSize)

	sched := scheduler.New(logger)

	httpCfg := httpapi.Config{
		Addr:       cfg.HTTPAddr,
		SourceName: cfg.SourceName,
		Ready:      poolReadiness{pool: pool},
	}

	if cfg.SourceName != "" {
		runner := ingestRunner{
			cfg: cfg,
			deps: func(source domain.Source) ingest.Dependencies {
				return ingest.Dependencies{
					Fetcher:   fetcher,
					RawSink:   rawStore,
					DeadSink:  deadStore,
					AuditSink: auditStore,
					Cache:     fetchCache,
					Metrics:   metrics,
					Logger:    logger,
				}
			},
			metrics: metrics,
		}
		httpCfg.Ingest = runner

		if err := sched.AddTask("ingest:"+cfg.SourceName, "*/5 * * * *", func(ctx context.Context) error {
			_, err := runner.RunIngest(ctx, cfg.SourceName)
			return err
		}); err != nil {
			logger.Error("failed to schedule ingest task", "error", err)
			os.Exit(1)
		}
	} else {
		runner := dedupRunner{
			cfg:     cfg,
			loader:  rawStore,
			txStore: unifiedStore,
			metrics: metrics,
			logger:  logger,
		}
		httpCfg.Dedup = runner

		if err := sched.AddTask("dedup", "*/5 * * * *", func(ctx context.Context) error {
			_, err := runner.RunDedup(ctx)
			return err
		}); err != nil {
			logger.Error("failed to schedule dedup task", "error", err)
			os.Exit(1)
		}
	}

	srv := httpapi.NewServer(httpCfg, logger)
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
