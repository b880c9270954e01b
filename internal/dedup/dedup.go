package dedup

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quakestream/quakestream/internal/domain"
	"github.com/quakestream/quakestream/internal/region"
)

// RawEventLoader reads the lookback window from the raw-event store.
type RawEventLoader interface {
	LoadWindow(ctx context.Context, since time.Time) ([]domain.EventRecord, error)
}

// UnifiedStore persists the output of a dedup pass. A single pass must
// commit every write or none (spec.md §4.5.6); implementations are expected
// to wrap Upsert in a transaction for the whole pass.
type UnifiedStore interface {
	UpsertUnifiedEvent(ctx context.Context, event domain.UnifiedEvent) error
	UpsertCrosswalkEntry(ctx context.Context, entry domain.CrosswalkEntry) error
}

// Options configures a dedup pass.
type Options struct {
	LookbackHours float64
	// UseSpatialPrepass selects the DBSCAN-equivalent production path when
	// true, and the flat greedy fallback (spec.md §4.5 Step 4) when false.
	UseSpatialPrepass bool
}

// Report summarizes one run_dedup_pass invocation.
type Report struct {
	LookbackHours float64
	RecordsLoaded int
	Clusters      int
	UnifiedEvents int
	DurationS     float64
}

// RunDedupPass implements spec.md §4.5's operation end to end: load the
// window, cluster, select canonical records, compute quality metrics, and
// upsert. An empty window is a no-op success.
func RunDedupPass(ctx context.Context, loader RawEventLoader, store UnifiedStore, opts Options) (Report, error) {
	start := domain.Now()
	since := start.Add(-time.Duration(opts.LookbackHours * float64(time.Hour)))

	records, err := loader.LoadWindow(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("load window: %w", err)
	}
	if len(records) == 0 {
		return Report{LookbackHours: opts.LookbackHours}, nil
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].OriginTimeUTC.Before(records[j].OriginTimeUTC)
	})

	clusters := RunClustering(records, opts.UseSpatialPrepass)

	for _, c := range clusters {
		unified, crosswalk := buildUnifiedEvent(c)
		if err := store.UpsertUnifiedEvent(ctx, unified); err != nil {
			return Report{}, fmt.Errorf("upsert unified event %s: %w", unified.UnifiedEventID, err)
		}
		for _, entry := range crosswalk {
			if err := store.UpsertCrosswalkEntry(ctx, entry); err != nil {
				return Report{}, fmt.Errorf("upsert crosswalk entry %s: %w", entry.EventUID, err)
			}
		}
	}

	return Report{
		LookbackHours: opts.LookbackHours,
		RecordsLoaded: len(records),
		Clusters:      len(clusters),
		UnifiedEvents: len(clusters),
		DurationS:     domain.Now().Sub(start).Seconds(),
	}, nil
}

func buildUnifiedEvent(c domain.Cluster) (domain.UnifiedEvent, []domain.CrosswalkEntry) {
	anchor := c.Anchor()
	meanLat, meanLon := SimpleMean(c.Members)
	priority := region.Priority(meanLat, meanLon)

	preferred := SelectPreferred(c.Members, priority)
	lat, lon, depth := WeightedCentroid(c.Members, priority, anchor)
	unifiedID := UnifiedEventID(c.Members)

	seen := make(map[domain.Source]bool, len(c.Members))
	for _, m := range c.Members {
		seen[m.Source] = true
	}

	unified := domain.UnifiedEvent{
		UnifiedEventID:       unifiedID,
		OriginTimeUTC:        preferred.OriginTimeUTC,
		Latitude:             lat,
		Longitude:            lon,
		DepthKM:              depth,
		MagnitudeValue:       preferred.MagnitudeValue,
		MagnitudeType:        preferred.MagnitudeType,
		Place:                preferred.Place,
		Region:               preferred.Region,
		Status:               preferred.Status,
		NumSources:           len(seen),
		PreferredSource:      preferred.Source,
		PreferredEventID:     preferred.EventUID,
		MagnitudeStd:         MagnitudeStd(c.Members),
		LocationSpreadKM:     LocationSpreadKM(c.Members),
		SourceAgreementScore: SourceAgreementScore(c.Members),
		UpdatedAt:            domain.Now(),
	}

	crosswalk := make([]domain.CrosswalkEntry, 0, len(c.Members))
	for _, m := range c.Members {
		isPreferred := m.EventUID == preferred.EventUID
		score := 1.0
		if !isPreferred {
			score = MatchScore(preferred, m)
		}
		crosswalk = append(crosswalk, domain.CrosswalkEntry{
			EventUID:       m.EventUID,
			UnifiedEventID: unifiedID,
			MatchScore:     score,
			IsPreferred:    isPreferred,
		})
	}

	return unified, crosswalk
}
