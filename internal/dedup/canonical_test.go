package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quakestream/quakestream/internal/domain"
)

func TestSelectPreferred_RestrictsToReviewedWhenAnyPresent(t *testing.T) {
	members := []domain.EventRecord{
		{EventUID: "isc:1", Source: domain.SourceISC, Status: domain.StatusAutomatic},
		{EventUID: "emsc:1", Source: domain.SourceEMSC, Status: domain.StatusReviewed},
	}
	priority := []domain.Source{domain.SourceISC, domain.SourceEMSC}
	got := SelectPreferred(members, priority)
	assert.Equal(t, "emsc:1", got.EventUID)
}

func TestSelectPreferred_UnlistedSourcesRankLast(t *testing.T) {
	members := []domain.EventRecord{
		{EventUID: "geonet:1", Source: domain.SourceGeonet},
		{EventUID: "usgs:1", Source: domain.SourceUSGS},
	}
	priority := []domain.Source{domain.SourceUSGS, domain.SourceEMSC}
	got := SelectPreferred(members, priority)
	assert.Equal(t, "usgs:1", got.EventUID)
}

func TestWeightedCentroid_FallsBackToAnchorWhenNoWeight(t *testing.T) {
	anchor := domain.EventRecord{Latitude: 1, Longitude: 2, DepthKM: 3}
	lat, lon, depth := WeightedCentroid(nil, nil, anchor)
	assert.Equal(t, 1.0, lat)
	assert.Equal(t, 2.0, lon)
	assert.Equal(t, 3.0, depth)
}

func TestUnifiedEventID_StableUnderReorder(t *testing.T) {
	a := []domain.EventRecord{{EventUID: "usgs:1"}, {EventUID: "emsc:1"}}
	b := []domain.EventRecord{{EventUID: "emsc:1"}, {EventUID: "usgs:1"}}
	assert.Equal(t, UnifiedEventID(a), UnifiedEventID(b))
}

func TestUnifiedEventID_ChangesWithMembership(t *testing.T) {
	a := []domain.EventRecord{{EventUID: "usgs:1"}}
	b := []domain.EventRecord{{EventUID: "usgs:1"}, {EventUID: "emsc:1"}}
	assert.NotEqual(t, UnifiedEventID(a), UnifiedEventID(b))
}

func TestSourceAgreementScore_BoundedZeroToOne(t *testing.T) {
	members := []domain.EventRecord{
		{Source: domain.SourceUSGS}, {Source: domain.SourceUSGS}, {Source: domain.SourceEMSC},
	}
	score := SourceAgreementScore(members)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
	assert.Equal(t, 0.6667, score)
}
