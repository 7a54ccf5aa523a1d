package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityManager_Update_UnprofitableReturnsNil(t *testing.T) {
	om := NewOpportunityManager()

	// cost = 1.00 >= 0.98 target → no opportunity
	opp := om.Update("m1", "y1", "n1", 0.45, 0.55, 0.02)

	assert.Nil(t, opp)
	_, ok := om.Get("m1")
	assert.False(t, ok)
}

func TestOpportunityManager_Update_ProfitablePairCached(t *testing.T) {
	om := NewOpportunityManager()

	opp := om.Update("m2", "y2", "n2", 0.40, 0.40, 0.02)

	require.NotNil(t, opp)
	assert.InDelta(t, 0.80, opp.Cost, 1e-9)
	assert.InDelta(t, 25.0, opp.ROIPercent, 1e-9)

	cached, ok := om.Get("m2")
	require.True(t, ok)
	assert.Equal(t, *opp, cached)
}

func TestOpportunityManager_Update_EvictsWhenNoLongerProfitable(t *testing.T) {
	om := NewOpportunityManager()

	require.NotNil(t, om.Update("m1", "y", "n", 0.40, 0.40, 0.02))

	// Market moved: pair now costs 0.99
	assert.Nil(t, om.Update("m1", "y", "n", 0.49, 0.50, 0.02))
	_, ok := om.Get("m1")
	assert.False(t, ok, "entry must be evicted on unprofitable update")
}

func TestOpportunityManager_Update_RejectsNonPositiveCost(t *testing.T) {
	om := NewOpportunityManager()
	assert.Nil(t, om.Update("m1", "y", "n", 0, 0, 0.02))
}

func TestOpportunityManager_Best_RanksByROI(t *testing.T) {
	om := NewOpportunityManager()

	om.Update("m1", "y1", "n1", 0.45, 0.55, 0.02) // unprofitable, dropped
	om.Update("m2", "y2", "n2", 0.40, 0.40, 0.02) // roi 25%
	om.Update("m3", "y3", "n3", 0.45, 0.45, 0.02) // roi ~11%

	best := om.Best(1)
	require.Len(t, best, 1)
	assert.Equal(t, "m2", best[0].MarketID)

	all := om.Best(5)
	require.Len(t, all, 2)
	assert.Equal(t, "m2", all[0].MarketID)
	assert.Equal(t, "m3", all[1].MarketID)
}

func TestOpportunityManager_MarkExecuted_ExcludedFromBest(t *testing.T) {
	om := NewOpportunityManager()
	om.Update("m2", "y", "n", 0.40, 0.40, 0.02)

	om.MarkExecuted("m2")

	assert.Empty(t, om.Best(5))

	// Still cached — re-detection within the cycle stays suppressed
	cached, ok := om.Get("m2")
	require.True(t, ok)
	assert.True(t, cached.Executed)
}

func TestOpportunityManager_ClearStale(t *testing.T) {
	om := NewOpportunityManager()

	fresh := om.Update("fresh", "y", "n", 0.40, 0.40, 0.02)
	require.NotNil(t, fresh)

	stale := om.Update("stale", "y", "n", 0.42, 0.42, 0.02)
	require.NotNil(t, stale)
	old := om.cache["stale"]
	old.DetectedAt = time.Now().UTC().Add(-10 * time.Minute)
	om.cache["stale"] = old

	dropped := om.ClearStale(5 * time.Minute)

	assert.Equal(t, 1, dropped)
	_, ok := om.Get("stale")
	assert.False(t, ok)
	_, ok = om.Get("fresh")
	assert.True(t, ok)
}
