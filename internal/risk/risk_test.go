package risk

import (
	"testing"

	"github.com/alejandrodnm/arbot/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestManager_CheckPosition(t *testing.T) {
	m := NewManager(0.10, 0.20)
	pos := domain.Position{MarketID: "m1", Shares: 100, EntryCost: 95}

	// Mark at 0.95 → flat
	exit, reason := m.CheckPosition(pos, 0.45, 0.50)
	assert.False(t, exit)
	assert.Equal(t, domain.ExitHold, reason)

	// Mark collapses to 0.80 → -15.8% < -10% stop
	exit, reason = m.CheckPosition(pos, 0.40, 0.40)
	assert.True(t, exit)
	assert.Equal(t, domain.ExitStopLoss, reason)

	// Mark rallies to 1.20 → +26% > +20% take-profit
	exit, reason = m.CheckPosition(pos, 0.60, 0.60)
	assert.True(t, exit)
	assert.Equal(t, domain.ExitTakeProfit, reason)
}

func TestManager_CheckPosition_EmptyPosition(t *testing.T) {
	m := NewManager(0.10, 0.20)
	exit, reason := m.CheckPosition(domain.Position{}, 0.5, 0.5)
	assert.False(t, exit)
	assert.Equal(t, domain.ExitHold, reason)
}

func TestAllocator_ScalesWithROI(t *testing.T) {
	a := NewAllocator(100, 1)

	low := a.Allocation(1.0, 1.0, 0)  // 1% roi → 20% of base
	high := a.Allocation(10.0, 1.0, 0) // capped at full base

	assert.True(t, low.ShouldTrade)
	assert.InDelta(t, 20.0, low.AllocatedCapital, 1e-9)
	assert.True(t, high.ShouldTrade)
	assert.InDelta(t, 100.0, high.AllocatedCapital, 1e-9)
}

func TestAllocator_DampsOnLosingDay(t *testing.T) {
	a := NewAllocator(100, 1)

	flat := a.Allocation(10, 1.0, 0)
	losing := a.Allocation(10, 1.0, -50)
	crushed := a.Allocation(10, 1.0, -500)

	assert.Less(t, losing.AllocatedCapital, flat.AllocatedCapital)
	// Floor: never below 25% of the undamped allocation
	assert.InDelta(t, flat.AllocatedCapital*0.25, crushed.AllocatedCapital, 1e-9)
}

func TestAllocator_Rejections(t *testing.T) {
	a := NewAllocator(100, 5)

	assert.False(t, a.Allocation(0, 1, 0).ShouldTrade)
	assert.False(t, a.Allocation(-2, 1, 0).ShouldTrade)

	// 0.1% roi × base 100 = $2 < minOrder $5
	tiny := a.Allocation(0.1, 1.0, 0)
	assert.False(t, tiny.ShouldTrade)
	assert.Zero(t, tiny.AllocatedCapital)
}

func TestAllocator_UnknownQualityIsNeutral(t *testing.T) {
	a := NewAllocator(100, 1)

	unknown := a.Allocation(10, 0, 0)
	assert.InDelta(t, 50.0, unknown.AllocatedCapital, 1e-9)
}
