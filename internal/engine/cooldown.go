package engine

import (
	"sync"
	"time"
)

// CooldownManager enforces a minimum re-trade interval per market.
//
// It is orthogonal to the ExecutionLock: the lock serializes in-flight
// attempts, the cooldown persists across lock release so a market that just
// finished executing (successfully or not) cannot be re-entered immediately.
// Owned by one engine instance, never shared.
type CooldownManager struct {
	cooldown time.Duration
	now      func() time.Time

	mu        sync.Mutex
	lastTrade map[string]time.Time
}

// NewCooldownManager creates a tracker with the given minimum interval.
func NewCooldownManager(cooldown time.Duration) *CooldownManager {
	return NewCooldownManagerWithClock(cooldown, time.Now)
}

// NewCooldownManagerWithClock creates a tracker on an injected clock. The
// backtest drives it with replayed snapshot time so intervals are measured
// in data time, not host time.
func NewCooldownManagerWithClock(cooldown time.Duration, now func() time.Time) *CooldownManager {
	return &CooldownManager{
		cooldown:  cooldown,
		now:       now,
		lastTrade: make(map[string]time.Time),
	}
}

// CanTrade reports whether the market is eligible: never traded, or the
// cooldown has fully elapsed since the last recorded trade.
func (cm *CooldownManager) CanTrade(marketID string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	last, ok := cm.lastTrade[marketID]
	if !ok {
		return true
	}
	return cm.now().Sub(last) >= cm.cooldown
}

// RecordTrade stamps the market with the current time.
func (cm *CooldownManager) RecordTrade(marketID string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.lastTrade[marketID] = cm.now()
}

// TimeRemaining returns how long until the market is eligible again.
// Zero for a market never traded or already past its cooldown.
func (cm *CooldownManager) TimeRemaining(marketID string) time.Duration {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	last, ok := cm.lastTrade[marketID]
	if !ok {
		return 0
	}
	remaining := cm.cooldown - cm.now().Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}
