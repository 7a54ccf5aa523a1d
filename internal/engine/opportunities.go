package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// OpportunityManager caches the currently-profitable YES/NO pairs keyed by
// market. Each book update flows through Update: a profitable pair refreshes
// the cache entry, an unprofitable one evicts it. Executed entries stay
// cached (excluded from Best) so the same cycle cannot re-detect them;
// ClearStale sweeps entries whose detection aged out.
type OpportunityManager struct {
	mu    sync.Mutex
	cache map[string]domain.Opportunity
}

// NewOpportunityManager creates an empty cache. One per engine instance.
func NewOpportunityManager() *OpportunityManager {
	return &OpportunityManager{cache: make(map[string]domain.Opportunity)}
}

// Update re-evaluates a market against a fresh price pair.
//
// cost <= 0 or cost >= 1-minProfitMargin is a normal no-opportunity outcome:
// any cached entry is removed and nil is returned. Otherwise the entry is
// created/overwritten with a fresh DetectedAt and Executed=false.
func (om *OpportunityManager) Update(
	marketID, yesToken, noToken string,
	yesPrice, noPrice, minProfitMargin float64,
) *domain.Opportunity {
	cost := yesPrice + noPrice

	om.mu.Lock()
	defer om.mu.Unlock()

	if cost <= 0 || cost >= 1.0-minProfitMargin {
		delete(om.cache, marketID)
		return nil
	}

	opp := domain.NewOpportunity(marketID, yesToken, noToken, yesPrice, noPrice)
	om.cache[marketID] = opp
	return &opp
}

// Get returns the cached opportunity for a market, if any.
func (om *OpportunityManager) Get(marketID string) (domain.Opportunity, bool) {
	om.mu.Lock()
	defer om.mu.Unlock()
	opp, ok := om.cache[marketID]
	return opp, ok
}

// Best returns up to n unexecuted opportunities sorted by ROI descending.
func (om *OpportunityManager) Best(n int) []domain.Opportunity {
	om.mu.Lock()
	defer om.mu.Unlock()

	out := make([]domain.Opportunity, 0, len(om.cache))
	for _, opp := range om.cache {
		if !opp.Executed {
			out = append(out, opp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ROIPercent > out[j].ROIPercent
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// MarkExecuted flags the market's cached entry as executed. The entry is
// kept, not deleted: deleting it would let the very next book update
// re-detect the same prices and fire again.
func (om *OpportunityManager) MarkExecuted(marketID string) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if opp, ok := om.cache[marketID]; ok {
		opp.Executed = true
		om.cache[marketID] = opp
	}
}

// ClearStale evicts entries detected more than maxAge ago and returns how
// many were dropped.
func (om *OpportunityManager) ClearStale(maxAge time.Duration) int {
	now := time.Now().UTC()

	om.mu.Lock()
	defer om.mu.Unlock()

	dropped := 0
	for id, opp := range om.cache {
		if opp.Age(now) > maxAge {
			delete(om.cache, id)
			dropped++
		}
	}
	return dropped
}

// Len returns the number of cached entries, executed included.
func (om *OpportunityManager) Len() int {
	om.mu.Lock()
	defer om.mu.Unlock()
	return len(om.cache)
}
