package backtest

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/arbot/internal/ports"
)

// pairResolver maps a market to its (yes, no) token pair during a replay.
//
// It prefers the explicit metadata in the snapshot store. When a market has
// no stored metadata, it falls back to pairing the first two distinct tokens
// observed for that market, in discovery order — old archives predate the
// metadata table and this keeps them replayable.
type pairResolver struct {
	store    ports.SnapshotStore
	resolved map[string][2]string // marketID → (yes, no)
	observed map[string][]string  // marketID → tokens seen, discovery order
	missing  map[string]bool      // marketID → metadata lookup already failed
}

func newPairResolver(store ports.SnapshotStore) *pairResolver {
	return &pairResolver{
		store:    store,
		resolved: make(map[string][2]string),
		observed: make(map[string][]string),
		missing:  make(map[string]bool),
	}
}

// resolve records the observed token and returns the market's pair if it is
// known (or became known with this observation).
func (pr *pairResolver) resolve(ctx context.Context, marketID, tokenID string) (yes, no string, ok bool) {
	if pair, done := pr.resolved[marketID]; done {
		return pair[0], pair[1], true
	}

	pr.observe(marketID, tokenID)

	// Metadata first; one lookup per market.
	if !pr.missing[marketID] {
		mt, found, err := pr.store.MarketTokens(ctx, marketID)
		if err != nil {
			slog.Debug("backtest: market metadata lookup failed",
				"market", marketID, "err", err)
		}
		if found && mt.YesTokenID != "" && mt.NoTokenID != "" {
			pr.resolved[marketID] = [2]string{mt.YesTokenID, mt.NoTokenID}
			return mt.YesTokenID, mt.NoTokenID, true
		}
		pr.missing[marketID] = true
	}

	// Fallback: first two distinct tokens observed, in discovery order.
	seen := pr.observed[marketID]
	if len(seen) >= 2 {
		pr.resolved[marketID] = [2]string{seen[0], seen[1]}
		return seen[0], seen[1], true
	}
	return "", "", false
}

func (pr *pairResolver) observe(marketID, tokenID string) {
	for _, t := range pr.observed[marketID] {
		if t == tokenID {
			return
		}
	}
	pr.observed[marketID] = append(pr.observed[marketID], tokenID)
}
