package engine

// positions.go — open pair positions and the stop-loss/take-profit sweep.
//
// A filled YES+NO pair normally just waits for resolution, so this is not
// an exit pipeline: the risk manager raises a signal when the mark value
// dislocates past its thresholds, and the exit itself is manual. A flagged
// position is dropped from the book so the signal fires once.

import (
	"log/slog"
	"sync"

	"github.com/alejandrodnm/arbot/internal/domain"
)

type openPosition struct {
	pos      domain.Position
	yesToken string
	noToken  string
}

// PositionBook tracks the pair positions this engine opened and has not yet
// flagged for exit. One entry per market; repeat fills fold into it.
type PositionBook struct {
	mu   sync.Mutex
	open map[string]openPosition
}

func NewPositionBook() *PositionBook {
	return &PositionBook{open: make(map[string]openPosition)}
}

// Open registers a filled pair. A second fill on the same market accumulates
// shares and cost and keeps the original open time.
func (b *PositionBook) Open(yesToken, noToken string, pos domain.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if prev, ok := b.open[pos.MarketID]; ok {
		pos.Shares += prev.pos.Shares
		pos.EntryCost += prev.pos.EntryCost
		pos.OpenedAt = prev.pos.OpenedAt
	}
	b.open[pos.MarketID] = openPosition{pos: pos, yesToken: yesToken, noToken: noToken}
}

// Close drops a position from the book.
func (b *PositionBook) Close(marketID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, marketID)
}

// all returns a snapshot of the open positions.
func (b *PositionBook) all() []openPosition {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]openPosition, 0, len(b.open))
	for _, op := range b.open {
		out = append(out, op)
	}
	return out
}

// Tokens returns the token ids of every open position, so the cycle's book
// fetch covers markets that already fell out of the discovery filter.
func (b *PositionBook) Tokens() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.open)*2)
	for _, op := range b.open {
		out = append(out, op.yesToken, op.noToken)
	}
	return out
}

func (b *PositionBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}

// checkPositions marks every open position at the current best bids and
// flags threshold breaches for manual exit.
func (e *Engine) checkPositions(books map[string]domain.OrderBook) {
	if e.riskMgr == nil {
		return
	}
	for _, op := range e.positions.all() {
		yesBook, okYes := books[op.yesToken]
		noBook, okNo := books[op.noToken]
		if !okYes || !okNo {
			continue
		}
		yesBid := yesBook.BestBid()
		noBid := noBook.BestBid()
		if yesBid == 0 || noBid == 0 {
			continue
		}

		exit, reason := e.riskMgr.CheckPosition(op.pos, yesBid, noBid)
		if !exit {
			continue
		}
		slog.Warn("position breached risk threshold, flagging for manual exit",
			"market", op.pos.MarketID,
			"reason", reason,
			"entry_cost", op.pos.EntryCost,
			"mark_value", op.pos.Shares*(yesBid+noBid),
			"opened_at", op.pos.OpenedAt,
		)
		e.positions.Close(op.pos.MarketID)
	}
}
