package engine

// execute.go — the execution pipeline for one opportunity.
//
// Pipeline order is fixed as lock → cooldown → allocation → sizing →
// slippage → orders.
// The lock comes first: it is the only step that must be exclusive, and
// taking it before the cooldown check means a losing concurrent attempt
// drops out immediately instead of racing the winner to the cooldown map.
//
// There is no atomic two-leg submission on the venue and no automatic
// unwind: when the YES leg fills and the NO leg fails, the single-sided
// position is logged loudly and left for manual reconciliation.

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// execute runs one execution attempt for a cached opportunity. Every early
// return is a guard rejection — a normal outcome, not an error.
func (e *Engine) execute(ctx context.Context, opp domain.Opportunity) {
	if !e.lock.Acquire(opp.MarketID) {
		slog.Debug("execution already in flight, dropping attempt", "market", opp.MarketID)
		return
	}
	defer e.lock.Release(opp.MarketID)

	if !e.cooldown.CanTrade(opp.MarketID) {
		slog.Debug("market cooling down",
			"market", opp.MarketID,
			"remaining", e.cooldown.TimeRemaining(opp.MarketID).Round(time.Second),
		)
		return
	}

	// Capital allocation scales the base per-trade capital by ROI and how
	// the day is going.
	alloc := e.allocate(opp)
	if !alloc.ShouldTrade {
		slog.Debug("allocator rejected trade", "market", opp.MarketID, "reason", alloc.Reason)
		return
	}

	// Fresh books: the cached opportunity may be a full scan interval old.
	books, err := e.books.FetchOrderBooks(ctx, []string{opp.YesToken, opp.NoToken})
	if err != nil {
		slog.Warn("book refresh failed, aborting execution", "market", opp.MarketID, "err", err)
		return
	}
	yesBook, okYes := books[opp.YesToken]
	noBook, okNo := books[opp.NoToken]
	if !okYes || !okNo {
		slog.Warn("books missing at execution time", "market", opp.MarketID)
		return
	}

	targetCost := 1.0 - e.cfg.MinProfitMargin
	maxShares := alloc.AllocatedCapital / targetCost
	shares, effYes, effNo := domain.FindOptimalTradeSize(yesBook.Asks, noBook.Asks, targetCost, maxShares, 0.01)
	if shares <= 0 {
		slog.Debug("no profitable size at current depth", "market", opp.MarketID)
		return
	}

	combined := effYes + effNo
	if shares*combined < e.cfg.MinOrderUSDC {
		slog.Debug("trade below minimum order size", "market", opp.MarketID)
		return
	}

	// Slippage guard, last thing before submission: abort if the market
	// moved too far since detection.
	if !domain.CheckSlippage(opp.Cost, combined, e.cfg.MaxSlippage) {
		slog.Info("slippage guard rejected execution",
			"market", opp.MarketID,
			"expected", opp.Cost,
			"current", combined,
			"max_slippage", e.cfg.MaxSlippage,
		)
		return
	}

	e.placeLegs(ctx, opp, yesBook, noBook, shares, effYes, effNo)
}

// allocate asks the capital allocator, falling back to the flat per-trade
// capital when none is wired.
func (e *Engine) allocate(opp domain.Opportunity) domain.Allocation {
	if e.allocator == nil {
		return domain.Allocation{
			AllocatedCapital: e.cfg.CapitalPerTrade,
			ShouldTrade:      e.cfg.CapitalPerTrade > 0,
			Reason:           "flat allocation",
		}
	}
	return e.allocator.Allocation(opp.ROIPercent, 0, e.currentDailyPnl())
}

// placeLegs submits both BUY legs and records the outcome. From here on the
// market's cooldown is stamped whatever happens: orders went out.
func (e *Engine) placeLegs(
	ctx context.Context,
	opp domain.Opportunity,
	yesBook, noBook domain.OrderBook,
	shares, effYes, effNo float64,
) {
	e.cooldown.RecordTrade(opp.MarketID)
	e.opportunities.MarkExecuted(opp.MarketID)

	yesResult := e.placeLeg(ctx, opp.MarketID, opp.YesToken, domain.OutcomeYes, effYes, shares)
	if !yesResult.Success {
		slog.Warn("YES leg rejected, arb abandoned",
			"market", opp.MarketID,
			"error", yesResult.ErrorMessage,
		)
		return
	}

	noResult := e.placeLeg(ctx, opp.MarketID, opp.NoToken, domain.OutcomeNo, effNo, shares)
	if !noResult.Success {
		// CRITICAL: single-sided position. No automatic unwind exists —
		// deliberately. Reconcile by hand.
		slog.Error("PARTIAL EXECUTION: YES leg filled, NO leg failed — manual reconciliation required",
			"market", opp.MarketID,
			"yes_order", yesResult.OrderID,
			"yes_filled", yesResult.FilledSize,
			"no_error", noResult.ErrorMessage,
		)
		return
	}

	trade := domain.TradeRecord{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		MarketID:    opp.MarketID,
		Platform:    "polymarket",
		Shares:      shares,
		YesPrice:    effYes,
		NoPrice:     effNo,
		EntryCost:   shares * (effYes + effNo),
		ExpectedPnl: shares * (1.0 - effYes - effNo),
		ROI:         domain.ROIPercent(effYes + effNo),
		LevelsYes:   domain.CalculateEffectiveCost(yesBook.Asks, shares).LevelsConsumed,
		LevelsNo:    domain.CalculateEffectiveCost(noBook.Asks, shares).LevelsConsumed,
	}
	e.addDailyPnl(trade.ExpectedPnl)
	e.positions.Open(opp.YesToken, opp.NoToken, domain.Position{
		MarketID:  opp.MarketID,
		Shares:    shares,
		YesPrice:  effYes,
		NoPrice:   effNo,
		EntryCost: trade.EntryCost,
		OpenedAt:  trade.Timestamp,
	})

	slog.Info("arb executed",
		"market", opp.MarketID,
		"shares", trade.Shares,
		"entry_cost", trade.EntryCost,
		"expected_pnl", trade.ExpectedPnl,
		"roi_pct", trade.ROI,
	)

	if e.ledger != nil {
		if err := e.ledger.SaveTrade(ctx, trade); err != nil {
			slog.Warn("ledger save failed", "trade", trade.ID, "err", err)
		}
	}
	if e.notifier != nil {
		e.notifier.NotifyTrade(ctx, trade)
	}
	if e.cb.OnTrade != nil {
		e.cb.OnTrade(trade)
	}
}

// placeLeg submits one FOK BUY order. Transport errors are folded into the
// result so the caller handles a single shape.
func (e *Engine) placeLeg(ctx context.Context, marketID, tokenID, outcome string, price, shares float64) domain.OrderResult {
	result, err := e.executor.PlaceOrder(ctx, domain.PlaceOrderRequest{
		MarketID:  marketID,
		TokenID:   tokenID,
		Outcome:   outcome,
		Side:      "BUY",
		Price:     price,
		Size:      shares,
		OrderType: domain.OrderTypeFOK,
	})
	if err != nil {
		return domain.OrderResult{ErrorMessage: err.Error()}
	}
	return result
}
