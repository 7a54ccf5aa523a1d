package backtest

// engine.go — historical replay of archived orderbook snapshots.
//
// The replay drives the exact same sizing code as the live engine
// (domain.FindOptimalTradeSize) against the recorded books, so a strategy
// that backtests profitable is priced with the same depth-aware math that
// would execute it live. One run walks:
//
//	Loading    → fetch ordered snapshots for the window/filters
//	Replaying  → per snapshot: update book state, resolve the YES/NO pair,
//	             gate on cooldown, size the trade, update the ledger
//	Finalizing → aggregate metrics over whatever the replay produced
//
// Cancellation is cooperative at snapshot granularity: a cancelled run still
// finalizes its partial ledger — partial results are valid, never discarded.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/arbot/internal/domain"
	"github.com/alejandrodnm/arbot/internal/engine"
	"github.com/alejandrodnm/arbot/internal/ports"
)

// State is the phase a run is in. Exposed for progress displays.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReplaying
	StateFinalizing
	StateDone
)

const (
	// progressEvery controls the OnProgress callback cadence in snapshots.
	progressEvery = 100

	// watchSpeedThreshold: below this playback speed the replay sleeps
	// between snapshots so a human can watch it happen; at or above it the
	// loop runs flat out.
	watchSpeedThreshold = 50.0
)

// Config parametrizes one backtest run.
type Config struct {
	From            time.Time
	To              time.Time
	InitialCapital  float64
	CapitalPerTrade float64
	MinProfitMargin float64 // target combined cost = 1 - margin
	CooldownSeconds float64
	Speed           float64 // playback multiplier; 0 = flat out
	MarketID        string  // optional filter
	Platform        string  // optional filter
}

// Callbacks are the fire-and-forget notifications of a run. Nil fields are
// simply not called.
type Callbacks struct {
	OnProgress func(percent float64, message string)
	OnTrade    func(trade domain.TradeRecord)
}

// Engine replays snapshots chronologically through the pricing logic.
// Each run gets its own cooldown tracker and book state; an Engine holds no
// state shared with any live engine instance.
type Engine struct {
	store ports.SnapshotStore
	cfg   Config
	cb    Callbacks
	state State
}

// New creates a backtest engine over the given snapshot store.
func New(store ports.SnapshotStore, cfg Config, cb Callbacks) *Engine {
	return &Engine{store: store, cfg: cfg, cb: cb}
}

// State returns the current phase of the run.
func (e *Engine) State() State { return e.state }

// Run executes the full replay. The returned result is valid even when ctx
// was cancelled mid-run (Cancelled=true, metrics over the partial ledger).
// An error is returned only when the snapshot store itself fails.
func (e *Engine) Run(ctx context.Context) (*domain.BacktestResult, error) {
	result := &domain.BacktestResult{
		StartingCapital: e.cfg.InitialCapital,
		StartedAt:       time.Now().UTC(),
	}

	e.state = StateLoading
	snapshots, err := e.store.SnapshotsForPeriod(ctx, e.cfg.From, e.cfg.To, e.cfg.MarketID, e.cfg.Platform)
	if err != nil {
		return nil, fmt.Errorf("backtest.Run: load snapshots: %w", err)
	}
	slog.Info("backtest: snapshots loaded",
		"count", len(snapshots),
		"from", e.cfg.From.Format(time.RFC3339),
		"to", e.cfg.To.Format(time.RFC3339),
	)

	e.state = StateReplaying
	e.replay(ctx, snapshots, result)

	e.state = StateFinalizing
	result.EndingCapital = result.StartingCapital
	for _, t := range result.Trades {
		result.EndingCapital += t.ExpectedPnl
	}
	result.PeakCapital = peakCapital(result.StartingCapital, result.Trades)
	result.Finalize()
	result.EndedAt = time.Now().UTC()

	e.progress(100, fmt.Sprintf("done: %d trades, pnl %.2f", result.TotalTrades, result.TotalPnl))
	e.state = StateDone

	slog.Info("backtest: complete",
		"snapshots", result.SnapshotsReplayed,
		"detected", result.OpportunitiesDetected,
		"executed", result.OpportunitiesExecuted,
		"pnl", fmt.Sprintf("%.2f", result.TotalPnl),
		"cancelled", result.Cancelled,
	)
	return result, nil
}

// replay iterates the snapshots chronologically, maintaining the
// latest-known book per token, and evaluates a trade after each update.
func (e *Engine) replay(ctx context.Context, snapshots []domain.BookSnapshot, result *domain.BacktestResult) {
	books := make(map[string][]domain.BookEntry) // tokenID → latest asks
	pairs := newPairResolver(e.store)            // marketID → (yes, no)
	capital := e.cfg.InitialCapital

	// The cooldown runs on replayed time: "now" is the timestamp of the
	// snapshot being processed, so intervals mean the same thing at any
	// playback speed.
	var replayNow time.Time
	cooldown := engine.NewCooldownManagerWithClock(
		time.Duration(e.cfg.CooldownSeconds*float64(time.Second)),
		func() time.Time { return replayNow },
	)

	total := len(snapshots)
	for i, snap := range snapshots {
		// Cancellation is polled once per snapshot; a snapshot already
		// being processed always completes.
		if ctx.Err() != nil {
			result.Cancelled = true
			slog.Warn("backtest: cancelled", "at_snapshot", i, "of", total)
			break
		}
		replayNow = snap.Timestamp

		if i > 0 && i%progressEvery == 0 {
			e.progress(float64(i)/float64(total)*100,
				fmt.Sprintf("replaying %d/%d", i, total))
		}
		e.pace(ctx)

		// Filters skip without touching any counter.
		if e.cfg.MarketID != "" && snap.MarketID != e.cfg.MarketID {
			continue
		}
		if e.cfg.Platform != "" && snap.Platform != e.cfg.Platform {
			continue
		}

		asks, err := snap.Asks()
		if err != nil {
			// Malformed rows are skipped per-row; the run keeps going.
			result.SnapshotsMalformed++
			slog.Debug("backtest: malformed snapshot skipped",
				"token", snap.TokenID, "ts", snap.Timestamp, "err", err)
			continue
		}
		books[snap.TokenID] = asks
		result.SnapshotsReplayed++

		yesToken, noToken, ok := pairs.resolve(ctx, snap.MarketID, snap.TokenID)
		if !ok {
			continue // pair not known yet
		}
		yesAsks, okYes := books[yesToken]
		noAsks, okNo := books[noToken]
		if !okYes || !okNo {
			continue
		}

		capital = e.evaluate(snap, yesAsks, noAsks, cooldown, capital, result)
	}
}

// evaluate runs the trade decision for one market at one snapshot and
// returns the updated capital.
func (e *Engine) evaluate(
	snap domain.BookSnapshot,
	yesAsks, noAsks []domain.BookEntry,
	cooldown *engine.CooldownManager,
	capital float64,
	result *domain.BacktestResult,
) float64 {
	// 1. Cooldown gate.
	if !cooldown.CanTrade(snap.MarketID) {
		result.SkippedCooldown++
		return capital
	}

	// 2. Depth-aware sizing. Detection is counted on every evaluation,
	// profitable or not — the skip counters break the total down.
	targetCost := 1.0 - e.cfg.MinProfitMargin
	maxShares := e.cfg.CapitalPerTrade / targetCost
	shares, effYes, effNo := domain.FindOptimalTradeSize(yesAsks, noAsks, targetCost, maxShares, 0.01)
	result.OpportunitiesDetected++

	// 3. No profitable size at any depth.
	if shares <= 0 {
		result.SkippedUnprofitable++
		return capital
	}

	combined := effYes + effNo
	entryCost := shares * combined

	// 4. Remaining capital check.
	if entryCost > capital {
		result.SkippedCapital++
		return capital
	}

	// 5. Materialize the trade.
	yesImpact := domain.CalculateEffectiveCost(yesAsks, shares)
	noImpact := domain.CalculateEffectiveCost(noAsks, shares)
	expectedPnl := shares * (1.0 - combined)

	trade := domain.TradeRecord{
		ID:          uuid.New().String(),
		Timestamp:   snap.Timestamp,
		MarketID:    snap.MarketID,
		Platform:    snap.Platform,
		Shares:      shares,
		YesPrice:    effYes,
		NoPrice:     effNo,
		EntryCost:   entryCost,
		ExpectedPnl: expectedPnl,
		ROI:         domain.ROIPercent(combined),
		LevelsYes:   yesImpact.LevelsConsumed,
		LevelsNo:    noImpact.LevelsConsumed,
		Simulated:   true,
	}

	result.Trades = append(result.Trades, trade)
	result.OpportunitiesExecuted++
	cooldown.RecordTrade(snap.MarketID)

	// Capital model: the entry cost comes back plus the edge immediately,
	// as if the pair resolved on the spot. Overstates intra-period
	// compounding; kept as-is deliberately.
	capital += expectedPnl

	if e.cb.OnTrade != nil {
		e.cb.OnTrade(trade)
	}
	return capital
}

// pace sleeps between snapshots when the configured playback speed asks for
// a human-watchable replay.
func (e *Engine) pace(ctx context.Context) {
	if e.cfg.Speed <= 0 || e.cfg.Speed >= watchSpeedThreshold {
		return
	}
	delay := time.Duration(float64(time.Second) / e.cfg.Speed)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

func (e *Engine) progress(percent float64, msg string) {
	if e.cb.OnProgress != nil {
		e.cb.OnProgress(percent, msg)
	}
}

// peakCapital walks the ledger and returns the highest capital reached.
func peakCapital(starting float64, trades []domain.TradeRecord) float64 {
	capital := starting
	peak := starting
	for _, t := range trades {
		capital += t.ExpectedPnl
		if capital > peak {
			peak = capital
		}
	}
	return peak
}
