package engine

// engine.go — live detection loop.
//
// One Engine instance owns its opportunity cache, cooldown map and lock
// table; nothing here is process-global, so a live engine and a backtest
// (or two engines on different venues) never share mutable state.
//
// The scan cycle itself is cheap pure computation. Everything that blocks on
// the network — book refresh and order submission — runs on a bounded worker
// pool (execute.go) so a slow venue call never stalls the next cycle.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/arbot/internal/domain"
	"github.com/alejandrodnm/arbot/internal/ports"
)

const (
	defaultScanInterval  = 15 * time.Second
	defaultStaleMaxAge   = 2 * time.Minute
	defaultOrderWorkers  = 4
	defaultMaxPerCycle   = 3
	defaultMinOrderUSDC  = 1.0
)

// Config controls one live engine instance.
type Config struct {
	ScanInterval    time.Duration
	MinVolume24h    float64       // market discovery filter
	MinProfitMargin float64       // target combined cost = 1 - margin
	MaxSlippage     float64       // relative move tolerated between detect and execute
	Cooldown        time.Duration // minimum re-trade interval per market
	StaleMaxAge     time.Duration // opportunity cache eviction age
	CapitalPerTrade float64       // base per-trade capital before allocation scaling
	MinOrderUSDC    float64
	MaxPerCycle     int // execution attempts triggered per cycle
	OrderWorkers    int // bounded pool for blocking venue calls
	DryRun          bool
}

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() Config {
	return Config{
		ScanInterval:    defaultScanInterval,
		MinVolume24h:    1000,
		MinProfitMargin: 0.02,
		MaxSlippage:     0.005,
		Cooldown:        60 * time.Second,
		StaleMaxAge:     defaultStaleMaxAge,
		CapitalPerTrade: 100,
		MinOrderUSDC:    defaultMinOrderUSDC,
		MaxPerCycle:     defaultMaxPerCycle,
		OrderWorkers:    defaultOrderWorkers,
	}
}

// Callbacks are fire-and-forget notifications to the engine's caller
// (UI, orchestration loop). Nil fields are not called.
type Callbacks struct {
	OnOpportunity func(marketID string, yesPrice, noPrice float64)
	OnTrade       func(trade domain.TradeRecord)
}

// Engine runs the live detect→execute loop for one venue.
type Engine struct {
	cfg       Config
	markets   ports.MarketProvider
	books     ports.BookProvider
	executor  ports.OrderExecutor
	allocator ports.CapitalAllocator
	riskMgr   ports.RiskManager
	ledger    ports.TradeLedger
	archive   ports.SnapshotStore
	notifier  ports.Notifier
	cb        Callbacks

	opportunities *OpportunityManager
	cooldown      *CooldownManager
	lock          *ExecutionLock
	positions     *PositionBook

	workers  chan struct{} // semaphore for blocking venue work
	inflight sync.WaitGroup

	dailyPnl   float64
	dailyPnlMu sync.Mutex
}

// New creates an Engine with all dependencies injected. executor, allocator,
// riskMgr, ledger, archive and notifier may be nil for detection-only runs.
func New(
	cfg Config,
	markets ports.MarketProvider,
	books ports.BookProvider,
	executor ports.OrderExecutor,
	allocator ports.CapitalAllocator,
	riskMgr ports.RiskManager,
	ledger ports.TradeLedger,
	archive ports.SnapshotStore,
	notifier ports.Notifier,
	cb Callbacks,
) *Engine {
	if cfg.OrderWorkers <= 0 {
		cfg.OrderWorkers = defaultOrderWorkers
	}
	if cfg.MaxPerCycle <= 0 {
		cfg.MaxPerCycle = defaultMaxPerCycle
	}
	if cfg.StaleMaxAge <= 0 {
		cfg.StaleMaxAge = defaultStaleMaxAge
	}

	return &Engine{
		cfg:           cfg,
		markets:       markets,
		books:         books,
		executor:      executor,
		allocator:     allocator,
		riskMgr:       riskMgr,
		ledger:        ledger,
		archive:       archive,
		notifier:      notifier,
		cb:            cb,
		opportunities: NewOpportunityManager(),
		cooldown:      NewCooldownManager(cfg.Cooldown),
		lock:          NewExecutionLock(),
		positions:     NewPositionBook(),
		workers:       make(chan struct{}, cfg.OrderWorkers),
	}
}

// Run executes scan cycles until the context is cancelled. Cancellation
// stops scheduling new cycles; an order already submitted to the venue is
// never aborted mid-flight — Run waits for in-flight executions to drain.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"interval", e.cfg.ScanInterval,
		"min_margin", e.cfg.MinProfitMargin,
		"dry_run", e.cfg.DryRun,
	)

	if err := e.RunCycle(ctx); err != nil {
		slog.Error("scan cycle failed", "err", err)
	}

	ticker := time.NewTicker(e.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopping, draining in-flight executions")
			e.inflight.Wait()
			return nil
		case <-ticker.C:
			if err := e.RunCycle(ctx); err != nil {
				slog.Error("scan cycle failed", "err", err)
			}
		}
	}
}

// RunOnce performs a single cycle and waits for any launched executions.
func (e *Engine) RunOnce(ctx context.Context) error {
	err := e.RunCycle(ctx)
	e.inflight.Wait()
	return err
}

// RunCycle performs one full cycle: fetch → detect → archive → execute.
func (e *Engine) RunCycle(ctx context.Context) error {
	start := time.Now()

	markets, err := e.markets.FetchMarkets(ctx, e.cfg.MinVolume24h, true)
	if err != nil {
		return fmt.Errorf("engine.RunCycle: fetch markets: %w", err)
	}

	// Books for open positions are fetched too: their markets may already
	// be out of the discovery filter.
	tokenIDs := append(extractTokenIDs(markets), e.positions.Tokens()...)
	books, err := e.books.FetchOrderBooks(ctx, tokenIDs)
	if err != nil {
		return fmt.Errorf("engine.RunCycle: fetch books: %w", err)
	}

	detected := e.detect(markets, books)
	e.checkPositions(books)
	stale := e.opportunities.ClearStale(e.cfg.StaleMaxAge)

	if e.notifier != nil {
		if err := e.notifier.NotifyOpportunities(ctx, e.opportunities.Best(-1)); err != nil {
			slog.Warn("notifier error", "err", err)
		}
	}

	e.archiveBooks(ctx, markets, books)

	launched := 0
	if !e.cfg.DryRun && e.executor != nil {
		launched = e.launchExecutions(ctx)
	}

	slog.Info("scan cycle complete",
		"markets", len(markets),
		"detected", detected,
		"cached", e.opportunities.Len(),
		"stale_evicted", stale,
		"executions_launched", launched,
		"open_positions", e.positions.Len(),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// detect feeds every binary market's fresh ask pair through the opportunity
// cache and returns how many profitable updates came back.
func (e *Engine) detect(markets []domain.Market, books map[string]domain.OrderBook) int {
	detected := 0
	for _, m := range markets {
		if !m.IsBinary() {
			continue
		}
		yesBook, okYes := books[m.YesToken().TokenID]
		noBook, okNo := books[m.NoToken().TokenID]
		if !okYes || !okNo {
			slog.Debug("missing books for market", "condition_id", m.ConditionID)
			continue
		}

		yesAsk := yesBook.BestAsk()
		noAsk := noBook.BestAsk()
		if yesAsk == 0 || noAsk == 0 {
			continue
		}

		opp := e.opportunities.Update(
			m.ConditionID,
			m.YesToken().TokenID, m.NoToken().TokenID,
			yesAsk, noAsk,
			e.cfg.MinProfitMargin,
		)
		if opp == nil {
			continue
		}
		detected++
		if e.cb.OnOpportunity != nil {
			e.cb.OnOpportunity(opp.MarketID, opp.YesPrice, opp.NoPrice)
		}
	}
	return detected
}

// archiveBooks snapshots the books of markets whose opportunity is cached.
// The backtest replays exactly these rows later.
func (e *Engine) archiveBooks(ctx context.Context, markets []domain.Market, books map[string]domain.OrderBook) {
	if e.archive == nil {
		return
	}
	now := time.Now().UTC()

	for _, m := range markets {
		if _, cached := e.opportunities.Get(m.ConditionID); !cached {
			continue
		}
		mt := domain.MarketTokens{
			MarketID:   m.ConditionID,
			YesTokenID: m.YesToken().TokenID,
			NoTokenID:  m.NoToken().TokenID,
		}
		if err := e.archive.SaveMarketTokens(ctx, mt); err != nil {
			slog.Warn("archive market tokens failed", "market", m.ConditionID, "err", err)
		}
		for _, tokenID := range []string{mt.YesTokenID, mt.NoTokenID} {
			book, ok := books[tokenID]
			if !ok {
				continue
			}
			snap := domain.BookSnapshot{
				Timestamp: now,
				TokenID:   tokenID,
				MarketID:  m.ConditionID,
				Platform:  "polymarket",
				AsksJSON:  domain.EncodeBookLevels(book.Asks),
				BidsJSON:  domain.EncodeBookLevels(book.Bids),
			}
			if err := e.archive.SaveSnapshot(ctx, snap); err != nil {
				slog.Warn("archive snapshot failed", "token", tokenID, "err", err)
			}
		}
	}
}

// launchExecutions schedules execution attempts for the best cached
// opportunities on the worker pool and returns how many were launched.
func (e *Engine) launchExecutions(ctx context.Context) int {
	launched := 0
	for _, opp := range e.opportunities.Best(e.cfg.MaxPerCycle) {
		opp := opp
		e.inflight.Add(1)
		launched++
		go func() {
			defer e.inflight.Done()

			// Bounded pool: at most OrderWorkers blocking attempts at once.
			select {
			case e.workers <- struct{}{}:
				defer func() { <-e.workers }()
			case <-ctx.Done():
				return
			}

			e.execute(ctx, opp)
		}()
	}
	return launched
}

// addDailyPnl accumulates today's realized edge for allocation damping.
func (e *Engine) addDailyPnl(pnl float64) {
	e.dailyPnlMu.Lock()
	e.dailyPnl += pnl
	e.dailyPnlMu.Unlock()
}

func (e *Engine) currentDailyPnl() float64 {
	e.dailyPnlMu.Lock()
	defer e.dailyPnlMu.Unlock()
	return e.dailyPnl
}

// extractTokenIDs extrae todos los token_ids de los mercados.
func extractTokenIDs(markets []domain.Market) []string {
	ids := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		for _, t := range m.Tokens {
			if t.TokenID != "" {
				ids = append(ids, t.TokenID)
			}
		}
	}
	return ids
}
