package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alejandrodnm/arbot/config"
	"github.com/alejandrodnm/arbot/internal/adapters/notify"
	"github.com/alejandrodnm/arbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/arbot/internal/adapters/storage"
	"github.com/alejandrodnm/arbot/internal/engine"
	"github.com/alejandrodnm/arbot/internal/ports"
	"github.com/alejandrodnm/arbot/internal/risk"
)

// runLive arranca el loop de detección/ejecución contra el venue real.
func runLive(ctx context.Context, cfg *config.Config, once, table bool) {
	slog.Info("arbot starting",
		"interval", cfg.ScanInterval(),
		"min_volume", cfg.Engine.MinVolume24h,
		"min_margin", cfg.Engine.MinProfitMargin,
		"dry_run", cfg.Engine.DryRun,
		"once", once,
	)

	client := polymarket.NewClient(cfg.API.CLOBBase, cfg.API.GammaBase)

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	// Sin private key no hay ejecución: el engine corre en modo detección.
	var executor ports.OrderExecutor
	if !cfg.Engine.DryRun {
		if cfg.Trading.PrivateKey == "" {
			slog.Warn("PRIVATE_KEY not set, forcing dry run")
			cfg.Engine.DryRun = true
		} else {
			auth, err := polymarket.NewAuthClient(cfg.API.CLOBBase, cfg.API.GammaBase, cfg.Trading.PrivateKey)
			if err != nil {
				slog.Error("failed to init auth client", "err", err)
				os.Exit(1)
			}
			trading, err := polymarket.NewTradingClient(auth, cfg.Trading.RPCURL)
			if err != nil {
				slog.Error("failed to init trading client", "err", err)
				os.Exit(1)
			}
			executor = trading
			slog.Info("trading enabled", "wallet", auth.Address())
		}
	}

	notifier := notify.NewConsole(table)
	allocator := risk.NewAllocator(cfg.Engine.CapitalPerTrade, cfg.Engine.MinOrderUSDC)
	riskMgr := risk.NewManager(cfg.Engine.StopLossPct, cfg.Engine.TakeProfitPct)

	engCfg := engine.Config{
		ScanInterval:    cfg.ScanInterval(),
		MinVolume24h:    cfg.Engine.MinVolume24h,
		MinProfitMargin: cfg.Engine.MinProfitMargin,
		MaxSlippage:     cfg.Engine.MaxSlippage,
		Cooldown:        cfg.Cooldown(),
		StaleMaxAge:     cfg.StaleMaxAge(),
		CapitalPerTrade: cfg.Engine.CapitalPerTrade,
		MinOrderUSDC:    cfg.Engine.MinOrderUSDC,
		MaxPerCycle:     cfg.Engine.MaxPerCycle,
		OrderWorkers:    cfg.Engine.OrderWorkers,
		DryRun:          cfg.Engine.DryRun,
	}

	eng := engine.New(engCfg, client, client, executor, allocator, riskMgr, store, store, notifier, engine.Callbacks{})

	if once {
		if err := eng.RunOnce(ctx); err != nil {
			slog.Error("scan cycle failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := eng.Run(ctx); err != nil {
		slog.Error("engine exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("arbot stopped cleanly")
}
