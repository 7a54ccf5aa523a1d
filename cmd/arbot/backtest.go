package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/alejandrodnm/arbot/config"
	"github.com/alejandrodnm/arbot/internal/adapters/notify"
	"github.com/alejandrodnm/arbot/internal/adapters/storage"
	"github.com/alejandrodnm/arbot/internal/backtest"
	"github.com/alejandrodnm/arbot/internal/domain"
)

type backtestFlags struct {
	from     string
	to       string
	market   string
	platform string
	speed    float64
	table    bool
}

// runBacktest reproduce los snapshots archivados del rango dado y
// imprime el informe final.
func runBacktest(ctx context.Context, cfg *config.Config, flags backtestFlags) {
	from, to, err := parseRange(flags.from, flags.to)
	if err != nil {
		slog.Error("invalid backtest range", "err", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	speed := cfg.Backtest.Speed
	if flags.speed >= 0 {
		speed = flags.speed
	}

	btCfg := backtest.Config{
		From:            from,
		To:              to,
		InitialCapital:  cfg.Backtest.InitialCapital,
		CapitalPerTrade: cfg.Backtest.CapitalPerTrade,
		MinProfitMargin: cfg.Backtest.MinProfitMargin,
		CooldownSeconds: cfg.Backtest.CooldownSeconds,
		Speed:           speed,
		MarketID:        flags.market,
		Platform:        flags.platform,
	}

	notifier := notify.NewConsole(flags.table)

	eng := backtest.New(store, btCfg, backtest.Callbacks{
		OnProgress: func(percent float64, message string) {
			slog.Info("backtest progress", "pct", int(percent), "msg", message)
		},
		OnTrade: func(trade domain.TradeRecord) {
			notifier.NotifyTrade(ctx, trade)
		},
	})

	result, err := eng.Run(ctx)
	if err != nil {
		slog.Error("backtest failed", "err", err)
		os.Exit(1)
	}

	notifier.PrintBacktest(*result)

	// Los trades simulados también van al ledger, marcados como tal.
	for _, trade := range result.Trades {
		if err := store.SaveTrade(context.Background(), trade); err != nil {
			slog.Warn("failed to persist simulated trade", "id", trade.ID, "err", err)
		}
	}
}

// parseRange interpreta los flags -from/-to. Sin -to, el rango llega hasta
// ahora; sin -from, arranca 7 días antes del final.
func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	if toStr != "" {
		t, err := parseTime(toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}

	from := to.Add(-7 * 24 * time.Hour)
	if fromStr != "" {
		t, err := parseTime(fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}

	return from, to, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
