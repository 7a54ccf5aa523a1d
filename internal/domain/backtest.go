package domain

import "time"

// BacktestResult es el resultado del replay histórico: el ledger de trades
// simulados más los contadores del run y las métricas agregadas.
//
// Los contadores se actualizan durante el replay; las métricas derivadas se
// calculan UNA vez al final con Finalize — también tras una cancelación, el
// ledger parcial es válido y se finaliza igual.
type BacktestResult struct {
	// Ledger ordenado cronológicamente.
	Trades []TradeRecord

	// Contadores del run.
	OpportunitiesDetected int
	OpportunitiesExecuted int
	SkippedCooldown       int
	SkippedCapital        int
	SkippedUnprofitable   int
	SnapshotsReplayed     int
	SnapshotsMalformed    int

	// Capital.
	StartingCapital float64
	EndingCapital   float64
	PeakCapital     float64

	// Métricas derivadas (Finalize).
	TotalTrades   int
	WinningTrades int
	TotalPnl      float64
	WinRate       float64 // fracción 0..1
	MaxDrawdown   float64 // fracción 0..1 sobre el peak de capital
	AvgROI        float64
	DailyPnl      map[string]float64 // "2006-01-02" → pnl del día

	Cancelled bool      // true si el run se cortó antes de agotar los snapshots
	StartedAt time.Time
	EndedAt   time.Time
}

// Finalize calcula las métricas agregadas a partir del ledger.
//
// El drawdown se calcula con un walk peak/valley sobre la secuencia de
// trades: capital arranca en StartingCapital y cada trade le suma su
// ExpectedPnl (modelo de resolución instantánea — ver nota en el engine).
func (r *BacktestResult) Finalize() {
	r.TotalTrades = len(r.Trades)
	r.DailyPnl = make(map[string]float64, len(r.Trades))

	capital := r.StartingCapital
	peak := capital
	var maxDrawdown float64
	var roiSum float64

	for _, t := range r.Trades {
		r.TotalPnl += t.ExpectedPnl
		roiSum += t.ROI
		if t.ExpectedPnl > 0 {
			r.WinningTrades++
		}

		capital += t.ExpectedPnl
		if capital > peak {
			peak = capital
		}
		if peak > 0 {
			if dd := (peak - capital) / peak; dd > maxDrawdown {
				maxDrawdown = dd
			}
		}

		day := t.Timestamp.UTC().Format("2006-01-02")
		r.DailyPnl[day] += t.ExpectedPnl
	}

	r.MaxDrawdown = maxDrawdown
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades)
		r.AvgROI = roiSum / float64(r.TotalTrades)
	}
}
