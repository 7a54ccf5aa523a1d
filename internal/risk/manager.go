package risk

import "github.com/alejandrodnm/arbot/internal/domain"

// Manager is a threshold stop-loss/take-profit check over open positions.
// A binary pair held to resolution pays out $1 per share regardless, so in
// practice the stop only fires when the mark value collapses (a venue
// dislocation worth exiting manually).
type Manager struct {
	stopLossPct   float64 // loss fraction of entry cost that triggers exit
	takeProfitPct float64 // gain fraction of entry cost that triggers exit
}

// NewManager creates a Manager. Fractions are relative to entry cost,
// e.g. 0.10 = exit at ±10%.
func NewManager(stopLossPct, takeProfitPct float64) *Manager {
	return &Manager{stopLossPct: stopLossPct, takeProfitPct: takeProfitPct}
}

// CheckPosition marks the pair at current prices and compares the unrealized
// PnL against the thresholds. Returns (true, reason) when the position
// should be exited.
func (m *Manager) CheckPosition(pos domain.Position, currentYesPrice, currentNoPrice float64) (bool, string) {
	if pos.Shares <= 0 || pos.EntryCost <= 0 {
		return false, domain.ExitHold
	}

	markValue := pos.Shares * (currentYesPrice + currentNoPrice)
	pnl := markValue - pos.EntryCost

	if m.stopLossPct > 0 && pnl <= -pos.EntryCost*m.stopLossPct {
		return true, domain.ExitStopLoss
	}
	if m.takeProfitPct > 0 && pnl >= pos.EntryCost*m.takeProfitPct {
		return true, domain.ExitTakeProfit
	}
	return false, domain.ExitHold
}
