package domain

import "time"

// Position es un par YES+NO comprado y aún sin resolver.
type Position struct {
	MarketID  string
	Shares    float64
	YesPrice  float64 // precio efectivo de entrada YES
	NoPrice   float64 // precio efectivo de entrada NO
	EntryCost float64
	OpenedAt  time.Time
}

// Motivos de salida del risk manager.
const (
	ExitStopLoss   = "STOP_LOSS"
	ExitTakeProfit = "TAKE_PROFIT"
	ExitHold       = "HOLD"
)

// Allocation es la decisión del capital allocator para una oportunidad.
type Allocation struct {
	AllocatedCapital float64
	ShouldTrade      bool
	Reason           string
}
