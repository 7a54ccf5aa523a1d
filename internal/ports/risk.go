package ports

import "github.com/alejandrodnm/arbot/internal/domain"

// RiskManager decide si una posición abierta debe cerrarse.
type RiskManager interface {
	// CheckPosition evalúa la posición contra los precios actuales.
	// Devuelve (true, motivo) si hay que salir.
	CheckPosition(pos domain.Position, currentYesPrice, currentNoPrice float64) (bool, string)
}

// CapitalAllocator dimensiona el capital a desplegar en una oportunidad.
type CapitalAllocator interface {
	// Allocation combina ROI, calidad del mercado y el PnL del día.
	Allocation(roiPercent, qualityScore, dailyPnl float64) domain.Allocation
}
