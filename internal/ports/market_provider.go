package ports

import (
	"context"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// MarketProvider obtiene mercados binarios del venue.
type MarketProvider interface {
	// FetchMarkets devuelve los mercados con volumen 24h >= minVolume.
	// Con activeOnly filtra los cerrados o inactivos.
	// Pagina automáticamente hasta obtener todos los resultados.
	FetchMarkets(ctx context.Context, minVolume float64, activeOnly bool) ([]domain.Market, error)
}
