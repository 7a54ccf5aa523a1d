package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// SnapshotStore es el archivo de orderbooks: lo escribe el collector del
// engine live y lo lee el backtest en su fase de Loading.
type SnapshotStore interface {
	// SnapshotsForPeriod devuelve los snapshots del rango ordenados por
	// timestamp ascendente. marketID y platform vacíos no filtran.
	SnapshotsForPeriod(ctx context.Context, from, to time.Time, marketID, platform string) ([]domain.BookSnapshot, error)

	// MarketTokens devuelve la metadata YES/NO del mercado si existe.
	// ok=false dispara el fallback de emparejado por orden de descubrimiento.
	MarketTokens(ctx context.Context, marketID string) (domain.MarketTokens, bool, error)

	// SaveSnapshot archiva el estado del book de un token.
	SaveSnapshot(ctx context.Context, snap domain.BookSnapshot) error

	// SaveMarketTokens registra el par YES/NO de un mercado.
	SaveMarketTokens(ctx context.Context, mt domain.MarketTokens) error
}

// TradeLedger persiste los trades ejecutados y simulados.
type TradeLedger interface {
	SaveTrade(ctx context.Context, trade domain.TradeRecord) error

	// Trades devuelve las filas del rango ordenadas por timestamp.
	Trades(ctx context.Context, from, to time.Time) ([]domain.TradeRecord, error)
}
