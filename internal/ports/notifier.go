package ports

import (
	"context"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// Notifier presenta oportunidades y trades al usuario.
type Notifier interface {
	// NotifyOpportunities muestra las oportunidades ordenadas por ROI.
	// En la implementación de consola, imprime una tabla formateada.
	NotifyOpportunities(ctx context.Context, opportunities []domain.Opportunity) error

	// NotifyTrade anuncia un trade ejecutado o simulado. Fire-and-forget.
	NotifyTrade(ctx context.Context, trade domain.TradeRecord)
}
