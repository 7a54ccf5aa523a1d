package ports

import (
	"context"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// OrderExecutor envía órdenes reales al CLOB.
//
// El error de Go es solo para fallos de transporte (red, auth, contexto);
// un rechazo del venue llega como OrderResult{Success: false, ErrorMessage}.
// El engine trata ambos como "pierna fallida", pero el rechazo es un branch
// normal del pipeline, no una excepción.
type OrderExecutor interface {
	// PlaceOrder firma y envía una orden al CLOB.
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.OrderResult, error)

	// CancelOrder cancela una orden por su CLOB order ID.
	CancelOrder(ctx context.Context, clobOrderID string) error

	// GetBalance devuelve el balance USDC.e disponible.
	GetBalance(ctx context.Context) (float64, error)
}
