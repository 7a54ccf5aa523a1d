package domain

import "time"

// Outcome identifica el lado del mercado de una orden.
const (
	OutcomeYes = "YES"
	OutcomeNo  = "NO"
)

// Order types soportados por el CLOB.
const (
	OrderTypeGTC = "GTC" // good-till-cancelled
	OrderTypeFOK = "FOK" // fill-or-kill — el que usa el engine para las piernas del arb
)

// PlaceOrderRequest es una orden de compra a enviar al CLOB.
type PlaceOrderRequest struct {
	MarketID  string
	TokenID   string
	Outcome   string // OutcomeYes | OutcomeNo
	Side      string // "BUY" | "SELL"
	Price     float64
	Size      float64 // shares
	OrderType string
	NegRisk   bool
}

// OrderResult es el resultado de un intento de colocación.
//
// Un rechazo del venue NO es un error de Go: viene como Success=false con
// ErrorMessage, para que el fallo parcial de una pierna sea un branch normal
// y no una excepción interceptada a mitad del pipeline.
type OrderResult struct {
	Success      bool
	OrderID      string
	FilledSize   float64
	FilledPrice  float64
	Status       string
	ErrorMessage string
}

// TradeRecord es una fila del ledger: un par YES+NO ejecutado (o simulado).
// Inmutable una vez creado.
type TradeRecord struct {
	ID          string // UUID local
	Timestamp   time.Time
	MarketID    string
	Platform    string
	Shares      float64
	YesPrice    float64 // precio efectivo de la pierna YES
	NoPrice     float64 // precio efectivo de la pierna NO
	EntryCost   float64 // Shares × (YesPrice + NoPrice)
	ExpectedPnl float64 // Shares × (1 - coste combinado)
	ROI         float64 // porcentaje sobre el capital de entrada
	LevelsYes   int     // niveles del book consumidos en YES
	LevelsNo    int     // niveles del book consumidos en NO
	Simulated   bool    // true si viene del backtest
}
