package domain

import "time"

// Opportunity es un par YES/NO cuyo coste combinado quedó por debajo del
// umbral de rentabilidad. La cachea el OpportunityManager del engine; se
// sobreescribe con cada update rentable y se elimina cuando deja de serlo.
type Opportunity struct {
	MarketID   string
	YesToken   string
	NoToken    string
	YesPrice   float64
	NoPrice    float64
	Cost       float64 // YesPrice + NoPrice
	ROIPercent float64 // (1 - Cost) / Cost × 100
	DetectedAt time.Time
	Executed   bool // marcada al enviar órdenes; evita re-detección en el mismo ciclo
}

// NewOpportunity construye una Opportunity calculando coste y ROI.
func NewOpportunity(marketID, yesToken, noToken string, yesPrice, noPrice float64) Opportunity {
	cost := yesPrice + noPrice
	return Opportunity{
		MarketID:   marketID,
		YesToken:   yesToken,
		NoToken:    noToken,
		YesPrice:   yesPrice,
		NoPrice:    noPrice,
		Cost:       cost,
		ROIPercent: ROIPercent(cost),
		DetectedAt: time.Now().UTC(),
	}
}

// ROIPercent devuelve el retorno porcentual de comprar el par a `cost`:
// cada par resuelve a $1, así que el retorno es (1 - cost) / cost × 100.
func ROIPercent(cost float64) float64 {
	if cost <= 0 {
		return 0
	}
	return (1.0 - cost) / cost * 100.0
}

// Age devuelve cuánto tiempo lleva cacheada la oportunidad.
func (o Opportunity) Age(now time.Time) time.Duration {
	return now.Sub(o.DetectedAt)
}
