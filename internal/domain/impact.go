package domain

// impact.go — cálculo de market impact sobre el orderbook.
//
// El error clásico de los bots de arbitraje YES/NO es mirar solo el best ask:
// un book [(0.45, 10), (0.55, 90)] parece barato pero comprar 50 shares te
// lleva al segundo nivel y el precio efectivo sube. Aquí todo el sizing se
// hace con el precio efectivo ponderado por volumen a la profundidad real.

// maxSearchIterations acota la búsqueda binaria de FindOptimalTradeSize.
// Es una válvula de seguridad independiente de la precisión pedida: con
// floats degenerados el intervalo puede no converger nunca.
const maxSearchIterations = 50

// MarketImpactResult es el resultado de simular una compra contra un lado del book.
type MarketImpactResult struct {
	SharesFilled           float64 // shares que se pudieron llenar
	EffectivePrice         float64 // precio medio ponderado por volumen
	TotalCost              float64 // coste total en USDC
	LevelsConsumed         int     // niveles del book consumidos
	HasSufficientLiquidity bool    // false si el book no cubre sharesNeeded
}

// CalculateEffectiveCost simula comprar sharesNeeded recorriendo los niveles
// en el orden dado (asks ascendente por convención del feed; nunca se reordena
// aquí — el caller garantiza el orden). Niveles con size <= 0 se ignoran.
//
// Si el book no alcanza, SharesFilled es todo lo disponible y
// HasSufficientLiquidity queda en false.
func CalculateEffectiveCost(levels []BookEntry, sharesNeeded float64) MarketImpactResult {
	if sharesNeeded <= 0 || len(levels) == 0 {
		return MarketImpactResult{}
	}

	var (
		filled    float64
		totalCost float64
		consumed  int
	)

	for _, lvl := range levels {
		if lvl.Size <= 0 {
			continue
		}
		remaining := sharesNeeded - filled
		take := lvl.Size
		if take > remaining {
			take = remaining
		}
		filled += take
		totalCost += take * lvl.Price
		consumed++

		if filled >= sharesNeeded {
			break
		}
	}

	result := MarketImpactResult{
		SharesFilled:           filled,
		TotalCost:              totalCost,
		LevelsConsumed:         consumed,
		HasSufficientLiquidity: filled >= sharesNeeded,
	}
	if filled > 0 {
		result.EffectivePrice = totalCost / filled
	}
	return result
}

// FindOptimalTradeSize busca el mayor tamaño de trade cuyo coste combinado
// (precio efectivo YES + precio efectivo NO a ese tamaño) quede por debajo
// de maxCombinedCost.
//
// La búsqueda binaria es válida porque el coste combinado es no-decreciente
// con el tamaño: los asks se consumen en orden de precio creciente, así que
// pedir más shares nunca abarata el precio efectivo. Esa monotonía se asume,
// no se re-verifica en runtime.
//
// Devuelve (0, 0, 0) si ni siquiera 1 share es rentable o líquido.
func FindOptimalTradeSize(
	yesLevels, noLevels []BookEntry,
	maxCombinedCost, maxShares, precision float64,
) (shares, effYes, effNo float64) {
	if maxShares <= 0 {
		return 0, 0, 0
	}

	// Sondeo a 1 share: si el mejor caso ya no es rentable, no hay nada que buscar.
	probeYes := CalculateEffectiveCost(yesLevels, 1)
	probeNo := CalculateEffectiveCost(noLevels, 1)
	if !probeYes.HasSufficientLiquidity || !probeNo.HasSufficientLiquidity {
		return 0, 0, 0
	}
	if probeYes.EffectivePrice+probeNo.EffectivePrice >= maxCombinedCost {
		return 0, 0, 0
	}

	var (
		low      = 0.0
		high     = maxShares
		bestSize float64
		bestYes  float64
		bestNo   float64
	)

	for i := 0; i < maxSearchIterations && high-low > precision; i++ {
		mid := (low + high) / 2

		yes := CalculateEffectiveCost(yesLevels, mid)
		no := CalculateEffectiveCost(noLevels, mid)

		switch {
		case !yes.HasSufficientLiquidity || !no.HasSufficientLiquidity:
			high = mid
		case yes.EffectivePrice+no.EffectivePrice < maxCombinedCost:
			bestSize = mid
			bestYes = yes.EffectivePrice
			bestNo = no.EffectivePrice
			low = mid
		default:
			high = mid
		}
	}

	return bestSize, bestYes, bestNo
}

// MaxProfitableInvestment calcula cuánto capital se puede desplegar manteniendo
// el margen objetivo, y el profit esperado a ese tamaño.
//
// Delega en FindOptimalTradeSize con maxCombinedCost = 1 - targetMargin: cada
// par YES+NO resuelve a $1, así que comprar el par a (1 - margen) garantiza
// el margen por share.
func MaxProfitableInvestment(
	yesLevels, noLevels []BookEntry,
	targetMargin, maxShares float64,
) (investment, profit float64) {
	shares, effYes, effNo := FindOptimalTradeSize(
		yesLevels, noLevels,
		1.0-targetMargin,
		maxShares,
		defaultSizePrecision,
	)
	if shares <= 0 {
		return 0, 0
	}

	combined := effYes + effNo
	return shares * combined, shares * (1.0 - combined)
}

// defaultSizePrecision es la precisión (en shares) de la búsqueda de tamaño.
const defaultSizePrecision = 0.01
