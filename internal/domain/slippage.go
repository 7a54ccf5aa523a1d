package domain

// CheckSlippage decide si se puede ejecutar al precio observado ahora mismo,
// comparado con el precio combinado que se usó al detectar la oportunidad.
//
// Se llama justo antes de enviar las órdenes: si el mercado se movió más de
// maxSlippage (fracción relativa, borde inclusivo) se aborta la ejecución.
// expectedCost <= 0 siempre rechaza.
func CheckSlippage(expectedCost, currentCost, maxSlippage float64) bool {
	if expectedCost <= 0 {
		return false
	}

	diff := currentCost - expectedCost
	if diff < 0 {
		diff = -diff
	}
	return diff/expectedCost <= maxSlippage
}
