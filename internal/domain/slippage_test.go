package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckSlippage(t *testing.T) {
	// Borde inclusivo: 0.5% de movimiento con tolerancia 0.5% pasa
	assert.True(t, CheckSlippage(1.0, 1.005, 0.005))
	assert.False(t, CheckSlippage(1.0, 1.006, 0.005))

	// El movimiento a favor también cuenta como slippage (valor absoluto)
	assert.True(t, CheckSlippage(1.0, 0.995, 0.005))
	assert.False(t, CheckSlippage(1.0, 0.99, 0.005))

	// Sin movimiento
	assert.True(t, CheckSlippage(0.95, 0.95, 0))
}

func TestCheckSlippage_RejectsNonPositiveExpected(t *testing.T) {
	assert.False(t, CheckSlippage(0, 1.0, 0.5))
	assert.False(t, CheckSlippage(-1, 1.0, 0.5))
}
