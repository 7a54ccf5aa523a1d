package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asks(levels ...[2]float64) []BookEntry {
	out := make([]BookEntry, len(levels))
	for i, l := range levels {
		out[i] = BookEntry{Price: l[0], Size: l[1]}
	}
	return out
}

func TestCalculateEffectiveCost_SingleLevel(t *testing.T) {
	book := asks([2]float64{0.45, 100})

	r := CalculateEffectiveCost(book, 50)

	require.True(t, r.HasSufficientLiquidity)
	assert.Equal(t, 50.0, r.SharesFilled)
	assert.InDelta(t, 0.45, r.EffectivePrice, 1e-9)
	assert.InDelta(t, 22.5, r.TotalCost, 1e-9)
	assert.Equal(t, 1, r.LevelsConsumed)
}

func TestCalculateEffectiveCost_MultiLevel_WeightedAverage(t *testing.T) {
	// 10 shares a 0.45 + 40 shares a 0.55 → (4.5 + 22) / 50 = 0.53
	book := asks([2]float64{0.45, 10}, [2]float64{0.55, 90})

	r := CalculateEffectiveCost(book, 50)

	require.True(t, r.HasSufficientLiquidity)
	assert.Equal(t, 50.0, r.SharesFilled)
	assert.InDelta(t, 0.53, r.EffectivePrice, 1e-9)
	assert.Equal(t, 2, r.LevelsConsumed)
}

func TestCalculateEffectiveCost_InsufficientLiquidity(t *testing.T) {
	book := asks([2]float64{0.45, 10}, [2]float64{0.55, 20})

	r := CalculateEffectiveCost(book, 100)

	assert.False(t, r.HasSufficientLiquidity)
	// Se llena todo lo disponible, estrictamente menos que lo pedido
	assert.Equal(t, 30.0, r.SharesFilled)
	assert.InDelta(t, (0.45*10+0.55*20)/30, r.EffectivePrice, 1e-9)
}

func TestCalculateEffectiveCost_EmptyBookAndZeroShares(t *testing.T) {
	assert.Equal(t, MarketImpactResult{}, CalculateEffectiveCost(nil, 10))
	assert.Equal(t, MarketImpactResult{}, CalculateEffectiveCost(asks([2]float64{0.5, 10}), 0))
	assert.Equal(t, MarketImpactResult{}, CalculateEffectiveCost(asks([2]float64{0.5, 10}), -5))
}

func TestCalculateEffectiveCost_SkipsNonPositiveSizes(t *testing.T) {
	book := []BookEntry{
		{Price: 0.40, Size: 0},
		{Price: 0.45, Size: 20},
		{Price: 0.50, Size: -3},
		{Price: 0.55, Size: 20},
	}

	r := CalculateEffectiveCost(book, 30)

	require.True(t, r.HasSufficientLiquidity)
	assert.InDelta(t, (0.45*20+0.55*10)/30, r.EffectivePrice, 1e-9)
	assert.Equal(t, 2, r.LevelsConsumed)
}

func TestFindOptimalTradeSize_StrictlyUnderTarget(t *testing.T) {
	yes := asks([2]float64{0.45, 100})
	no := asks([2]float64{0.50, 100})

	shares, effYes, effNo := FindOptimalTradeSize(yes, no, 0.98, 100, 0.01)

	require.Greater(t, shares, 0.0)
	// Postcondición: el coste combinado queda estrictamente bajo el target
	assert.Less(t, effYes+effNo, 0.98)
	assert.InDelta(t, 0.45, effYes, 1e-9)
	assert.InDelta(t, 0.50, effNo, 1e-9)
}

func TestFindOptimalTradeSize_UnprofitableAtOneShare(t *testing.T) {
	yes := asks([2]float64{0.55, 100})
	no := asks([2]float64{0.50, 100})

	shares, effYes, effNo := FindOptimalTradeSize(yes, no, 0.98, 100, 0.01)

	assert.Zero(t, shares)
	assert.Zero(t, effYes)
	assert.Zero(t, effNo)
}

func TestFindOptimalTradeSize_IlliquidSide(t *testing.T) {
	yes := asks([2]float64{0.45, 100})

	shares, _, _ := FindOptimalTradeSize(yes, nil, 0.98, 100, 0.01)
	assert.Zero(t, shares)

	shares, _, _ = FindOptimalTradeSize(nil, yes, 0.98, 100, 0.01)
	assert.Zero(t, shares)
}

// Regresión del caso que motivó todo el módulo: el top-of-book engaña.
// YES [(0.45,10),(0.55,90)] + NO [(0.50,10),(0.60,90)] suma 0.95 en superficie,
// pero a 50 shares el coste real supera 1.0. El sizing debe quedarse por
// debajo de ~15 shares, no tragar 50.
func TestFindOptimalTradeSize_DepthAwareRegression(t *testing.T) {
	yes := asks([2]float64{0.45, 10}, [2]float64{0.55, 90})
	no := asks([2]float64{0.50, 10}, [2]float64{0.60, 90})

	costAt50 := CalculateEffectiveCost(yes, 50).EffectivePrice +
		CalculateEffectiveCost(no, 50).EffectivePrice
	require.Greater(t, costAt50, 1.0, "a 50 shares el par ya no es rentable")

	shares, effYes, effNo := FindOptimalTradeSize(yes, no, 1.0, 100, 0.01)

	require.Greater(t, shares, 0.0)
	assert.Less(t, shares, 15.0)
	assert.Less(t, effYes+effNo, 1.0)
}

func TestFindOptimalTradeSize_CappedByMaxShares(t *testing.T) {
	yes := asks([2]float64{0.40, 1000})
	no := asks([2]float64{0.40, 1000})

	shares, _, _ := FindOptimalTradeSize(yes, no, 0.98, 25, 0.01)

	assert.Greater(t, shares, 0.0)
	assert.LessOrEqual(t, shares, 25.0)
	assert.InDelta(t, 25.0, shares, 0.05) // el book aguanta el cap entero
}

func TestMaxProfitableInvestment(t *testing.T) {
	yes := asks([2]float64{0.45, 100})
	no := asks([2]float64{0.50, 100})

	investment, profit := MaxProfitableInvestment(yes, no, 0.02, 100)

	// combined = 0.95 < 0.98 → se llena hasta el tope del book/cap
	require.Greater(t, investment, 0.0)
	require.Greater(t, profit, 0.0)
	// profit por share = 1 - 0.95 = 0.05; investment por share = 0.95
	assert.InDelta(t, profit/0.05, investment/0.95, 0.1)
}

func TestMaxProfitableInvestment_NoEdge(t *testing.T) {
	yes := asks([2]float64{0.55, 100})
	no := asks([2]float64{0.50, 100})

	investment, profit := MaxProfitableInvestment(yes, no, 0.02, 100)

	assert.Zero(t, investment)
	assert.Zero(t, profit)
}
