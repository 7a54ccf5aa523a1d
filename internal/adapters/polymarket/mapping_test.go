package polymarket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapBookEntries_SortsAndDrops(t *testing.T) {
	raw := []bookEntryRaw{
		{Price: "0.75", Size: "10"},
		{Price: "0.72", Size: "80"},
		{Price: "0", Size: "50"},     // precio inválido
		{Price: "0.80", Size: "0"},   // size inválido
		{Price: "bogus", Size: "10"}, // no parseable
	}

	asks := mapBookEntries(raw, true)
	require.Len(t, asks, 2)
	assert.InDelta(t, 0.72, asks[0].Price, 0.0001)
	assert.InDelta(t, 0.75, asks[1].Price, 0.0001)

	bids := mapBookEntries(raw, false)
	require.Len(t, bids, 2)
	assert.InDelta(t, 0.75, bids[0].Price, 0.0001)
}

func TestMapMarket_MultiOutcomeNotBinary(t *testing.T) {
	m := mapMarket(clobMarket{
		ConditionID: "0xmulti",
		Tokens: []clobToken{
			{TokenID: "a", Outcome: "Team A"},
			{TokenID: "b", Outcome: "Team B"},
			{TokenID: "c", Outcome: "Team C"},
		},
	})
	assert.False(t, m.IsBinary())
}

func TestMapMarket_Binary(t *testing.T) {
	m := mapMarket(clobMarket{
		ConditionID: "0xbin",
		QuestionID:  "0xq",
		Question:    "Will X happen?",
		Tokens: []clobToken{
			{TokenID: "yes1", Outcome: "Yes", Price: 0.6},
			{TokenID: "no1", Outcome: "No", Price: 0.4},
		},
		Active: true,
	})
	require.True(t, m.IsBinary())
	assert.Equal(t, "yes1", m.YesToken().TokenID)
	assert.Equal(t, "no1", m.NoToken().TokenID)
	assert.InDelta(t, 0.6, m.YesToken().Price, 0.0001)
}

func TestEnrichFromGamma_Dates(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want time.Time
	}{
		{"2026-09-30T00:00:00Z", time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)},
		{"2026-09-30", time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)},
	} {
		m := mapMarket(clobMarket{ConditionID: "0x1"})
		enrichFromGamma(&m, gammaMarket{EndDateISO: tc.raw, Volume24h: "123.5", Category: "Sports"})
		assert.Equal(t, tc.want, m.EndDate, tc.raw)
		assert.InDelta(t, 123.5, m.Volume24h, 0.001)
		assert.Equal(t, "Sports", m.Category)
	}
}

func TestDetectPricePrecision(t *testing.T) {
	assert.Equal(t, int64(100), detectPricePrecision(0.60))
	assert.Equal(t, int64(1000), detectPricePrecision(0.673))
	assert.Equal(t, int64(100), detectPricePrecision(0.123456789))
}
