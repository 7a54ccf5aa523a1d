package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbot/internal/adapters/storage"
	"github.com/alejandrodnm/arbot/internal/domain"
)

func makeSnapshot(tokenID, marketID string, ts time.Time) domain.BookSnapshot {
	return domain.BookSnapshot{
		Timestamp: ts,
		TokenID:   tokenID,
		MarketID:  marketID,
		Platform:  "polymarket",
		AsksJSON:  `[{"price":"0.45","size":"100"}]`,
		BidsJSON:  `[{"price":"0.43","size":"50"}]`,
	}
}

func TestSQLiteStore_SnapshotsRoundTrip(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Insertar fuera de orden: la query debe devolverlos por ts ascendente.
	require.NoError(t, db.SaveSnapshot(ctx, makeSnapshot("tok_yes", "0xm1", base.Add(2*time.Second))))
	require.NoError(t, db.SaveSnapshot(ctx, makeSnapshot("tok_no", "0xm1", base)))
	require.NoError(t, db.SaveSnapshot(ctx, makeSnapshot("tok_yes", "0xm2", base.Add(time.Second))))

	snaps, err := db.SnapshotsForPeriod(ctx, base.Add(-time.Minute), base.Add(time.Minute), "", "")
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, "tok_no", snaps[0].TokenID)
	assert.Equal(t, "0xm2", snaps[1].MarketID)
	assert.Equal(t, base, snaps[0].Timestamp)

	asks, err := snaps[0].Asks()
	require.NoError(t, err)
	require.Len(t, asks, 1)
	assert.InDelta(t, 0.45, asks[0].Price, 0.0001)
}

func TestSQLiteStore_SnapshotsMarketFilter(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SaveSnapshot(ctx, makeSnapshot("a", "0xm1", base)))
	require.NoError(t, db.SaveSnapshot(ctx, makeSnapshot("b", "0xm2", base)))

	snaps, err := db.SnapshotsForPeriod(ctx, base.Add(-time.Hour), base.Add(time.Hour), "0xm2", "polymarket")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "0xm2", snaps[0].MarketID)

	// Rango sin datos
	snaps, err = db.SnapshotsForPeriod(ctx, base.Add(time.Hour), base.Add(2*time.Hour), "", "")
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestSQLiteStore_MarketTokensUpsert(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()

	_, ok, err := db.MarketTokens(ctx, "0xm1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, db.SaveMarketTokens(ctx, domain.MarketTokens{
		MarketID: "0xm1", YesTokenID: "tok_yes", NoTokenID: "tok_no",
	}))

	mt, ok, err := db.MarketTokens(ctx, "0xm1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok_yes", mt.YesTokenID)
	assert.Equal(t, "tok_no", mt.NoTokenID)

	// Upsert sobre la misma fila
	require.NoError(t, db.SaveMarketTokens(ctx, domain.MarketTokens{
		MarketID: "0xm1", YesTokenID: "tok_yes2", NoTokenID: "tok_no2",
	}))

	mt, ok, err = db.MarketTokens(ctx, "0xm1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok_yes2", mt.YesTokenID)
}

func TestSQLiteStore_TradeLedger(t *testing.T) {
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	trade := domain.TradeRecord{
		ID:          "trade-001",
		Timestamp:   base,
		MarketID:    "0xm1",
		Platform:    "polymarket",
		Shares:      10,
		YesPrice:    0.45,
		NoPrice:     0.50,
		EntryCost:   9.5,
		ExpectedPnl: 0.5,
		ROI:         5.26,
		LevelsYes:   2,
		LevelsNo:    1,
		Simulated:   true,
	}
	require.NoError(t, db.SaveTrade(ctx, trade))

	trades, err := db.Trades(ctx, base.Add(-time.Hour), base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, base, got.Timestamp)
	assert.InDelta(t, 9.5, got.EntryCost, 0.0001)
	assert.InDelta(t, 0.5, got.ExpectedPnl, 0.0001)
	assert.Equal(t, 2, got.LevelsYes)
	assert.True(t, got.Simulated)

	// El ledger es append-only: IDs duplicados fallan.
	assert.Error(t, db.SaveTrade(ctx, trade))
}
