package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbot/internal/adapters/polymarket"
)

const marketsPage = `{
	"limit": 100, "count": 3, "next_cursor": "LTE=",
	"data": [
		{
			"condition_id": "0xabc123",
			"question_id": "0xq001",
			"question": "Will it rain tomorrow?",
			"tokens": [
				{"token_id": "token_yes_001", "outcome": "Yes", "price": 0.72},
				{"token_id": "token_no_001",  "outcome": "No",  "price": 0.28}
			],
			"active": true,
			"closed": false
		},
		{
			"condition_id": "0xdef456",
			"question_id": "0xq002",
			"question": "Closed market",
			"tokens": [
				{"token_id": "token_yes_002", "outcome": "Yes", "price": 1.0},
				{"token_id": "token_no_002",  "outcome": "No",  "price": 0.0}
			],
			"active": false,
			"closed": true
		},
		{
			"condition_id": "0xmulti",
			"question_id": "0xq003",
			"question": "Which team wins the cup?",
			"tokens": [
				{"token_id": "t_a", "outcome": "Team A", "price": 0.4},
				{"token_id": "t_b", "outcome": "Team B", "price": 0.3},
				{"token_id": "t_c", "outcome": "Team C", "price": 0.3}
			],
			"active": true,
			"closed": false
		}
	]
}`

const gammaPage = `[
	{
		"conditionId": "0xabc123",
		"question": "Will it rain tomorrow?",
		"slug": "will-it-rain-tomorrow",
		"category": "Weather",
		"endDateIso": "2026-09-30T00:00:00Z",
		"volume24hr": "15000.5"
	}
]`

func TestFetchMarkets_FiltersAndEnriches(t *testing.T) {
	clobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsPage))
	}))
	defer clobSrv.Close()

	gammaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("condition_ids"), "0xabc123")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(gammaPage))
	}))
	defer gammaSrv.Close()

	client := polymarket.NewClient(clobSrv.URL, gammaSrv.URL)
	markets, err := client.FetchMarkets(context.Background(), 1000, true)

	require.NoError(t, err)
	// El mercado cerrado y el multi-outcome quedan fuera.
	require.Len(t, markets, 1)

	m := markets[0]
	assert.Equal(t, "0xabc123", m.ConditionID)
	assert.Equal(t, "will-it-rain-tomorrow", m.Slug)
	assert.Equal(t, "Weather", m.Category)
	assert.InDelta(t, 15000.5, m.Volume24h, 0.001)
	assert.Equal(t, "token_yes_001", m.YesToken().TokenID)
	assert.Equal(t, "token_no_001", m.NoToken().TokenID)
}

func TestFetchMarkets_MinVolumeFiltersOut(t *testing.T) {
	clobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsPage))
	}))
	defer clobSrv.Close()

	gammaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(gammaPage))
	}))
	defer gammaSrv.Close()

	client := polymarket.NewClient(clobSrv.URL, gammaSrv.URL)
	markets, err := client.FetchMarkets(context.Background(), 50_000, true)

	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestFetchMarkets_Pagination(t *testing.T) {
	page := 0
	clobSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page++
		cursor := "next_page"
		if page == 2 {
			assert.Equal(t, "next_page", r.URL.Query().Get("next_cursor"))
			cursor = "LTE="
		}
		resp := map[string]any{
			"limit": 100, "count": 1, "next_cursor": cursor,
			"data": []map[string]any{{
				"condition_id": "0xpage" + cursor,
				"question_id":  "0xq",
				"tokens": []map[string]any{
					{"token_id": "y" + cursor, "outcome": "Yes", "price": 0.5},
					{"token_id": "n" + cursor, "outcome": "No", "price": 0.5},
				},
				"active": true, "closed": false,
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer clobSrv.Close()

	gammaSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer gammaSrv.Close()

	client := polymarket.NewClient(clobSrv.URL, gammaSrv.URL)
	markets, err := client.FetchMarkets(context.Background(), 0, true)

	require.NoError(t, err)
	assert.Len(t, markets, 2)
	assert.Equal(t, 2, page)
}

func TestFetchMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL, srv.URL)
	_, err := client.FetchMarkets(context.Background(), 0, true)
	assert.Error(t, err)
}

const booksBatch = `[
	{
		"asset_id": "token_yes_001",
		"bids": [{"price": "0.70", "size": "100"}, {"price": "0.68", "size": "50"}],
		"asks": [{"price": "0.72", "size": "80"},  {"price": "0.75", "size": "200"}]
	},
	{
		"asset_id": "token_no_001",
		"bids": [{"price": "0.27", "size": "60"}],
		"asks": [{"price": "0.29", "size": "120"}]
	}
]`

func TestFetchOrderBooks_Batch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/books", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(booksBatch))
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL, "")
	books, err := client.FetchOrderBooks(context.Background(), []string{"token_yes_001", "token_no_001"})

	require.NoError(t, err)
	require.Len(t, books, 2)

	yesBook, ok := books["token_yes_001"]
	require.True(t, ok)
	assert.InDelta(t, 0.70, yesBook.BestBid(), 0.001)
	assert.InDelta(t, 0.72, yesBook.BestAsk(), 0.001)
	assert.InDelta(t, 0.71, yesBook.Midpoint(), 0.001)

	noBook, ok := books["token_no_001"]
	require.True(t, ok)
	assert.InDelta(t, 0.27, noBook.BestBid(), 0.001)
	assert.InDelta(t, 0.29, noBook.BestAsk(), 0.001)
}

func TestFetchOrderBooks_BatchSplitting(t *testing.T) {
	callCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callCount++
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]any{})
	}))
	defer srv.Close()

	client := polymarket.NewClient(srv.URL, "")

	// 25 token_ids → debe hacer 2 requests (batch de 20 + batch de 5)
	tokenIDs := make([]string, 25)
	for i := range tokenIDs {
		tokenIDs[i] = "token_" + string(rune('a'+i%26))
	}

	_, err := client.FetchOrderBooks(context.Background(), tokenIDs)
	require.NoError(t, err)
	assert.Equal(t, 2, callCount, "debe hacer 2 requests batch para 25 tokens")
}

func TestFetchOrderBooks_Empty(t *testing.T) {
	client := polymarket.NewClient("http://unused", "")
	books, err := client.FetchOrderBooks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, books)
}
