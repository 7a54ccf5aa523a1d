package polymarket

// clob.go — Polymarket CLOB API adapter.
//
// FetchOrderBooks dispara un goroutine por batch de /books; el token bucket
// del rate limiter controla el ritmo sin necesidad de semáforo explícito.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/arbot/internal/domain"
)

const (
	marketsPath = "/markets"
	booksPath   = "/books"
	pageSize    = 100
	batchSize   = 20 // máx token_ids por request a /books
)

// endCursor es el cursor vacío en base64 que marca la última página.
const endCursor = "LTE="

// FetchMarkets devuelve los mercados binarios del CLOB enriquecidos con
// metadata de Gamma, filtrados por volumen 24h y estado.
// Pagina automáticamente usando next_cursor hasta agotar los resultados.
func (c *Client) FetchMarkets(ctx context.Context, minVolume float64, activeOnly bool) ([]domain.Market, error) {
	var all []domain.Market
	cursor := ""

	for {
		url := fmt.Sprintf("%s%s?limit=%d", c.clobBase, marketsPath, pageSize)
		if cursor != "" {
			url += "&next_cursor=" + cursor
		}

		var resp clobMarketsResponse
		if err := c.get(ctx, c.clobLimiter, url, &resp); err != nil {
			return nil, fmt.Errorf("clob.FetchMarkets: %w", err)
		}

		for _, raw := range resp.Data {
			m := mapMarket(raw)
			// Solo mercados binarios con ambos tokens; los multi-outcome
			// llegan por este endpoint con más de dos tokens.
			if !m.IsBinary() {
				continue
			}
			if activeOnly && (!m.Active || m.Closed) {
				continue
			}
			all = append(all, m)
		}

		slog.Debug("fetched markets page",
			"count", len(resp.Data),
			"kept", len(all),
			"has_more", resp.NextCursor != "" && resp.NextCursor != endCursor,
		)

		if resp.NextCursor == "" || resp.NextCursor == endCursor {
			break
		}
		cursor = resp.NextCursor
	}

	// Enriquecer con metadata de Gamma (question, slug, category, volumen).
	enriched, err := c.EnrichWithGamma(ctx, all)
	if err != nil {
		// El enriquecimiento es opcional salvo que haya filtro de volumen:
		// sin Volume24h no podemos aplicarlo.
		if minVolume > 0 {
			return nil, fmt.Errorf("clob.FetchMarkets: %w", err)
		}
		slog.Warn("gamma enrichment failed, continuing without metadata", "err", err)
	} else {
		all = enriched
	}

	if minVolume > 0 {
		filtered := all[:0]
		for _, m := range all {
			if m.Volume24h >= minVolume {
				filtered = append(filtered, m)
			}
		}
		all = filtered
	}

	slog.Info("markets fetched", "total", len(all), "min_volume", minVolume)
	return all, nil
}

// FetchOrderBooks obtiene los orderbooks para los token_ids dados usando el
// endpoint batch, con un goroutine por batch de batchSize tokens.
func (c *Client) FetchOrderBooks(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	if len(tokenIDs) == 0 {
		return map[string]domain.OrderBook{}, nil
	}

	batches := splitBatches(tokenIDs, batchSize)

	type batchResult struct {
		books map[string]domain.OrderBook
		err   error
		idx   int
	}

	resultCh := make(chan batchResult, len(batches))
	var wg sync.WaitGroup

	for i, batch := range batches {
		i, batch := i, batch
		wg.Add(1)
		go func() {
			defer wg.Done()
			books, err := c.fetchBooksBatch(ctx, batch)
			resultCh <- batchResult{books: books, err: err, idx: i}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := make(map[string]domain.OrderBook, len(tokenIDs))
	var firstErr error

	for r := range resultCh {
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("clob.FetchOrderBooks batch %d: %w", r.idx, r.err)
			}
			continue
		}
		for k, v := range r.books {
			result[k] = v
		}
	}

	if firstErr != nil && len(result) == 0 {
		return nil, firstErr
	}
	if firstErr != nil {
		slog.Warn("partial orderbook fetch", "got", len(result), "want", len(tokenIDs), "err", firstErr)
	}
	return result, nil
}

// fetchBooksBatch hace un POST /books con hasta batchSize token IDs.
func (c *Client) fetchBooksBatch(ctx context.Context, tokenIDs []string) (map[string]domain.OrderBook, error) {
	body := make([]orderBookRequest, len(tokenIDs))
	for i, id := range tokenIDs {
		body[i] = orderBookRequest{TokenID: id}
	}

	var resp []orderBookResponse
	if err := c.post(ctx, c.booksLimiter, c.clobBase+booksPath, body, &resp); err != nil {
		return nil, err
	}
	return mapOrderBooks(resp), nil
}

// splitBatches parte los IDs en grupos de como máximo size elementos.
func splitBatches(tokenIDs []string, size int) [][]string {
	var batches [][]string
	for i := 0; i < len(tokenIDs); i += size {
		end := i + size
		if end > len(tokenIDs) {
			end = len(tokenIDs)
		}
		batches = append(batches, tokenIDs[i:end])
	}
	return batches
}
