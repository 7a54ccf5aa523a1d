package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// Gamma acepta hasta 20 condition_ids por query.
const gammaConditionMax = 20

// EnrichWithGamma completa los mercados con la metadata que el CLOB no
// expone: question, slug, category, endDate y volume24hr. Un mercado que
// Gamma no conoce se devuelve tal cual vino.
func (c *Client) EnrichWithGamma(ctx context.Context, markets []domain.Market) ([]domain.Market, error) {
	ids := make([]string, len(markets))
	for i, m := range markets {
		ids[i] = m.ConditionID
	}

	meta, err := c.gammaMetadata(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("gamma.EnrichWithGamma: %w", err)
	}

	hits := 0
	for i := range markets {
		gm, ok := meta[markets[i].ConditionID]
		if !ok {
			continue
		}
		enrichFromGamma(&markets[i], gm)
		hits++
	}

	slog.Debug("gamma enrichment", "markets", len(markets), "enriched", hits)
	return markets, nil
}

// gammaMetadata consulta Gamma por batches. Un batch que falla se salta y
// sus mercados quedan sin metadata; el caller decide si eso es fatal.
func (c *Client) gammaMetadata(ctx context.Context, conditionIDs []string) (map[string]gammaMarket, error) {
	meta := make(map[string]gammaMarket, len(conditionIDs))

	for _, batch := range splitBatches(conditionIDs, gammaConditionMax) {
		q := url.Values{}
		q.Set("condition_ids", strings.Join(batch, ","))
		q.Set("limit", fmt.Sprint(gammaConditionMax))

		var resp gammaMarketsResponse
		if err := c.get(ctx, c.gammaLimiter, c.gammaBase+"/markets?"+q.Encode(), &resp); err != nil {
			slog.Debug("gamma batch failed, skipping", "size", len(batch), "err", err)
			continue
		}
		for _, gm := range resp {
			meta[gm.ConditionID] = gm
		}
	}

	return meta, nil
}
