package polymarket

import (
	"sort"
	"time"

	"github.com/alejandrodnm/arbot/internal/domain"
)

// mapMarket convierte un clobMarket DTO a domain.Market.
func mapMarket(r clobMarket) domain.Market {
	m := domain.Market{
		ConditionID: r.ConditionID,
		QuestionID:  r.QuestionID,
		Question:    r.Question,
		Active:      r.Active,
		Closed:      r.Closed,
	}

	for i, t := range r.Tokens {
		if i >= 2 {
			// Más de dos tokens → multi-outcome. Dejamos el tercero fuera
			// y el caller lo descarta vía IsBinary (IDs duplicados no).
			break
		}
		m.Tokens[i] = domain.Token{
			TokenID: t.TokenID,
			Outcome: t.Outcome,
			Price:   t.Price,
		}
	}

	if len(r.Tokens) > 2 {
		// Marcar como no binario vaciando el segundo token.
		m.Tokens[1] = domain.Token{}
	}

	return m
}

// enrichFromGamma aplica la metadata de Gamma sobre un mercado existente.
func enrichFromGamma(m *domain.Market, gm gammaMarket) {
	if gm.Question != "" {
		m.Question = gm.Question
	}
	m.Slug = gm.Slug
	m.Category = gm.Category

	if v, err := gm.Volume24h.Float64(); err == nil {
		m.Volume24h = v
	}

	if gm.EndDateISO != "" {
		// Polymarket usa varios formatos; intentamos los más comunes
		for _, layout := range []string{
			time.RFC3339,
			"2006-01-02T15:04:05.000Z",
			"2006-01-02T15:04:05Z",
			"2006-01-02",
		} {
			if t, err := time.Parse(layout, gm.EndDateISO); err == nil {
				m.EndDate = t.UTC()
				break
			}
		}
	}
}

// mapOrderBooks convierte la respuesta batch de /books a un map tokenID→OrderBook.
func mapOrderBooks(raw []orderBookResponse) map[string]domain.OrderBook {
	result := make(map[string]domain.OrderBook, len(raw))
	for _, r := range raw {
		result[r.AssetID] = domain.OrderBook{
			TokenID: r.AssetID,
			Bids:    mapBookEntries(r.Bids, false),
			Asks:    mapBookEntries(r.Asks, true),
		}
	}
	return result
}

// mapBookEntries convierte entries raw a domain.BookEntry y los ordena.
// ascending=true → menor a mayor (asks), ascending=false → mayor a menor (bids).
// Niveles con precio o tamaño no positivos se descartan.
func mapBookEntries(raw []bookEntryRaw, ascending bool) []domain.BookEntry {
	entries := make([]domain.BookEntry, 0, len(raw))
	for _, r := range raw {
		price := domain.ParsePrice(r.Price)
		size := domain.ParsePrice(r.Size)
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, domain.BookEntry{Price: price, Size: size})
	}

	sort.Slice(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Price < entries[j].Price
		}
		return entries[i].Price > entries[j].Price
	})

	return entries
}
