package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// BookSnapshot es el estado grabado del orderbook de un token en un instante.
// Es la unidad de replay del backtest. Los niveles van serializados como JSON
// crudo tal y como los dejó el collector; se parsean de forma perezosa porque
// muchas filas se descartan por filtros sin llegar a evaluarse.
type BookSnapshot struct {
	ID        int64
	Timestamp time.Time
	TokenID   string
	MarketID  string
	Platform  string
	AsksJSON  string
	BidsJSON  string
}

// snapshotLevel es el formato on-disk de un nivel. Los precios van como
// json.Number porque el collector los guarda tal cual llegan del venue
// (algunos feeds mandan strings, otros floats).
type snapshotLevel struct {
	Price json.Number `json:"price"`
	Size  json.Number `json:"size"`
}

// ParseBookLevels deserializa un lado del book desde su JSON almacenado.
// Los niveles con precio o size no positivos se descartan. El orden de los
// niveles se respeta tal cual viene — el collector ya los guarda ordenados
// (asks ascendente, bids descendente).
func ParseBookLevels(raw string) ([]BookEntry, error) {
	if raw == "" || raw == "[]" || raw == "null" {
		return nil, nil
	}

	var levels []snapshotLevel
	if err := json.Unmarshal([]byte(raw), &levels); err != nil {
		return nil, fmt.Errorf("domain.ParseBookLevels: %w", err)
	}

	entries := make([]BookEntry, 0, len(levels))
	for _, lvl := range levels {
		price, err := lvl.Price.Float64()
		if err != nil {
			return nil, fmt.Errorf("domain.ParseBookLevels: price %q: %w", lvl.Price, err)
		}
		size, err := lvl.Size.Float64()
		if err != nil {
			return nil, fmt.Errorf("domain.ParseBookLevels: size %q: %w", lvl.Size, err)
		}
		if price <= 0 || size <= 0 {
			continue
		}
		entries = append(entries, BookEntry{Price: price, Size: size})
	}
	return entries, nil
}

// Asks parsea el lado ask del snapshot.
func (s BookSnapshot) Asks() ([]BookEntry, error) {
	return ParseBookLevels(s.AsksJSON)
}

// Bids parsea el lado bid del snapshot.
func (s BookSnapshot) Bids() ([]BookEntry, error) {
	return ParseBookLevels(s.BidsJSON)
}

// EncodeBookLevels serializa niveles al formato on-disk de los snapshots.
// Es la inversa de ParseBookLevels; la usa el collector al archivar books.
func EncodeBookLevels(entries []BookEntry) string {
	if len(entries) == 0 {
		return "[]"
	}
	levels := make([]snapshotLevel, len(entries))
	for i, e := range entries {
		levels[i] = snapshotLevel{
			Price: json.Number(fmt.Sprintf("%g", e.Price)),
			Size:  json.Number(fmt.Sprintf("%g", e.Size)),
		}
	}
	b, _ := json.Marshal(levels)
	return string(b)
}

// MarketTokens es la metadata YES/NO de un mercado en el snapshot store.
type MarketTokens struct {
	MarketID   string
	YesTokenID string
	NoTokenID  string
}
