package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookLevels_StringAndFloatPrices(t *testing.T) {
	// El collector guarda lo que manda el venue: a veces strings, a veces floats
	entries, err := ParseBookLevels(`[{"price":"0.45","size":"10"},{"price":0.55,"size":90}]`)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, BookEntry{Price: 0.45, Size: 10}, entries[0])
	assert.Equal(t, BookEntry{Price: 0.55, Size: 90}, entries[1])
}

func TestParseBookLevels_DropsNonPositive(t *testing.T) {
	entries, err := ParseBookLevels(`[{"price":0.45,"size":0},{"price":0,"size":10},{"price":0.5,"size":5}]`)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.5, entries[0].Price)
}

func TestParseBookLevels_Empty(t *testing.T) {
	for _, raw := range []string{"", "[]", "null"} {
		entries, err := ParseBookLevels(raw)
		require.NoError(t, err)
		assert.Nil(t, entries)
	}
}

func TestParseBookLevels_Malformed(t *testing.T) {
	_, err := ParseBookLevels(`{"price":`)
	assert.Error(t, err)

	_, err = ParseBookLevels(`[{"price":"abc","size":"1"}]`)
	assert.Error(t, err)
}

func TestEncodeBookLevels_RoundTrip(t *testing.T) {
	in := []BookEntry{{Price: 0.45, Size: 10}, {Price: 0.55, Size: 90}}

	out, err := ParseBookLevels(EncodeBookLevels(in))

	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, "[]", EncodeBookLevels(nil))
}
