package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "stock name", normalizeKey("  Stock   Name "))
	assert.Equal(t, "avg. cost", normalizeKey("AVG.\tCOST"))
	assert.Equal(t, "", normalizeKey("   "))
}

func TestResolveFieldSynonyms(t *testing.T) {
	cases := []struct {
		field string
		key   string
		value string
	}{
		{"symbol", "Scrip Name", "TCS"},
		{"symbol", "SYMBOL", "INFY"},
		{"isin", "ISIN Code", "INE467B01029"},
		{"quantity", "Quantity  Held", "12"},
		{"avgPrice", "Avg. Cost", "3500"},
		{"currentPrice", "CMP", "3650"},
		{"investmentValue", "Invested Amount", "42000"},
		{"currentValue", "Market Value", "43800"},
		{"unrealizedGainLoss", "Unrealised P&L", "1800"},
	}

	for _, tc := range cases {
		row := normalizeRowKeys(map[string]string{tc.key: tc.value})
		got, ok := resolveField(row, fieldSynonyms[tc.field])
		require.True(t, ok, "field %s via %q", tc.field, tc.key)
		assert.Equal(t, tc.value, got)
	}
}

func TestResolveFieldOrderIsFirstMatchWins(t *testing.T) {
	// "stock name" precedes "symbol" in the candidate list, so it wins even
	// when both columns are present.
	row := normalizeRowKeys(map[string]string{
		"Symbol":     "TCS.NS",
		"Stock Name": "Tata Consultancy Services",
	})

	got, ok := resolveField(row, fieldSynonyms["symbol"])
	require.True(t, ok)
	assert.Equal(t, "Tata Consultancy Services", got)
}

func TestResolveFieldSkipsEmptyValues(t *testing.T) {
	row := normalizeRowKeys(map[string]string{
		"Stock Name": "",
		"Symbol":     "TCS",
	})

	got, ok := resolveField(row, fieldSynonyms["symbol"])
	require.True(t, ok)
	assert.Equal(t, "TCS", got)
}

func TestResolveFieldAbsent(t *testing.T) {
	row := normalizeRowKeys(map[string]string{"Unrelated": "x"})

	_, ok := resolveField(row, fieldSynonyms["isin"])
	assert.False(t, ok)
}
