package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocateHeaderRowSkipsPreamble(t *testing.T) {
	rows := [][]string{
		{"Holdings Statement for Demat Account"},
		{""},
		{"", "", ""},
		{"Stock Name", "ISIN", "Quantity", "Average Buy Price"},
		{"TCS", "INE467B01029", "10", "3500"},
	}

	idx, err := LocateHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestLocateHeaderRowIsIdempotent(t *testing.T) {
	rows := [][]string{
		{"title"},
		{"Scrip Name", "Qty"},
	}

	first, err := LocateHeaderRow(rows)
	require.NoError(t, err)
	second, err := LocateHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocateHeaderRowCaseAndWhitespace(t *testing.T) {
	rows := [][]string{
		{"  QUANTITY  ", "price"},
	}

	idx, err := LocateHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestLocateHeaderRowIndicatorInsideLongerCell(t *testing.T) {
	// A cell merely containing an indicator substring still marks the header.
	// Accepted false-positive behaviour.
	rows := [][]string{
		{"This report lists the quantity of each scrip you hold"},
		{"Symbol", "Units"},
	}

	idx, err := LocateHeaderRow(rows)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestLocateHeaderRowNotFound(t *testing.T) {
	rows := [][]string{
		{"Account Summary"},
		{"Ticker", "Units", "Cost"},
	}

	_, err := LocateHeaderRow(rows)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestLocateHeaderRowEmptyInput(t *testing.T) {
	_, err := LocateHeaderRow(nil)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
}
