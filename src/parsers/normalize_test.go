package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/finvision/backend/src/models"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"3500", 3500},
		{"3500.50", 3500.5},
		{"1,234", 1234},   // grouping separators must not truncate
		{"1,234.56", 1234.56},
		{"  42  ", 42},
		{"-12.5", -12.5},
		{"3500 INR", 3500}, // leading numeric prefix
		{"10.5.3", 10.5},
		{"", 0},
		{"n/a", 0},
		{"₹100", 0}, // no leading numeric prefix
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseAmount(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeHoldingSynonymRow(t *testing.T) {
	got := NormalizeHolding(map[string]string{
		"Scrip Name":    "TCS",
		"Quantity Held": "10",
		"Avg Cost":      "3500",
	})

	assert.Equal(t, models.CanonicalHolding{
		Symbol:   "TCS",
		Quantity: 10,
		AvgPrice: 3500,
		Source:   models.SourceUpload,
	}, got)
}

func TestNormalizeHoldingCanonicalRoundTrip(t *testing.T) {
	// A record keyed purely by the first-listed canonical spellings comes
	// back unchanged.
	got := NormalizeHolding(map[string]string{
		"Stock Name":           "INFY",
		"ISIN":                 "INE009A01021",
		"Quantity":             "25",
		"Average Price":        "1450.25",
		"Current Market Price": "1500",
		"Investment Value":     "36256.25",
		"Current Value":        "37500",
		"Unrealized Gain/Loss": "1243.75",
	})

	assert.Equal(t, models.CanonicalHolding{
		Symbol:             "INFY",
		ISIN:               "INE009A01021",
		Quantity:           25,
		AvgPrice:           1450.25,
		CurrentPrice:       1500,
		InvestmentValue:    36256.25,
		CurrentValue:       37500,
		UnrealizedGainLoss: 1243.75,
		Source:             models.SourceUpload,
	}, got)
}

func TestNormalizeHoldingDefaultsEverything(t *testing.T) {
	got := NormalizeHolding(map[string]string{"Mystery Column": "???"})

	assert.Equal(t, models.CanonicalHolding{
		Symbol: UnknownSymbol,
		Source: models.SourceUpload,
	}, got)
}

func TestNormalizeHoldingUnparsableNumbersDefaultToZero(t *testing.T) {
	got := NormalizeHolding(map[string]string{
		"Symbol":   "SBIN",
		"Quantity": "ten",
	})

	assert.Equal(t, "SBIN", got.Symbol)
	assert.Equal(t, float64(0), got.Quantity)
}

func TestNormalizeHoldingThousandsSeparators(t *testing.T) {
	got := NormalizeHolding(map[string]string{
		"Symbol":           "RELIANCE",
		"Quantity":         "1,000",
		"Investment Value": "2,500,000.75",
	})

	assert.Equal(t, float64(1000), got.Quantity)
	assert.Equal(t, 2500000.75, got.InvestmentValue)
}
