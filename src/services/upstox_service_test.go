package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finvision/backend/src/models"
)

func TestMapUpstoxHoldings(t *testing.T) {
	data := []upstoxHolding{
		{TradingSymbol: "TCS", ISIN: "INE467B01029", Quantity: 10, AveragePrice: 3500, LastPrice: 3650},
		{TradingSymbol: "INFY", Quantity: 4, AveragePrice: 1500, LastPrice: 1450},
	}

	got := mapUpstoxHoldings(data)
	require.Len(t, got, 2)

	assert.Equal(t, models.CanonicalHolding{
		Symbol:             "TCS",
		ISIN:               "INE467B01029",
		Quantity:           10,
		AvgPrice:           3500,
		CurrentPrice:       3650,
		InvestmentValue:    35000,
		CurrentValue:       36500,
		UnrealizedGainLoss: 1500,
		Source:             models.SourceUpstox,
	}, got[0])

	// Losing position comes out negative, not clamped.
	assert.Equal(t, float64(-200), got[1].UnrealizedGainLoss)
}

func TestMapUpstoxHoldingsRoundsDerivedValues(t *testing.T) {
	// 3 * 10.1 is 30.299999999999997 in float64; derived values must come out
	// at paise precision.
	got := mapUpstoxHoldings([]upstoxHolding{
		{TradingSymbol: "ITC", Quantity: 3, AveragePrice: 10.1, LastPrice: 10.2},
	})
	require.Len(t, got, 1)

	assert.Equal(t, 30.3, got[0].InvestmentValue)
	assert.Equal(t, 30.6, got[0].CurrentValue)
	assert.Equal(t, 0.3, got[0].UnrealizedGainLoss)
}

func TestMapUpstoxHoldingsEmpty(t *testing.T) {
	assert.Empty(t, mapUpstoxHoldings(nil))
}

func TestUpstoxAuthCodeURL(t *testing.T) {
	svc := NewUpstoxService("client-id", "secret", "http://localhost:8080/api/upstox/callback")

	url := svc.AuthCodeURL("user@example.com")
	assert.Contains(t, url, "https://api.upstox.com/v2/login/authorization/dialog")
	assert.Contains(t, url, "client_id=client-id")
	assert.Contains(t, url, "state=user%40example.com")
}
