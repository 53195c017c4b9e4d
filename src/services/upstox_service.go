package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/models"
	"github.com/username/finvision/backend/src/utils"
)

const upstoxHoldingsURL = "https://api.upstox.com/v2/portfolio/long-term-holdings"

// upstoxEndpoint is Upstox's authorization-code flow.
var upstoxEndpoint = oauth2.Endpoint{
	AuthURL:  "https://api.upstox.com/v2/login/authorization/dialog",
	TokenURL: "https://api.upstox.com/v2/login/authorization/token",
}

// upstoxHolding is the wire shape of one holding in the Upstox portfolio API.
type upstoxHolding struct {
	TradingSymbol string  `json:"trading_symbol"`
	ISIN          string  `json:"isin"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
	LastPrice     float64 `json:"last_price"`
}

type upstoxHoldingsResponse struct {
	Status string          `json:"status"`
	Data   []upstoxHolding `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type upstoxServiceImpl struct {
	oauthConfig *oauth2.Config
	httpClient  *http.Client
	holdingsURL string
}

func NewUpstoxService(clientID, clientSecret, redirectURL string) UpstoxService {
	return &upstoxServiceImpl{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     upstoxEndpoint,
		},
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		holdingsURL: upstoxHoldingsURL,
	}
}

func (s *upstoxServiceImpl) AuthCodeURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state)
}

func (s *upstoxServiceImpl) FetchHoldings(ctx context.Context, code string) ([]models.CanonicalHolding, error) {
	token, err := s.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	logger.L.Debug("Upstox token exchange succeeded")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.holdingsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holdings request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holdings from Upstox: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read holdings response: %w", err)
	}

	var parsed upstoxHoldingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode holdings response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status == "error" {
		if len(parsed.Errors) > 0 && parsed.Errors[0].Message != "" {
			return nil, fmt.Errorf("upstox API error: %s", parsed.Errors[0].Message)
		}
		return nil, fmt.Errorf("upstox API returned status %d", resp.StatusCode)
	}

	return mapUpstoxHoldings(parsed.Data), nil
}

// mapUpstoxHoldings converts the broker wire shape into canonical holdings.
// Investment/current/gain-loss values are derived since the API reports only
// quantity and the two prices; derived values round to paise precision.
func mapUpstoxHoldings(data []upstoxHolding) []models.CanonicalHolding {
	holdings := make([]models.CanonicalHolding, 0, len(data))
	for _, h := range data {
		holdings = append(holdings, models.CanonicalHolding{
			Symbol:             h.TradingSymbol,
			ISIN:               h.ISIN,
			Quantity:           h.Quantity,
			AvgPrice:           h.AveragePrice,
			CurrentPrice:       h.LastPrice,
			InvestmentValue:    utils.RoundFloat(h.Quantity*h.AveragePrice, 2),
			CurrentValue:       utils.RoundFloat(h.Quantity*h.LastPrice, 2),
			UnrealizedGainLoss: utils.RoundFloat(h.Quantity*(h.LastPrice-h.AveragePrice), 2),
			Source:             models.SourceUpstox,
		})
	}
	return holdings
}
