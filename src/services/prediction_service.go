package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/models"
)

// predictionWindow is how many trailing price points the predictor trains on.
// It rejects anything shorter, so short histories fail here instead.
const predictionWindow = 10

// historicalPoint is one price sample from the market-data feed. The feed is
// loose about types; price arrives as either a JSON number or a string.
type historicalPoint struct {
	Price any `json:"price"`
}

type predictorPoint struct {
	Close float64 `json:"close"`
}

type predictorRequest struct {
	Symbol     string           `json:"symbol"`
	Historical []predictorPoint `json:"historical"`
}

type predictorResponse struct {
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error"`
}

type predictionServiceImpl struct {
	httpClient    *http.Client
	marketDataURL string
	predictorURL  string
}

func NewPredictionService(marketDataURL, predictorURL string) PredictionService {
	return &predictionServiceImpl{
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		marketDataURL: strings.TrimSuffix(marketDataURL, "/"),
		predictorURL:  strings.TrimSuffix(predictorURL, "/"),
	}
}

func (s *predictionServiceImpl) PredictStock(ctx context.Context, symbol string) (*models.StockPrediction, error) {
	prices, err := s.fetchHistory(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(prices) < predictionWindow {
		return nil, fmt.Errorf("%w: got %d points, need %d", ErrInsufficientHistory, len(prices), predictionWindow)
	}

	window := prices[len(prices)-predictionWindow:]
	payload := predictorRequest{Symbol: symbol, Historical: make([]predictorPoint, 0, len(window))}
	for _, p := range window {
		payload.Historical = append(payload.Historical, predictorPoint{Close: p})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode predictor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.predictorURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predictor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach predictor: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read predictor response: %w", err)
	}

	var parsed predictorResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode predictor response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != "" {
			return nil, fmt.Errorf("predictor rejected request: %s", parsed.Error)
		}
		return nil, fmt.Errorf("predictor returned status %d", resp.StatusCode)
	}

	logger.L.Debug("Prediction received", "symbol", symbol, "trend", parsed.Trend, "confidence", parsed.Confidence)
	return &models.StockPrediction{
		Symbol:     symbol,
		Trend:      parsed.Trend,
		Confidence: parsed.Confidence,
	}, nil
}

// fetchHistory pulls the symbol's hourly price series from the market-data
// feed, dropping samples whose price will not coerce to a number.
func (s *predictionServiceImpl) fetchHistory(ctx context.Context, symbol string) ([]float64, error) {
	endpoint := s.marketDataURL + "/api/historical?" + url.Values{"symbol": {symbol}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build market-data request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach market-data feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market-data feed returned status %d", resp.StatusCode)
	}

	var points []historicalPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		return nil, fmt.Errorf("failed to decode market-data response: %w", err)
	}

	prices := make([]float64, 0, len(points))
	for _, p := range points {
		if v, ok := coercePrice(p.Price); ok {
			prices = append(prices, v)
		}
	}
	return prices, nil
}

func coercePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
