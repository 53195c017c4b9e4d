package models

// StockPrediction is the ML predictor's verdict for one symbol: the expected
// short-term trend and the model's confidence in percent.
type StockPrediction struct {
	Symbol     string  `json:"symbol"`
	Trend      string  `json:"trend"`
	Confidence float64 `json:"confidence"`
}
