package models

import "time"

// Holding sources. Manual file uploads and Upstox syncs write through the
// same snapshot replace, tagged with their provenance.
const (
	SourceUpload = "upload"
	SourceUpstox = "upstox"
)

// CanonicalHolding is the unified representation of one portfolio position.
// Every parsed row produces one of these, fully defaulted where the source
// file gave us nothing usable; filtering garbage rows happens upstream.
type CanonicalHolding struct {
	Symbol             string  `json:"symbol"`
	ISIN               string  `json:"isin"`
	Quantity           float64 `json:"quantity"`
	AvgPrice           float64 `json:"avgPrice"`
	CurrentPrice       float64 `json:"currentPrice"`
	InvestmentValue    float64 `json:"investmentValue"`
	CurrentValue       float64 `json:"currentValue"`
	UnrealizedGainLoss float64 `json:"unrealizedGainLoss"`
	Source             string  `json:"source"`
}

// HoldingsSnapshot is the full set of holdings for one user. At most one
// snapshot exists per user; each ingestion replaces the holdings sequence
// and UploadedAt atomically, never merges.
type HoldingsSnapshot struct {
	UserID     int64              `json:"userId"`
	Email      string             `json:"email"`
	Holdings   []CanonicalHolding `json:"holdings"`
	UploadedAt time.Time          `json:"uploadedAt"`
}
