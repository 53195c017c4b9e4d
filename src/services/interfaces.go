package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/finvision/backend/src/models"
)

// ErrUserNotFound is returned when the caller's identity cannot be resolved
// to a stored user. Terminal; not retried.
var ErrUserNotFound = errors.New("user not found")

// IngestionService is the single entry point for everything that rewrites a
// user's holdings snapshot. Manual file uploads and brokerage syncs share the
// same replace-not-merge semantics.
type IngestionService interface {
	// ProcessUpload runs the full tabular pipeline over an uploaded holdings
	// file: decode, locate header, drop preamble, filter non-positions,
	// normalize, replace the user's snapshot. Failure modes:
	// parsers.ErrUnsupportedFormat, parsers.ErrDecodeFailure,
	// parsers.ErrHeaderNotFound.
	ProcessUpload(fileReader io.Reader, fileExt string, userID int64, email string) (*models.HoldingsSnapshot, error)

	// ReplaceFromBroker writes pre-normalized holdings delivered by a
	// brokerage sync collaborator through the same snapshot replace.
	ReplaceFromBroker(userID int64, email string, holdings []models.CanonicalHolding) (*models.HoldingsSnapshot, error)

	// GetSnapshot returns the user's current snapshot, or sql.ErrNoRows if
	// nothing has been ingested yet.
	GetSnapshot(userID int64) (*models.HoldingsSnapshot, error)

	InvalidateUserCache(userID int64)
}

// ErrInsufficientHistory is returned when the market-data feed yields too few
// usable price points for the predictor to work with.
var ErrInsufficientHistory = errors.New("not enough price history for prediction")

// PredictionService proxies trend predictions from the ML collaborator,
// feeding it price history pulled from the market-data feed.
type PredictionService interface {
	PredictStock(ctx context.Context, symbol string) (*models.StockPrediction, error)
}

// UpstoxService drives the brokerage OAuth handshake and holdings pull.
type UpstoxService interface {
	// AuthCodeURL builds the consent dialog URL; state round-trips the
	// initiating user's identity.
	AuthCodeURL(state string) string

	// FetchHoldings exchanges an authorization code and pulls the account's
	// long-term holdings, already mapped to the canonical shape with
	// source set to "upstox".
	FetchHoldings(ctx context.Context, code string) ([]models.CanonicalHolding, error)
}
