package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/username/finvision/backend/src/models"
)

// ReplaceSnapshot atomically overwrites a user's holdings snapshot: the
// snapshot row is upserted and the prior holdings sequence is deleted and
// rewritten in file-row order, all inside one transaction. Partial merges
// are never performed; concurrent replaces for the same user are
// last-write-wins.
func ReplaceSnapshot(db *sql.DB, userID int64, email string, holdings []models.CanonicalHolding, uploadedAt time.Time) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
	INSERT INTO holdings_snapshots (user_id, email, uploaded_at)
	VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET email = excluded.email, uploaded_at = excluded.uploaded_at`,
		userID, email, uploadedAt,
	)
	if err != nil {
		return fmt.Errorf("error upserting snapshot row: %w", err)
	}

	if _, err = tx.Exec(`DELETE FROM holdings WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("error clearing previous holdings: %w", err)
	}

	stmt, err := tx.Prepare(`
	INSERT INTO holdings
		(user_id, position, symbol, isin, quantity, avg_price, current_price,
		investment_value, current_value, unrealized_gain_loss, source)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing holdings insert: %w", err)
	}
	defer stmt.Close()

	for i, h := range holdings {
		_, err = stmt.Exec(
			userID, i, h.Symbol, h.ISIN, h.Quantity, h.AvgPrice, h.CurrentPrice,
			h.InvestmentValue, h.CurrentValue, h.UnrealizedGainLoss, h.Source,
		)
		if err != nil {
			return fmt.Errorf("error inserting holding %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetSnapshotByUserID loads a user's snapshot with its holdings in stored
// order. Returns sql.ErrNoRows when the user has no snapshot yet.
func GetSnapshotByUserID(db *sql.DB, userID int64) (*models.HoldingsSnapshot, error) {
	snapshot := &models.HoldingsSnapshot{UserID: userID}
	err := db.QueryRow(`
	SELECT email, uploaded_at FROM holdings_snapshots WHERE user_id = ?`, userID).
		Scan(&snapshot.Email, &snapshot.UploadedAt)
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
	SELECT symbol, isin, quantity, avg_price, current_price,
		investment_value, current_value, unrealized_gain_loss, source
	FROM holdings WHERE user_id = ? ORDER BY position`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var h models.CanonicalHolding
		err = rows.Scan(
			&h.Symbol, &h.ISIN, &h.Quantity, &h.AvgPrice, &h.CurrentPrice,
			&h.InvestmentValue, &h.CurrentValue, &h.UnrealizedGainLoss, &h.Source,
		)
		if err != nil {
			return nil, err
		}
		snapshot.Holdings = append(snapshot.Holdings, h)
	}
	return snapshot, rows.Err()
}

// GetSnapshotByEmail resolves a snapshot through the non-unique email index,
// for lookups made before the caller has resolved a user id.
func GetSnapshotByEmail(db *sql.DB, email string) (*models.HoldingsSnapshot, error) {
	var userID int64
	err := db.QueryRow(`
	SELECT user_id FROM holdings_snapshots WHERE email = ? LIMIT 1`, email).Scan(&userID)
	if err != nil {
		return nil, err
	}
	return GetSnapshotByUserID(db, userID)
}
