package model

import (
	"database/sql"
	"time"
)

// Session ties an issued access/refresh token pair to a user so tokens can
// be revoked server-side on logout.
type Session struct {
	ID           int64
	UserID       int64
	Token        string
	RefreshToken string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

func CreateSession(db *sql.DB, s *Session) error {
	s.CreatedAt = time.Now()
	res, err := db.Exec(`
	INSERT INTO sessions (user_id, token, refresh_token, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?)`,
		s.UserID, s.Token, s.RefreshToken, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func GetSessionByToken(db *sql.DB, token string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, expires_at, created_at
	FROM sessions WHERE token = ?`, token)

	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	row := db.QueryRow(`
	SELECT id, user_id, token, refresh_token, expires_at, created_at
	FROM sessions WHERE refresh_token = ?`, refreshToken)

	var s Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateSessionTokens swaps in a freshly issued token pair after a refresh.
func UpdateSessionTokens(db *sql.DB, sessionID int64, token, refreshToken string, expiresAt time.Time) error {
	_, err := db.Exec(`
	UPDATE sessions SET token = ?, refresh_token = ?, expires_at = ? WHERE id = ?`,
		token, refreshToken, expiresAt, sessionID,
	)
	return err
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// DeleteExpiredSessions prunes sessions past their expiry.
func DeleteExpiredSessions(db *sql.DB) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	return err
}
