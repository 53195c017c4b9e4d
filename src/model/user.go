package model

import (
	"database/sql"
	"errors"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an identity record. Local users carry a bcrypt-hashed 4-digit PIN;
// Google-provisioned users carry the provider subject id and no PIN.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PinHash      string    `json:"-"`
	AuthProvider string    `json:"auth_provider,omitempty"`
	AuthSubject  string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Demat        string    `json:"demat,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var pinRegex = regexp.MustCompile(`^\d{4}$`)

// ErrInvalidPin is returned when a supplied PIN is not a 4-digit number.
var ErrInvalidPin = errors.New("PIN must be a 4-digit number")

// SetPin validates and hashes a 4-digit PIN onto the user.
func (u *User) SetPin(pin string) error {
	if !pinRegex.MatchString(pin) {
		return ErrInvalidPin
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PinHash = string(hashed)
	return nil
}

// CheckPin compares a candidate PIN against the stored hash.
func (u *User) CheckPin(pin string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AuthProvider == "" {
		u.AuthProvider = "local"
	}

	query := `
	INSERT INTO users (email, pin_hash, auth_provider, auth_subject, name, demat, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	res, err := stmt.Exec(
		u.Email,
		u.PinHash,
		u.AuthProvider,
		u.AuthSubject,
		u.Name,
		u.Demat,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var user User
	var pinHash, authProvider, authSubject, name, demat sql.NullString

	err := row.Scan(
		&user.ID, &user.Email, &pinHash, &authProvider, &authSubject,
		&name, &demat, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.PinHash = pinHash.String
	user.AuthProvider = authProvider.String
	user.AuthSubject = authSubject.String
	user.Name = name.String
	user.Demat = demat.String
	return &user, nil
}

const userColumns = `id, email, pin_hash, auth_provider, auth_subject, name, demat, created_at, updated_at`

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func GetUserByEmail(db *sql.DB, email string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}
