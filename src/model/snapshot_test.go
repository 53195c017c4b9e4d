package model

import (
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finvision/backend/src/models"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) *User {
	t.Helper()
	user := &User{Email: email}
	require.NoError(t, user.SetPin("1234"))
	require.NoError(t, user.CreateUser(db))
	return user
}

func TestReplaceSnapshotCreatesAndReads(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "alice@example.com")

	holdings := []models.CanonicalHolding{
		{Symbol: "TCS", ISIN: "INE467B01029", Quantity: 10, AvgPrice: 3500, Source: models.SourceUpload},
		{Symbol: "INFY", Quantity: 5, AvgPrice: 1450, Source: models.SourceUpload},
	}
	uploadedAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, ReplaceSnapshot(db, user.ID, user.Email, holdings, uploadedAt))

	got, err := GetSnapshotByUserID(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)
	require.Len(t, got.Holdings, 2)
	assert.Equal(t, "TCS", got.Holdings[0].Symbol)
	assert.Equal(t, "INFY", got.Holdings[1].Symbol)
}

func TestReplaceSnapshotFullyReplaces(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "bob@example.com")

	first := []models.CanonicalHolding{
		{Symbol: "TCS", Quantity: 10, Source: models.SourceUpload},
		{Symbol: "INFY", Quantity: 5, Source: models.SourceUpload},
	}
	require.NoError(t, ReplaceSnapshot(db, user.ID, user.Email, first, time.Now()))

	second := []models.CanonicalHolding{
		{Symbol: "SBIN", Quantity: 100, Source: models.SourceUpstox},
	}
	require.NoError(t, ReplaceSnapshot(db, user.ID, user.Email, second, time.Now()))

	got, err := GetSnapshotByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 1)
	assert.Equal(t, "SBIN", got.Holdings[0].Symbol)
	assert.Equal(t, models.SourceUpstox, got.Holdings[0].Source)
}

func TestReplaceSnapshotPreservesDuplicateSymbols(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "carol@example.com")

	holdings := []models.CanonicalHolding{
		{Symbol: "TCS", Quantity: 10, Source: models.SourceUpload},
		{Symbol: "TCS", Quantity: 3, Source: models.SourceUpload},
	}
	require.NoError(t, ReplaceSnapshot(db, user.ID, user.Email, holdings, time.Now()))

	got, err := GetSnapshotByUserID(db, user.ID)
	require.NoError(t, err)
	require.Len(t, got.Holdings, 2)
	assert.Equal(t, float64(10), got.Holdings[0].Quantity)
	assert.Equal(t, float64(3), got.Holdings[1].Quantity)
}

func TestGetSnapshotByEmail(t *testing.T) {
	db := setupDB(t)
	user := createTestUser(t, db, "dave@example.com")

	require.NoError(t, ReplaceSnapshot(db, user.ID, user.Email,
		[]models.CanonicalHolding{{Symbol: "TCS", Quantity: 1, Source: models.SourceUpload}}, time.Now()))

	got, err := GetSnapshotByEmail(db, "dave@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.UserID)
}

func TestGetSnapshotMissingUser(t *testing.T) {
	db := setupDB(t)

	_, err := GetSnapshotByUserID(db, 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserPinRoundTrip(t *testing.T) {
	user := &User{Email: "pin@example.com"}
	require.NoError(t, user.SetPin("4321"))
	assert.NoError(t, user.CheckPin("4321"))
	assert.Error(t, user.CheckPin("0000"))

	assert.ErrorIs(t, user.SetPin("12a4"), ErrInvalidPin)
	assert.ErrorIs(t, user.SetPin("12345"), ErrInvalidPin)
}
