package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finvision/backend/src/database"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/security"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func setupHandlerDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite", "file::memory:?_pragma=foreign_keys(on)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	schema, err := os.ReadFile("../../db/migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
}

func newTestUserHandler() *UserHandler {
	return NewUserHandler(security.NewAuthService("test-secret-at-least-32-characters!!"))
}

func TestRegisterUserHandler(t *testing.T) {
	setupHandlerDB(t)
	h := newTestUserHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"new@example.com","pin":"1234"}`))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	user, err := model.GetUserByEmail(database.DB, "new@example.com")
	require.NoError(t, err)
	assert.NoError(t, user.CheckPin("1234"))
}

func TestRegisterUserHandlerRejectsOverlongEmail(t *testing.T) {
	setupHandlerDB(t)
	h := newTestUserHandler()

	email := strings.Repeat("a", 250) + "@example.com"
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"`+email+`"}`))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email too long")
}

func TestRegisterUserHandlerRejectsInvalidPin(t *testing.T) {
	setupHandlerDB(t)
	h := newTestUserHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"pin@example.com","pin":"12"}`))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	setupHandlerDB(t)
	h := newTestUserHandler()

	user := &model.User{Email: "taken@example.com"}
	require.NoError(t, user.CreateUser(database.DB))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"email":"taken@example.com","pin":"1234"}`))
	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
