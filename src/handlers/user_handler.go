package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/username/finvision/backend/src/config"
	"github.com/username/finvision/backend/src/database"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/security"
	"github.com/username/finvision/backend/src/security/validation"
	"github.com/username/finvision/backend/src/utils"
	"golang.org/x/oauth2"
)

type contextKey string

const userIDContextKey contextKey = "userID"

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var googleOauthConfig *oauth2.Config

type UserHandler struct {
	authService *security.AuthService
}

func NewUserHandler(authService *security.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

func sendJSONError(w http.ResponseWriter, message string, statusCode int) {
	utils.SendJSONError(w, message, statusCode)
}

// GetUserIDFromContext extracts the authenticated user's ID injected by
// AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDContextKey).(int64)
	return userID, ok
}

// issueSession generates an access/refresh token pair, persists the session,
// and returns the pair for the response body.
func (h *UserHandler) issueSession(userID int64) (accessToken, refreshToken string, err error) {
	accessToken, err = h.authService.GenerateToken(userID, config.Cfg.AccessTokenExpiry)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = h.authService.GenerateToken(userID, config.Cfg.RefreshTokenExpiry)
	if err != nil {
		return "", "", err
	}

	session := &model.Session{
		UserID:       userID,
		Token:        accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(config.Cfg.RefreshTokenExpiry),
	}
	if err = model.CreateSession(database.DB, session); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email string `json:"email"`
		Pin   string `json:"pin"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(credentials.Email)))
	credentials.Pin = strings.TrimSpace(credentials.Pin)

	if err := validation.ValidateStringNotEmpty(credentials.Email, "Email"); err != nil {
		sendJSONError(w, "Email is required", http.StatusBadRequest)
		return
	}
	if err := validation.ValidateStringMaxLength(credentials.Email, validation.DefaultMaxStringLength, "Email"); err != nil {
		sendJSONError(w, "Email too long", http.StatusBadRequest)
		return
	}
	if !emailRegex.MatchString(credentials.Email) {
		sendJSONError(w, "Invalid email format", http.StatusBadRequest)
		return
	}

	if _, err := model.GetUserByEmail(database.DB, credentials.Email); err == nil {
		sendJSONError(w, "User already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		logger.L.Error("Error checking email uniqueness", "error", err)
		sendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	user := &model.User{Email: credentials.Email, AuthProvider: "local"}
	if credentials.Pin != "" {
		if err := user.SetPin(credentials.Pin); err != nil {
			if errors.Is(err, model.ErrInvalidPin) {
				sendJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.L.Error("Failed to hash PIN", "error", err)
			sendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
			return
		}
	}

	if err := user.CreateUser(database.DB); err != nil {
		logger.L.Error("Failed to create user in DB", "error", err)
		sendJSONError(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	logger.L.Info("User registered", "userID", user.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"message": "Signup successful"})
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email string `json:"email"`
		Pin   string `json:"pin"`
	}

	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Email = strings.ToLower(strings.TrimSpace(credentials.Email))
	if credentials.Email == "" {
		sendJSONError(w, "Email is required", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(database.DB, credentials.Email)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusUnauthorized)
		return
	}

	// Users provisioned through Google have no PIN credential.
	if user.PinHash != "" {
		if credentials.Pin == "" {
			sendJSONError(w, "PIN is required", http.StatusBadRequest)
			return
		}
		if err := user.CheckPin(credentials.Pin); err != nil {
			logger.L.Warn("Incorrect PIN attempt", "userID", user.ID)
			sendJSONError(w, "Incorrect PIN", http.StatusUnauthorized)
			return
		}
	}

	accessToken, refreshToken, err := h.issueSession(user.ID)
	if err != nil {
		logger.L.Error("Failed to issue session", "userID", user.ID, "error", err)
		sendJSONError(w, "Login error", http.StatusInternalServerError)
		return
	}

	logger.L.Info("Login successful", "userID", user.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"message":       "Login successful",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}

func (h *UserHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.RefreshToken == "" {
		sendJSONError(w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	if _, err := h.authService.ValidateToken(payload.RefreshToken); err != nil {
		sendJSONError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	session, err := model.GetSessionByRefreshToken(database.DB, payload.RefreshToken)
	if err != nil {
		sendJSONError(w, "Unknown refresh token", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateToken(session.UserID, config.Cfg.AccessTokenExpiry)
	if err != nil {
		logger.L.Error("Failed to generate access token on refresh", "userID", session.UserID, "error", err)
		sendJSONError(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}
	refreshToken, err := h.authService.GenerateToken(session.UserID, config.Cfg.RefreshTokenExpiry)
	if err != nil {
		logger.L.Error("Failed to generate refresh token on refresh", "userID", session.UserID, "error", err)
		sendJSONError(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}

	expiresAt := time.Now().Add(config.Cfg.RefreshTokenExpiry)
	if err := model.UpdateSessionTokens(database.DB, session.ID, accessToken, refreshToken, expiresAt); err != nil {
		logger.L.Error("Failed to rotate session tokens", "userID", session.UserID, "error", err)
		sendJSONError(w, "Failed to refresh session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *UserHandler) LogoutUserHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if err := model.DeleteSessionByToken(database.DB, tokenString); err != nil {
		logger.L.Error("Failed to delete session on logout", "error", err)
		sendJSONError(w, "Logout failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out successfully"})
}

// MeHandler returns the authenticated user's identity record.
func (h *UserHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Not logged in", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		sendJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"user": user})
}
