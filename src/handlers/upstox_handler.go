package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/username/finvision/backend/src/config"
	"github.com/username/finvision/backend/src/database"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/security"
	"github.com/username/finvision/backend/src/services"
	"github.com/username/finvision/backend/src/utils"
)

// Upstox redirects the browser back to us without our auth header, so the
// OAuth state parameter carries a short-lived signed token identifying the
// user who started the flow.
const upstoxStateExpiry = 10 * time.Minute

type UpstoxHandler struct {
	upstoxService    services.UpstoxService
	ingestionService services.IngestionService
	authService      *security.AuthService
}

func NewUpstoxHandler(upstoxService services.UpstoxService, ingestionService services.IngestionService, authService *security.AuthService) *UpstoxHandler {
	return &UpstoxHandler{
		upstoxService:    upstoxService,
		ingestionService: ingestionService,
		authService:      authService,
	}
}

// HandleUpstoxAuth starts the brokerage consent flow for the authenticated
// user.
func (h *UpstoxHandler) HandleUpstoxAuth(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	state, err := h.authService.GenerateToken(userID, upstoxStateExpiry)
	if err != nil {
		logger.L.Error("Failed to generate Upstox state token", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to start brokerage link", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, h.upstoxService.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// HandleUpstoxCallback exchanges the authorization code, pulls holdings and
// replaces the user's snapshot. The browser is redirected back to the
// frontend dashboard with the outcome in query params.
func (h *UpstoxHandler) HandleUpstoxCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		h.redirectWithError(w, r, "Invalid callback params")
		return
	}

	userIDStr, err := h.authService.ValidateToken(state)
	if err != nil {
		logger.L.Warn("Invalid Upstox state token", "error", err)
		h.redirectWithError(w, r, "Brokerage link session expired, please retry")
		return
	}
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		h.redirectWithError(w, r, "Brokerage link session invalid")
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Warn("Upstox callback for unknown user", "userID", userID, "error", err)
		h.redirectWithError(w, r, "User not found")
		return
	}

	holdings, err := h.upstoxService.FetchHoldings(r.Context(), code)
	if err != nil {
		logger.L.Error("Failed to fetch holdings from Upstox", "userID", userID, "error", err)
		h.redirectWithError(w, r, err.Error())
		return
	}

	if _, err := h.ingestionService.ReplaceFromBroker(user.ID, user.Email, holdings); err != nil {
		logger.L.Error("Failed to store synced holdings", "userID", userID, "error", err)
		h.redirectWithError(w, r, "Failed to store synced holdings")
		return
	}

	logger.L.Info("Upstox sync completed", "userID", userID, "holdings", len(holdings))

	params := url.Values{"import": {"success"}}
	http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/dashboard?"+params.Encode(), http.StatusTemporaryRedirect)
}

func (h *UpstoxHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	params := url.Values{
		"importError": {"true"},
		"message":     {message},
	}
	http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/dashboard?"+params.Encode(), http.StatusTemporaryRedirect)
}
