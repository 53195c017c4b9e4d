package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/username/finvision/backend/src/config"
	"github.com/username/finvision/backend/src/database"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
)

func InitializeGoogleOAuthConfig() {
	googleOauthConfig = &oauth2.Config{
		RedirectURL:  config.Cfg.GoogleRedirectURL,
		ClientID:     config.Cfg.GoogleClientID,
		ClientSecret: config.Cfg.GoogleClientSecret,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

func (h *UserHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	url := googleOauthConfig.AuthCodeURL(config.Cfg.OAuthStateString)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *UserHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("state") != config.Cfg.OAuthStateString {
		logger.L.Warn("Invalid OAuth state from Google callback")
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}

	code := r.FormValue("code")
	token, err := googleOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		logger.L.Error("Failed to exchange code for token", "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=token_exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	response, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + token.AccessToken)
	if err != nil {
		logger.L.Error("Failed to get user info from Google", "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=userinfo_failed", http.StatusTemporaryRedirect)
		return
	}
	defer response.Body.Close()

	contents, err := io.ReadAll(response.Body)
	if err != nil {
		logger.L.Error("Failed to read user info response body", "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=userinfo_read_failed", http.StatusTemporaryRedirect)
		return
	}

	var googleUser struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Verified bool   `json:"verified_email"`
		ID       string `json:"id"`
	}
	if err := json.Unmarshal(contents, &googleUser); err != nil {
		logger.L.Error("Failed to unmarshal Google user info", "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=userinfo_parse_failed", http.StatusTemporaryRedirect)
		return
	}

	if !googleUser.Verified {
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=email_not_verified_by_google", http.StatusTemporaryRedirect)
		return
	}

	// Find or create the user. Google users carry no PIN credential.
	user, err := model.GetUserByEmail(database.DB, googleUser.Email)
	if err != nil {
		newUser := &model.User{
			Email:        googleUser.Email,
			Name:         googleUser.Name,
			AuthProvider: "google",
			AuthSubject:  googleUser.ID,
		}
		if err := newUser.CreateUser(database.DB); err != nil {
			logger.L.Error("Failed to create Google user", "error", err)
			http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=user_creation_failed", http.StatusTemporaryRedirect)
			return
		}
		user = newUser
	} else if user.AuthProvider == "local" && user.PinHash != "" {
		logger.L.Warn("Google login attempt for existing local account", "userID", user.ID)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=email_already_exists_local", http.StatusTemporaryRedirect)
		return
	}

	accessToken, refreshToken, err := h.issueSession(user.ID)
	if err != nil {
		logger.L.Error("Failed to issue session after Google login", "userID", user.ID, "error", err)
		http.Redirect(w, r, config.Cfg.FrontendBaseURL+"/signin?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	logger.L.Info("Google login successful", "userID", user.ID)
	http.Redirect(w, r,
		config.Cfg.FrontendBaseURL+"/auth/callback?access_token="+accessToken+"&refresh_token="+refreshToken,
		http.StatusTemporaryRedirect)
}
