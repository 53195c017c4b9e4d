package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/models"
	"github.com/username/finvision/backend/src/services"
	"github.com/username/finvision/backend/src/utils"
)

type PortfolioHandler struct {
	ingestionService services.IngestionService
}

func NewPortfolioHandler(ingestionService services.IngestionService) *PortfolioHandler {
	return &PortfolioHandler{ingestionService: ingestionService}
}

// HandleGetHoldings returns the user's current snapshot with ETag support.
// A user with no snapshot yet gets an empty holdings list, not an error.
func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required", http.StatusUnauthorized)
		return
	}

	snapshot, err := h.ingestionService.GetSnapshot(userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"message":    "No holdings found",
				"holdings":   []models.CanonicalHolding{},
				"uploadedAt": nil,
			})
			return
		}
		logger.L.Error("Error retrieving holdings snapshot", "userID", userID, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving holdings for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	currentETag, etagErr := utils.GenerateETag(snapshot)
	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("%q", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	} else {
		logger.L.Warn("Proceeding without ETag check", "userID", userID, "error", etagErr)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message":    "Holdings retrieved successfully",
		"holdings":   snapshot.Holdings,
		"uploadedAt": snapshot.UploadedAt,
		"email":      snapshot.Email,
	}); err != nil {
		logger.L.Error("Error generating JSON response for holdings", "userID", userID, "error", err)
	}
}
