package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/security/validation"
	"github.com/username/finvision/backend/src/services"
	"github.com/username/finvision/backend/src/utils"
)

type PredictionHandler struct {
	predictionService services.PredictionService
}

func NewPredictionHandler(predictionService services.PredictionService) *PredictionHandler {
	return &PredictionHandler{predictionService: predictionService}
}

// HandlePredictStock proxies a trend prediction for one symbol from the ML
// collaborator.
func (h *PredictionHandler) HandlePredictStock(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Symbol string `json:"symbol"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	symbol := validation.SanitizeText(strings.TrimSpace(payload.Symbol))
	if symbol == "" {
		utils.SendJSONError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	prediction, err := h.predictionService.PredictStock(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientHistory) {
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		logger.L.Error("Prediction failed", "symbol", symbol, "error", err)
		utils.SendJSONError(w, "Prediction failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(prediction); err != nil {
		logger.L.Error("Error encoding prediction response", "symbol", symbol, "error", err)
	}
}
