package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/username/finvision/backend/src/config"
	"github.com/username/finvision/backend/src/database"
	"github.com/username/finvision/backend/src/logger"
	"github.com/username/finvision/backend/src/model"
	"github.com/username/finvision/backend/src/parsers"
	"github.com/username/finvision/backend/src/security/validation"
	"github.com/username/finvision/backend/src/services"
	"github.com/username/finvision/backend/src/utils"
)

type UploadHandler struct {
	ingestionService services.IngestionService
}

func NewUploadHandler(service services.IngestionService) *UploadHandler {
	return &UploadHandler{ingestionService: service}
}

// ingestionErrorStatus maps the ingestion error taxonomy onto HTTP statuses.
// All of these are terminal; the client must resupply a usable file.
func ingestionErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, parsers.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Unsupported file format"
	case errors.Is(err, parsers.ErrHeaderNotFound):
		return http.StatusBadRequest, "Could not detect holdings table in file"
	case errors.Is(err, parsers.ErrDecodeFailure):
		return http.StatusBadRequest, "File could not be read in the claimed format"
	case errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	default:
		return http.StatusInternalServerError, "Upload failed"
	}
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	user, err := model.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Error("Failed to resolve user for upload", "userID", userID, "error", err)
		status, message := ingestionErrorStatus(services.ErrUserNotFound)
		utils.SendJSONError(w, message, status)
		return
	}

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "userID", userID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to process upload or file too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	// The multipart temp payload is released on every exit path.
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "userID", userID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "userID", userID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("File content validated by magic bytes", "userID", userID, "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	ext := filepath.Ext(fileHeader.Filename)
	snapshot, err := h.ingestionService.ProcessUpload(file, ext, userID, user.Email)
	if err != nil {
		status, message := ingestionErrorStatus(err)
		logger.L.Warn("Ingestion failed", "userID", userID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, message, status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": "Holdings uploaded successfully",
		"data":    snapshot,
	}); err != nil {
		logger.L.Error("Error encoding JSON response for upload result", "userID", userID, "error", err)
	}
}
