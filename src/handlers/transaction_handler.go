package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/cryptotax/src/config"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/parsers"
	"github.com/username/cryptotax/src/security/validation"
	"github.com/username/cryptotax/src/services"
	"github.com/username/cryptotax/src/utils"
)

type TransactionHandler struct {
	ingestionService services.IngestionService
}

func NewTransactionHandler(ingestionService services.IngestionService) *TransactionHandler {
	return &TransactionHandler{
		ingestionService: ingestionService,
	}
}

// HandleUpload accepts a multipart CSV upload, parses it with the parser for
// the declared source and stores the resulting normalized transactions.
func (h *TransactionHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("upload exceeds the %d byte limit or is malformed", config.Cfg.MaxUploadSizeBytes), http.StatusRequestEntityTooLarge)
		return
	}

	source := r.FormValue("source")
	if source == "" {
		source = "generic"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, "a 'file' form field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateClientContentType(header.Header.Get("Content-Type")); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	inserted, err := h.ingestionService.ProcessUpload(file, userID, source)
	if err != nil {
		if errors.Is(err, parsers.ErrParsingFailed) {
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		logger.L.Error("Upload processing failed", "userID", userID, "source", source, "error", err)
		utils.SendJSONError(w, "failed to process upload", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"inserted": inserted,
		"source":   source,
	})
}

func (h *TransactionHandler) HandleGetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	txs, err := h.ingestionService.GetTransactions(userID)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error querying transactions for userID %d: %v", userID, err), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(txs); err != nil {
		logger.L.Error("Error generating JSON response for transactions", "userID", userID, "error", err)
	}
}

func (h *TransactionHandler) HandleDeleteTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.ingestionService.DeleteAllTransactions(userID); err != nil {
		utils.SendJSONError(w, "failed to delete transactions", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
