package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/username/cryptotax/src/config"
	"github.com/username/cryptotax/src/database"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/processors"
	"github.com/username/cryptotax/src/services"
	"github.com/username/cryptotax/src/utils"
)

type ReportHandler struct {
	reportService    services.ReportService
	ingestionService services.IngestionService
	emailService     services.EmailService
}

func NewReportHandler(
	reportService services.ReportService,
	ingestionService services.IngestionService,
	emailService services.EmailService,
) *ReportHandler {
	return &ReportHandler{
		reportService:    reportService,
		ingestionService: ingestionService,
		emailService:     emailService,
	}
}

type generateReportPayload struct {
	Jurisdiction        string                               `json:"jurisdiction"`
	TaxYear             int                                  `json:"tax_year"`
	Method              models.CostBasisMethod               `json:"method"`
	PersonalUseIDs      []string                             `json:"personal_use_ids"`
	LotSelections       map[string][]processors.LotSelection `json:"lot_selections"`
	IncludeOptimization bool                                 `json:"include_optimization"`
	RiskTolerance       models.RiskTolerance                 `json:"risk_tolerance"`
	Notify              bool                                 `json:"notify"`
}

func (h *ReportHandler) HandleGenerateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	var payload generateReportPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if payload.Jurisdiction == "" {
		payload.Jurisdiction = config.Cfg.DefaultJurisdiction
	}
	if payload.Method == "" {
		payload.Method = models.MethodFIFO
	}
	if payload.RiskTolerance == "" {
		payload.RiskTolerance = models.RiskConservative
	}
	if payload.TaxYear == 0 {
		utils.SendJSONError(w, "tax_year is required", http.StatusBadRequest)
		return
	}

	txs, err := h.ingestionService.GetTransactions(userID)
	if err != nil {
		utils.SendJSONError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}

	personalUse := make(map[string]bool, len(payload.PersonalUseIDs))
	for _, id := range payload.PersonalUseIDs {
		personalUse[id] = true
	}

	report, err := h.reportService.GenerateReport(r.Context(), services.ReportRequest{
		UserID:              userID,
		Transactions:        txs,
		JurisdictionCode:    payload.Jurisdiction,
		TaxYear:             payload.TaxYear,
		Method:              payload.Method,
		PersonalUseIDs:      personalUse,
		LotSelections:       payload.LotSelections,
		IncludeOptimization: payload.IncludeOptimization,
		RiskTolerance:       payload.RiskTolerance,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnsupportedJurisdiction),
			errors.Is(err, processors.ErrUnsupportedCostBasisMethod):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away; nothing useful to write.
			logger.L.Info("Report run cancelled", "userID", userID)
		default:
			logger.L.Error("Report generation failed", "userID", userID, "error", err)
			utils.SendJSONError(w, "failed to generate report", http.StatusInternalServerError)
		}
		return
	}

	if payload.Notify {
		go h.notifyReportReady(userID, report.RunID)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding report response", "userID", userID, "runID", report.RunID, "error", err)
	}
}

func (h *ReportHandler) notifyReportReady(userID int64, runID string) {
	user, err := models.GetUserByID(database.DB, userID)
	if err != nil {
		logger.L.Warn("Cannot send report notification, user lookup failed", "userID", userID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := h.emailService.SendReportReadyEmail(ctx, user.Email, user.Username, runID); err != nil {
		logger.L.Warn("Report notification email failed", "userID", userID, "runID", runID, "error", err)
	}
}

func (h *ReportHandler) HandleGetLatestReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}

	report, err := h.reportService.GetLatestReport(userID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, "no report generated yet", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	h.writeReportWithETag(w, r, report)
}

func (h *ReportHandler) HandleGetReportByRunID(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "authentication required or user ID not found in context", http.StatusUnauthorized)
		return
	}
	runID := r.PathValue("runID")

	report, err := h.reportService.GetReportByRunID(userID, runID)
	if err != nil {
		if errors.Is(err, services.ErrReportNotFound) {
			utils.SendJSONError(w, "report not found", http.StatusNotFound)
			return
		}
		utils.SendJSONError(w, "failed to load report", http.StatusInternalServerError)
		return
	}

	h.writeReportWithETag(w, r, report)
}

func (h *ReportHandler) writeReportWithETag(w http.ResponseWriter, r *http.Request, report *models.TaxReport) {
	etag, err := utils.GenerateETag(report)
	if err == nil {
		w.Header().Set("ETag", `"`+etag+`"`)
		if match := r.Header.Get("If-None-Match"); match == `"`+etag+`"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding report response", "runID", report.RunID, "error", err)
	}
}
