package services

import (
	"context"
	"io"

	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/processors"
)

// ReportRequest carries everything one report run needs. Transactions are
// the user's full ledger; the service filters to the requested tax year but
// still seeds acquisition lots from earlier history.
type ReportRequest struct {
	UserID           int64
	Transactions     []models.Transaction
	JurisdictionCode string
	TaxYear          int
	Method           models.CostBasisMethod

	// PersonalUseIDs marks transactions the user asserts were personal-use
	// acquisitions or disposals, keyed by transaction ID.
	PersonalUseIDs map[string]bool

	// LotSelections provides explicit lot picks for the specific
	// identification method, keyed by disposal transaction ID.
	LotSelections map[string][]processors.LotSelection

	IncludeOptimization bool
	RiskTolerance       models.RiskTolerance

	// ChunkSize overrides the default batch size; zero means default.
	ChunkSize int
	Progress  models.ProgressFunc
}

// ReportService defines the interface for the report generation pipeline.
type ReportService interface {
	GenerateReport(ctx context.Context, req ReportRequest) (*models.TaxReport, error)
	GetLatestReport(userID int64) (*models.TaxReport, error)
	GetReportByRunID(userID int64, runID string) (*models.TaxReport, error)
	InvalidateUserCache(userID int64)
}

// IngestionService defines the interface for turning uploaded exchange
// exports into stored normalized transactions.
type IngestionService interface {
	ProcessUpload(fileReader io.Reader, userID int64, source string) (int, error)
	GetTransactions(userID int64) ([]models.Transaction, error)
	DeleteAllTransactions(userID int64) error
}

// EmailService defines the interface for sending notification emails.
type EmailService interface {
	SendReportReadyEmail(ctx context.Context, recipientEmail, username, runID string) error
}
