package services

import (
	"fmt"
	"io"
	"time"

	"github.com/username/cryptotax/src/database"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/parsers"
)

type ingestionServiceImpl struct {
	reportService ReportService
}

func NewIngestionService(reportService ReportService) IngestionService {
	return &ingestionServiceImpl{reportService: reportService}
}

func (s *ingestionServiceImpl) ProcessUpload(fileReader io.Reader, userID int64, source string) (int, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessUpload START", "userID", userID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", parsers.ErrParsingFailed, err)
	}

	txs, err := parser.Parse(fileReader)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", parsers.ErrParsingFailed, err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	inserted, err := models.InsertTransactions(database.DB, userID, txs)
	if err != nil {
		return 0, fmt.Errorf("error storing transactions: %w", err)
	}

	// Stored ledger changed; any cached report is stale.
	if inserted > 0 && s.reportService != nil {
		s.reportService.InvalidateUserCache(userID)
	}

	logger.L.Info("ProcessUpload END",
		"userID", userID, "parsed", len(txs), "inserted", inserted,
		"duration", time.Since(overallStartTime))
	return inserted, nil
}

func (s *ingestionServiceImpl) GetTransactions(userID int64) ([]models.Transaction, error) {
	return models.ListTransactions(database.DB, userID)
}

func (s *ingestionServiceImpl) DeleteAllTransactions(userID int64) error {
	deleted, err := models.DeleteTransactions(database.DB, userID)
	if err != nil {
		return err
	}
	if s.reportService != nil {
		s.reportService.InvalidateUserCache(userID)
	}
	logger.L.Info("Deleted all transactions for user", "userID", userID, "count", deleted)
	return nil
}
