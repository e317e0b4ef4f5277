package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/username/cryptotax/src/database"
	"github.com/username/cryptotax/src/logger"
	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/processors"
)

const (
	ckLatestReport = "report_latest_user_%d"
	ckReportByRun  = "report_run_user_%d_%s"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute

	// DefaultChunkSize bounds how many records are processed between
	// progress emissions and cancellation checks.
	DefaultChunkSize = 1000
)

var ErrReportNotFound = errors.New("report not found")

type reportServiceImpl struct {
	reportCache *cache.Cache
	chunkSize   int
}

func NewReportService(reportCache *cache.Cache, chunkSize int) ReportService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &reportServiceImpl{
		reportCache: reportCache,
		chunkSize:   chunkSize,
	}
}

// reportRun tracks per-run progress state so ETA estimates can be derived
// from elapsed time at each chunk boundary.
type reportRun struct {
	started  time.Time
	total    int
	progress models.ProgressFunc
}

func (r *reportRun) emit(processed int, phase models.ReportPhase) {
	if r.progress == nil {
		return
	}
	var eta time.Duration
	if processed > 0 && processed < r.total {
		elapsed := time.Since(r.started)
		eta = time.Duration(float64(elapsed) / float64(processed) * float64(r.total-processed))
	}
	r.progress(models.Progress{
		Processed:              processed,
		Total:                  r.total,
		Phase:                  phase,
		EstimatedTimeRemaining: eta,
	})
}

func (s *reportServiceImpl) GenerateReport(ctx context.Context, req ReportRequest) (*models.TaxReport, error) {
	overallStartTime := time.Now()
	logger.L.Info("GenerateReport START",
		"userID", req.UserID, "jurisdiction", req.JurisdictionCode,
		"taxYear", req.TaxYear, "method", req.Method, "transactions", len(req.Transactions))

	jurisdiction, err := models.GetJurisdiction(req.JurisdictionCode)
	if err != nil {
		return nil, err
	}
	if !jurisdiction.SupportsMethod(req.Method) {
		return nil, fmt.Errorf("%w: %q not supported by jurisdiction %s",
			processors.ErrUnsupportedCostBasisMethod, req.Method, jurisdiction.Code)
	}

	calculator, err := processors.NewCostBasisCalculator(req.Method)
	if err != nil {
		return nil, err
	}
	if specific, ok := calculator.(*processors.SpecificIdentificationCalculator); ok {
		for disposalID, selections := range req.LotSelections {
			specific.SetSelections(disposalID, selections)
		}
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}

	classifier := processors.NewClassifier(jurisdiction)
	gainsCalc := processors.NewCapitalGainsCalculator(jurisdiction)
	lots := processors.NewLotManager()

	periodStart, periodEnd := jurisdiction.TaxYearBounds(req.TaxYear)

	// Phase 1: filter to the requested period. Acquisitions before the
	// period still matter because later disposals consume their lots, so
	// they are kept aside for lot seeding rather than discarded.
	var prior, inPeriod []models.Transaction
	for _, tx := range req.Transactions {
		switch {
		case tx.Timestamp.Before(periodStart):
			prior = append(prior, tx)
		case tx.Timestamp.Before(periodEnd):
			inPeriod = append(inPeriod, tx)
		}
	}
	sortByTime(prior)
	sortByTime(inPeriod)

	run := &reportRun{started: overallStartTime, total: len(inPeriod), progress: req.Progress}
	run.emit(0, models.PhaseFilteringPeriod)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 2: classify, in chunks.
	var warnings []models.ReportWarning
	taxable := make([]*models.TaxableTransaction, 0, len(inPeriod))
	for start := 0; start < len(inPeriod); start += chunkSize {
		end := min(start+chunkSize, len(inPeriod))
		for _, tx := range inPeriod[start:end] {
			treatment := classifier.Classify(tx, req.PersonalUseIDs[tx.ID])
			if tx.Type == models.TxUnknown {
				warnings = append(warnings, models.ReportWarning{
					TransactionID: tx.ID,
					Code:          models.WarnUnclassified,
					Message:       "unknown transaction type classified as " + string(treatment.EventType),
				})
			}
			taxable = append(taxable, &models.TaxableTransaction{Transaction: tx, Treatment: treatment})
		}
		run.emit(end, models.PhaseClassifying)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// Seed lots from pre-period acquisition history.
	for _, tx := range prior {
		treatment := classifier.Classify(tx, req.PersonalUseIDs[tx.ID])
		if treatment.EventType == models.EventAcquisition {
			lots.AddLot(tx)
		}
	}

	// Phase 3: lot accumulation, cost basis and gains, in chunks. A
	// disposal that cannot be matched is recorded as a warning and left
	// without gain fields; the run continues.
	for start := 0; start < len(taxable); start += chunkSize {
		end := min(start+chunkSize, len(taxable))
		for _, tt := range taxable[start:end] {
			switch tt.Treatment.EventType {
			case models.EventAcquisition:
				lots.AddLot(tt.Transaction)
			case models.EventDisposal:
				basis, err := calculator.Calculate(tt.Transaction, lots)
				if err != nil {
					logger.L.Warn("skipping disposal, cost basis failed",
						"txID", tt.Transaction.ID, "error", err)
					warnings = append(warnings, models.ReportWarning{
						TransactionID: tt.Transaction.ID,
						Code:          models.WarnSkippedDisposal,
						Message:       err.Error(),
					})
					continue
				}
				result := gainsCalc.Calculate(tt.Transaction, basis, tt.Treatment.IsPersonalUse)
				tt.CostBasis = basis
				tt.Gain = result
				tt.Treatment.CGTDiscountApplied = result.DiscountApplied
			case models.EventIncome:
				tt.IncomeAmount = incomeValue(tt.Transaction)
			case models.EventDeductible:
				tt.DeductibleAmount = deductibleValue(tt.Transaction)
			}
		}
		run.emit(end, models.PhaseComputingCostBasis)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	// Phase 4: aggregate.
	run.emit(len(taxable), models.PhaseAggregating)
	summary := processors.NewSummaryAggregator().Aggregate(taxable)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Phase 5: optional optimization analysis.
	var strategies []models.TaxStrategy
	if req.IncludeOptimization {
		run.emit(len(taxable), models.PhaseOptimizing)
		strategies = processors.NewOptimizationEngine(jurisdiction).Analyze(taxable, req.RiskTolerance)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	report := &models.TaxReport{
		RunID:            uuid.New().String(),
		JurisdictionCode: jurisdiction.Code,
		TaxYear:          req.TaxYear,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		Method:           req.Method,
		Transactions:     taxable,
		Summary:          summary,
		Strategies:       strategies,
		Warnings:         warnings,
		GeneratedAt:      time.Now().UTC(),
	}
	run.emit(len(taxable), models.PhaseComplete)

	if database.DB != nil {
		if err := models.SaveReportRun(database.DB, req.UserID, report); err != nil {
			logger.L.Error("failed to persist report run", "runID", report.RunID, "error", err)
		}
	}
	if s.reportCache != nil {
		s.reportCache.Set(fmt.Sprintf(ckLatestReport, req.UserID), report, cache.DefaultExpiration)
		s.reportCache.Set(fmt.Sprintf(ckReportByRun, req.UserID, report.RunID), report, cache.DefaultExpiration)
	}

	logger.L.Info("GenerateReport END",
		"userID", req.UserID, "runID", report.RunID,
		"disposals", summary.DisposalCount, "skipped", summary.SkippedDisposals,
		"warnings", len(warnings), "duration", time.Since(overallStartTime))
	return report, nil
}

func (s *reportServiceImpl) GetLatestReport(userID int64) (*models.TaxReport, error) {
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(fmt.Sprintf(ckLatestReport, userID)); found {
			return cached.(*models.TaxReport), nil
		}
	}
	return nil, ErrReportNotFound
}

func (s *reportServiceImpl) GetReportByRunID(userID int64, runID string) (*models.TaxReport, error) {
	if s.reportCache != nil {
		if cached, found := s.reportCache.Get(fmt.Sprintf(ckReportByRun, userID, runID)); found {
			return cached.(*models.TaxReport), nil
		}
	}
	return nil, ErrReportNotFound
}

func (s *reportServiceImpl) InvalidateUserCache(userID int64) {
	if s.reportCache == nil {
		return
	}
	s.reportCache.Delete(fmt.Sprintf(ckLatestReport, userID))
	logger.L.Info("Invalidated report cache for user", "userID", userID)
}

func sortByTime(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].Timestamp.Equal(txs[j].Timestamp) {
			return txs[i].ID < txs[j].ID
		}
		return txs[i].Timestamp.Before(txs[j].Timestamp)
	})
}

// incomeValue is the fiat value of an income receipt. The normalized format
// carries it on the quote leg; pricing lookups are a caller concern.
func incomeValue(tx models.Transaction) float64 {
	if tx.QuoteAmount != 0 {
		return math.Abs(tx.QuoteAmount)
	}
	return math.Abs(tx.ToAmount)
}

func deductibleValue(tx models.Transaction) float64 {
	if tx.FeeAmount != 0 {
		return math.Abs(tx.FeeAmount)
	}
	return math.Abs(tx.QuoteAmount)
}
