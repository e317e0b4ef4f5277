package services

import (
	"context"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/processors"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func buyTx(id string, ts time.Time, asset string, amount, totalCost float64) models.Transaction {
	return models.Transaction{
		ID: id, Timestamp: ts, Source: "kraken", Type: models.TxSpotTrade,
		BaseAsset: asset, BaseAmount: amount,
		QuoteAsset: "AUD", QuoteAmount: -totalCost,
	}
}

func sellTx(id string, ts time.Time, asset string, amount, proceeds float64) models.Transaction {
	return models.Transaction{
		ID: id, Timestamp: ts, Source: "kraken", Type: models.TxSpotTrade,
		BaseAsset: asset, BaseAmount: -amount,
		QuoteAsset: "AUD", QuoteAmount: proceeds,
	}
}

func newTestService() ReportService {
	return NewReportService(cache.New(DefaultCacheExpiration, CacheCleanupInterval), 0)
}

func baseRequest(txs []models.Transaction) ReportRequest {
	return ReportRequest{
		UserID:           1,
		Transactions:     txs,
		JurisdictionCode: "AU",
		TaxYear:          2025,
		Method:           models.MethodFIFO,
	}
}

func TestGenerateReportFIFO(t *testing.T) {
	svc := newTestService()

	// The pre-period lot must still back in-period disposals.
	txs := []models.Transaction{
		sellTx("sell-1", date(2025, time.January, 1), "BTC", 1.5, 90000),
		buyTx("buy-2", date(2024, time.August, 1), "BTC", 1, 50000),
		buyTx("buy-1", date(2023, time.January, 1), "BTC", 1, 30000),
	}

	report, err := svc.GenerateReport(context.Background(), baseRequest(txs))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "AU", report.JurisdictionCode)
	assert.Equal(t, 2025, report.TaxYear)
	assert.Equal(t, date(2024, time.July, 1), report.PeriodStart)
	assert.Equal(t, date(2025, time.July, 1), report.PeriodEnd)
	assert.Empty(t, report.Warnings)

	// Only in-period records appear in the output.
	require.Len(t, report.Transactions, 2)

	var disposal *models.TaxableTransaction
	for _, tt := range report.Transactions {
		if tt.Treatment.EventType == models.EventDisposal {
			disposal = tt
		}
	}
	require.NotNil(t, disposal)
	require.NotNil(t, disposal.CostBasis)
	require.NotNil(t, disposal.Gain)

	// FIFO: the full 2023 lot plus half of the 2024 lot.
	assert.InDelta(t, 55000, disposal.CostBasis.TotalCost, 1e-6)
	assert.Equal(t, date(2023, time.January, 1), disposal.CostBasis.AcquisitionDate)
	assert.True(t, disposal.Gain.DiscountApplied)
	assert.True(t, disposal.Treatment.CGTDiscountApplied)
	assert.InDelta(t, 35000, disposal.Gain.CapitalGain, 1e-6)
	assert.InDelta(t, 17500, disposal.Gain.TaxableGain, 1e-6)

	assert.Equal(t, 1, report.Summary.DisposalCount)
	assert.Equal(t, 0, report.Summary.SkippedDisposals)
	assert.InDelta(t, 35000, report.Summary.TotalCapitalGains, 1e-6)
	assert.InDelta(t, 17500, report.Summary.TotalTaxableGains, 1e-6)
}

func TestGenerateReportSkipsUnmatchedDisposal(t *testing.T) {
	svc := newTestService()

	txs := []models.Transaction{
		buyTx("buy-eth", date(2024, time.August, 1), "ETH", 8, 24000),
		sellTx("sell-eth", date(2025, time.February, 1), "ETH", 10, 45000),
		buyTx("buy-btc", date(2024, time.September, 1), "BTC", 1, 50000),
		sellTx("sell-btc", date(2025, time.March, 1), "BTC", 1, 60000),
	}

	report, err := svc.GenerateReport(context.Background(), baseRequest(txs))
	require.NoError(t, err, "a skipped disposal must not abort the run")

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarnSkippedDisposal, report.Warnings[0].Code)
	assert.Equal(t, "sell-eth", report.Warnings[0].TransactionID)

	assert.Equal(t, 2, report.Summary.DisposalCount)
	assert.Equal(t, 1, report.Summary.SkippedDisposals)
	// Only the matched BTC disposal contributes to the totals.
	assert.InDelta(t, 10000, report.Summary.TotalCapitalGains, 1e-6)

	for _, tt := range report.Transactions {
		if tt.Transaction.ID == "sell-eth" {
			assert.Nil(t, tt.Gain)
			assert.Nil(t, tt.CostBasis)
		}
	}
}

func TestGenerateReportWarnsOnUnknownType(t *testing.T) {
	svc := newTestService()

	txs := []models.Transaction{
		{ID: "weird-1", Timestamp: date(2024, time.October, 1), Source: "kraken",
			Type: models.TxUnknown, BaseAsset: "BTC", BaseAmount: 0.1},
	}

	report, err := svc.GenerateReport(context.Background(), baseRequest(txs))
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarnUnclassified, report.Warnings[0].Code)
	assert.Equal(t, "weird-1", report.Warnings[0].TransactionID)
}

func TestGenerateReportProgress(t *testing.T) {
	svc := newTestService()

	txs := []models.Transaction{
		buyTx("b1", date(2024, time.August, 1), "BTC", 1, 40000),
		buyTx("b2", date(2024, time.September, 1), "BTC", 1, 45000),
		sellTx("s1", date(2025, time.January, 1), "BTC", 1, 60000),
	}

	var events []models.Progress
	req := baseRequest(txs)
	req.ChunkSize = 1
	req.Progress = func(p models.Progress) { events = append(events, p) }

	_, err := svc.GenerateReport(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	seen := map[models.ReportPhase]bool{}
	lastByPhase := map[models.ReportPhase]int{}
	for _, e := range events {
		seen[e.Phase] = true
		assert.Equal(t, 3, e.Total)
		assert.GreaterOrEqual(t, e.Processed, lastByPhase[e.Phase], "processed goes backwards in %s", e.Phase)
		lastByPhase[e.Phase] = e.Processed
	}
	for _, phase := range []models.ReportPhase{
		models.PhaseFilteringPeriod, models.PhaseClassifying,
		models.PhaseComputingCostBasis, models.PhaseAggregating, models.PhaseComplete,
	} {
		assert.True(t, seen[phase], "missing phase %s", phase)
	}

	final := events[len(events)-1]
	assert.Equal(t, models.PhaseComplete, final.Phase)
	assert.Equal(t, 3, final.Processed)
}

func TestGenerateReportCancellation(t *testing.T) {
	svc := newTestService()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	txs := []models.Transaction{
		buyTx("b1", date(2024, time.August, 1), "BTC", 1, 40000),
	}
	_, err := svc.GenerateReport(ctx, baseRequest(txs))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateReportValidation(t *testing.T) {
	svc := newTestService()

	t.Run("unsupported jurisdiction", func(t *testing.T) {
		req := baseRequest(nil)
		req.JurisdictionCode = "US"
		_, err := svc.GenerateReport(context.Background(), req)
		assert.ErrorIs(t, err, models.ErrUnsupportedJurisdiction)
	})

	t.Run("unsupported method", func(t *testing.T) {
		req := baseRequest(nil)
		req.Method = models.CostBasisMethod("average_cost")
		_, err := svc.GenerateReport(context.Background(), req)
		assert.ErrorIs(t, err, processors.ErrUnsupportedCostBasisMethod)
	})
}

func TestReportCacheLookups(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetLatestReport(1)
	assert.ErrorIs(t, err, ErrReportNotFound)

	txs := []models.Transaction{
		buyTx("b1", date(2024, time.August, 1), "BTC", 1, 40000),
		sellTx("s1", date(2025, time.January, 1), "BTC", 1, 60000),
	}
	report, err := svc.GenerateReport(context.Background(), baseRequest(txs))
	require.NoError(t, err)

	latest, err := svc.GetLatestReport(1)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, latest.RunID)

	byRun, err := svc.GetReportByRunID(1, report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, byRun.RunID)

	_, err = svc.GetReportByRunID(2, report.RunID)
	assert.ErrorIs(t, err, ErrReportNotFound, "reports are scoped per user")

	svc.InvalidateUserCache(1)
	_, err = svc.GetLatestReport(1)
	assert.ErrorIs(t, err, ErrReportNotFound)
}
