package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptotax/src/models"
)

func TestSummaryAggregator(t *testing.T) {
	txs := []*models.TaxableTransaction{
		{
			Transaction: sellTx("d1", date(2024, 9, 1), "BTC", 1, 60000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
			Gain:        &models.CapitalGainResult{CapitalGain: 20000, TaxableGain: 10000},
		},
		{
			Transaction: sellTx("d2", date(2024, 10, 1), "ETH", 5, 10000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
			Gain:        &models.CapitalGainResult{CapitalLoss: 3000},
		},
		{
			// Skipped disposal: counted, but contributes no amounts.
			Transaction: sellTx("d3", date(2024, 10, 2), "ETH", 10, 40000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
		},
		{
			Transaction: models.Transaction{
				ID: "i1", Timestamp: date(2024, 9, 15), Source: "kraken",
				Type: models.TxStakingReward, BaseAsset: "DOT", BaseAmount: 10, QuoteAmount: 80,
			},
			Treatment:    models.TaxTreatment{EventType: models.EventIncome},
			IncomeAmount: 80,
		},
		{
			Transaction: models.Transaction{
				ID: "f1", Timestamp: date(2024, 9, 20), Source: "binance",
				Type: models.TxFee, FeeAsset: "AUD", FeeAmount: 25,
			},
			Treatment:        models.TaxTreatment{EventType: models.EventDeductible},
			DeductibleAmount: 25,
		},
		{
			Transaction: models.Transaction{
				ID: "t1", Timestamp: date(2024, 9, 25), Source: "kraken",
				Type: models.TxTransfer, BaseAsset: "BTC", BaseAmount: 1,
			},
			Treatment: models.TaxTreatment{EventType: models.EventNonTaxable},
		},
	}

	summary := NewSummaryAggregator().Aggregate(txs)

	assert.Equal(t, 6, summary.TransactionCount)
	assert.Equal(t, 3, summary.DisposalCount)
	assert.Equal(t, 1, summary.SkippedDisposals)
	assert.InDelta(t, 20000, summary.TotalCapitalGains, 1e-6)
	assert.InDelta(t, 3000, summary.TotalCapitalLosses, 1e-6)
	assert.InDelta(t, 17000, summary.NetCapitalGain, 1e-6)
	assert.InDelta(t, 10000, summary.TotalTaxableGains, 1e-6)
	assert.InDelta(t, 80, summary.TotalIncome, 1e-6)
	assert.InDelta(t, 25, summary.TotalDeductions, 1e-6)

	require.Contains(t, summary.ByAsset, "BTC")
	assert.InDelta(t, 20000, summary.ByAsset["BTC"].CapitalGains, 1e-6)
	assert.Equal(t, 1, summary.ByAsset["BTC"].Disposals)
	assert.InDelta(t, 3000, summary.ByAsset["ETH"].CapitalLosses, 1e-6)

	require.Contains(t, summary.ByExchange, "binance")
	assert.InDelta(t, 25, summary.ByExchange["binance"].Deductions, 1e-6)

	require.Contains(t, summary.ByMonth, "2024-09")
	assert.InDelta(t, 80, summary.ByMonth["2024-09"].Income, 1e-6)
	assert.InDelta(t, 3000, summary.ByMonth["2024-10"].CapitalLosses, 1e-6)
}
