package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/cryptotax/src/models"
)

func TestDisposalValue(t *testing.T) {
	spot := sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000)
	spot.FeeAsset, spot.FeeAmount = "AUD", 100
	assert.InDelta(t, 59900, DisposalValue(spot), 1e-9)

	swap := models.Transaction{
		ID: "d2", Timestamp: date(2024, 6, 1), Source: "kraken", Type: models.TxSwap,
		FromAsset: "BTC", FromAmount: 1, ToAsset: "ETH", ToAmount: 62000,
	}
	assert.InDelta(t, 62000, DisposalValue(swap), 1e-9)
}

func TestCapitalGains_DiscountBoundary(t *testing.T) {
	calc := NewCapitalGainsCalculator(auJurisdiction(t))
	disposal := sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000)

	atThreshold := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 40000, HoldingPeriodDays: 365}
	result := calc.Calculate(disposal, atThreshold, false)
	assert.True(t, result.DiscountApplied)
	assert.InDelta(t, 20000, result.CapitalGain, 1e-6)
	assert.InDelta(t, 10000, result.TaxableGain, 1e-6)

	oneDayShort := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 40000, HoldingPeriodDays: 364}
	result = calc.Calculate(disposal, oneDayShort, false)
	assert.False(t, result.DiscountApplied)
	assert.InDelta(t, 20000, result.TaxableGain, 1e-6)
}

func TestCapitalGains_PersonalUseExemptionDominates(t *testing.T) {
	calc := NewCapitalGainsCalculator(auJurisdiction(t))

	basis := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 5000, HoldingPeriodDays: 400}
	result := calc.Calculate(sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000), basis, true)
	assert.True(t, result.PersonalUseExempt)
	assert.Zero(t, result.CapitalGain)
	assert.Zero(t, result.CapitalLoss)
	assert.Zero(t, result.TaxableGain)
	assert.False(t, result.DiscountApplied)

	// A loss is exempted just the same.
	result = calc.Calculate(sellTx("d2", date(2024, 6, 1), "BTC", 1, 1000), basis, true)
	assert.True(t, result.PersonalUseExempt)
	assert.Zero(t, result.CapitalLoss)
}

func TestCapitalGains_PersonalUseAboveThresholdStillTaxed(t *testing.T) {
	calc := NewCapitalGainsCalculator(auJurisdiction(t))

	basis := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 15000, HoldingPeriodDays: 400}
	result := calc.Calculate(sellTx("d1", date(2024, 6, 1), "BTC", 1, 20000), basis, true)
	assert.False(t, result.PersonalUseExempt)
	assert.InDelta(t, 5000, result.CapitalGain, 1e-6)
	// No CGT discount for personal-use assets however long they were held.
	assert.False(t, result.DiscountApplied)
	assert.InDelta(t, 5000, result.TaxableGain, 1e-6)
}

func TestCapitalGains_Loss(t *testing.T) {
	calc := NewCapitalGainsCalculator(auJurisdiction(t))

	basis := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 50000, HoldingPeriodDays: 100}
	result := calc.Calculate(sellTx("d1", date(2024, 6, 1), "BTC", 1, 42000), basis, false)
	assert.Zero(t, result.CapitalGain)
	assert.InDelta(t, 8000, result.CapitalLoss, 1e-6)
	assert.Zero(t, result.TaxableGain)
}

func TestCapitalGains_MutualExclusivity(t *testing.T) {
	calc := NewCapitalGainsCalculator(auJurisdiction(t))
	for _, proceeds := range []float64{10000, 40000, 70000} {
		basis := &models.CostBasis{Method: models.MethodFIFO, TotalCost: 40000, HoldingPeriodDays: 200}
		result := calc.Calculate(sellTx("d", date(2024, 6, 1), "BTC", 1, proceeds), basis, false)
		assert.False(t, result.CapitalGain > 0 && result.CapitalLoss > 0,
			"proceeds %.0f produced both a gain and a loss", proceeds)
	}
}

func TestGroupGainsByAsset(t *testing.T) {
	txs := []*models.TaxableTransaction{
		{
			Transaction: sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
			Gain:        &models.CapitalGainResult{CapitalGain: 20000, TaxableGain: 10000},
		},
		{
			Transaction: sellTx("d2", date(2024, 6, 2), "BTC", 1, 30000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
			Gain:        &models.CapitalGainResult{CapitalLoss: 10000},
		},
		{
			// Skipped disposal: no gain computed, must not be counted.
			Transaction: sellTx("d3", date(2024, 6, 3), "ETH", 10, 40000),
			Treatment:   models.TaxTreatment{EventType: models.EventDisposal},
		},
	}

	byAsset := GroupGainsByAsset(txs)
	assert.Len(t, byAsset, 1)
	assert.InDelta(t, 20000, byAsset["BTC"].CapitalGains, 1e-6)
	assert.InDelta(t, 10000, byAsset["BTC"].CapitalLosses, 1e-6)
	assert.Equal(t, 2, byAsset["BTC"].Disposals)
}
