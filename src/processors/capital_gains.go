package processors

import (
	"math"

	"github.com/username/cryptotax/src/models"
)

// CapitalGainsCalculator applies jurisdiction policy to a disposal's proceeds
// and cost basis.
type CapitalGainsCalculator struct {
	jurisdiction *models.TaxJurisdiction
}

func NewCapitalGainsCalculator(jurisdiction *models.TaxJurisdiction) *CapitalGainsCalculator {
	return &CapitalGainsCalculator{jurisdiction: jurisdiction}
}

// DisposalValue computes the proceeds of a disposal by variant: quote
// proceeds net of fee for priced trades, the received leg's value for swaps.
func DisposalValue(tx models.Transaction) float64 {
	switch tx.Type {
	case models.TxSpotTrade, models.TxMarginTrade, models.TxFuturesTrade:
		return math.Abs(tx.QuoteAmount) - models.FeeValue(tx)
	case models.TxSwap:
		return tx.ToAmount
	default:
		return math.Abs(tx.QuoteAmount)
	}
}

// Calculate produces the gain/loss outcome for one disposal. Policy order:
// personal-use exemption first, then gain with optional CGT discount, then
// loss. The exemption zeroes everything regardless of the underlying sign.
func (c *CapitalGainsCalculator) Calculate(disposal models.Transaction, basis *models.CostBasis, personalUse bool) *models.CapitalGainResult {
	value := DisposalValue(disposal)
	net := value - basis.TotalCost
	result := &models.CapitalGainResult{
		DisposalValue: value,
		NetGainLoss:   net,
	}

	if personalUse && basis.TotalCost < c.jurisdiction.PersonalUseThreshold {
		result.PersonalUseExempt = true
		return result
	}

	switch {
	case net > 0:
		result.CapitalGain = net
		if !personalUse && basis.HoldingPeriodDays >= c.jurisdiction.CGTHoldingPeriodDays {
			result.DiscountApplied = true
			result.TaxableGain = net * (1 - c.jurisdiction.CGTDiscountRate)
		} else {
			result.TaxableGain = net
		}
	case net < 0:
		result.CapitalLoss = -net
	}
	return result
}

// AssetGainTotals carries per-asset running totals across many disposals.
type AssetGainTotals struct {
	Asset         string  `json:"asset"`
	CapitalGains  float64 `json:"capital_gains"`
	CapitalLosses float64 `json:"capital_losses"`
	TaxableGains  float64 `json:"taxable_gains"`
	Disposals     int     `json:"disposals"`
}

// SumGains totals gains, losses and taxable amounts across results.
func SumGains(results []*models.CapitalGainResult) (gains, losses, taxable float64) {
	for _, r := range results {
		if r == nil {
			continue
		}
		gains += r.CapitalGain
		losses += r.CapitalLoss
		taxable += r.TaxableGain
	}
	return gains, losses, taxable
}

// GroupGainsByAsset folds computed disposals into per-asset totals, skipping
// transactions without a computed gain.
func GroupGainsByAsset(txs []*models.TaxableTransaction) map[string]*AssetGainTotals {
	out := make(map[string]*AssetGainTotals)
	for _, tx := range txs {
		if tx.Gain == nil {
			continue
		}
		asset := models.AssetSymbol(tx.Transaction)
		totals, ok := out[asset]
		if !ok {
			totals = &AssetGainTotals{Asset: asset}
			out[asset] = totals
		}
		totals.CapitalGains += tx.Gain.CapitalGain
		totals.CapitalLosses += tx.Gain.CapitalLoss
		totals.TaxableGains += tx.Gain.TaxableGain
		totals.Disposals++
	}
	return out
}
