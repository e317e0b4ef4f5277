package processors

import (
	"fmt"
	"math"
	"sort"

	"github.com/username/cryptotax/src/models"
)

// assumedMarginalRate is the flat rate used to estimate savings. A heuristic,
// not a tax computation of record.
const assumedMarginalRate = 0.30

// boundaryWindowDays is how close a holding period or disposal date must be
// to a threshold before the timing strategies consider it actionable.
const boundaryWindowDays = 30

// OptimizationEngine performs pure analysis over a fixed snapshot of
// tax-treated transactions. It never mutates its input.
type OptimizationEngine struct {
	jurisdiction *models.TaxJurisdiction
}

func NewOptimizationEngine(jurisdiction *models.TaxJurisdiction) *OptimizationEngine {
	return &OptimizationEngine{jurisdiction: jurisdiction}
}

// Analyze computes each strategy kind independently, merges them, sorts by
// (potential savings desc, priority desc) and filters by the caller's risk
// tolerance.
func (e *OptimizationEngine) Analyze(txs []*models.TaxableTransaction, tolerance models.RiskTolerance) []models.TaxStrategy {
	var strategies []models.TaxStrategy
	strategies = appendStrategy(strategies, e.lossHarvesting(txs))
	strategies = appendStrategy(strategies, e.discountTiming(txs))
	strategies = appendStrategy(strategies, e.personalUseClassification(txs))
	strategies = appendStrategy(strategies, e.disposalTiming(txs))
	strategies = appendStrategy(strategies, e.lotSelection(txs))

	sort.SliceStable(strategies, func(i, j int) bool {
		if strategies[i].PotentialSavings != strategies[j].PotentialSavings {
			return strategies[i].PotentialSavings > strategies[j].PotentialSavings
		}
		return strategies[i].Priority > strategies[j].Priority
	})
	return FilterByRiskTolerance(strategies, tolerance)
}

// FilterByRiskTolerance keeps the strategies whose compliance level the
// tolerance admits, preserving their relative order.
func FilterByRiskTolerance(strategies []models.TaxStrategy, tolerance models.RiskTolerance) []models.TaxStrategy {
	allowed := map[models.StrategyCompliance]bool{models.ComplianceSafe: true}
	switch tolerance {
	case models.RiskModerate:
		allowed[models.ComplianceModerate] = true
	case models.RiskAggressive:
		allowed[models.ComplianceModerate] = true
		allowed[models.ComplianceAggressive] = true
	}
	out := make([]models.TaxStrategy, 0, len(strategies))
	for _, s := range strategies {
		if allowed[s.Compliance] {
			out = append(out, s)
		}
	}
	return out
}

// appendStrategy guards against invalid money amounts: only finite, positive
// savings are admitted.
func appendStrategy(dst []models.TaxStrategy, s *models.TaxStrategy) []models.TaxStrategy {
	if s == nil {
		return dst
	}
	if !(s.PotentialSavings > 0) || math.IsInf(s.PotentialSavings, 0) || math.IsNaN(s.PotentialSavings) {
		return dst
	}
	return append(dst, *s)
}

func (e *OptimizationEngine) lossHarvesting(txs []*models.TaxableTransaction) *models.TaxStrategy {
	totalGains, totalLosses := 0.0, 0.0
	for _, tx := range txs {
		totalGains += tx.CapitalGain()
		totalLosses += tx.CapitalLoss()
	}
	if totalGains <= 0 || totalLosses <= 0 {
		return nil
	}
	offset := math.Min(totalGains, totalLosses)
	return &models.TaxStrategy{
		Type: models.StrategyLossHarvesting,
		Description: fmt.Sprintf(
			"Realized losses of %.2f can offset realized gains of %.2f in the same tax year.",
			totalLosses, totalGains),
		PotentialSavings: offset * assumedMarginalRate,
		Implementation: []string{
			"Confirm the loss-making disposals settle within the current tax year.",
			"Apply capital losses against capital gains before the CGT discount.",
		},
		Risks: []string{
			"Repurchasing the same asset shortly after selling may be challenged as a wash sale.",
		},
		Compliance: models.ComplianceSafe,
		Priority:   5,
	}
}

func (e *OptimizationEngine) discountTiming(txs []*models.TaxableTransaction) *models.TaxStrategy {
	threshold := e.jurisdiction.CGTHoldingPeriodDays
	deferredGain := 0.0
	candidates := 0
	for _, tx := range txs {
		if tx.Gain == nil || tx.CostBasis == nil || tx.Gain.CapitalGain <= 0 || tx.Gain.DiscountApplied {
			continue
		}
		hp := tx.CostBasis.HoldingPeriodDays
		if hp >= threshold-boundaryWindowDays && hp < threshold {
			deferredGain += tx.Gain.CapitalGain
			candidates++
		}
	}
	if candidates == 0 {
		return nil
	}
	return &models.TaxStrategy{
		Type: models.StrategyDiscountTiming,
		Description: fmt.Sprintf(
			"%d disposal(s) missed the %d-day CGT discount by %d days or less; deferring similar future disposals would halve the taxable gain.",
			candidates, threshold, boundaryWindowDays),
		PotentialSavings: deferredGain * e.jurisdiction.CGTDiscountRate * assumedMarginalRate,
		Implementation: []string{
			fmt.Sprintf("Check holding periods before disposing; wait until at least %d days where practical.", threshold),
		},
		Risks: []string{
			"Price movement while waiting can exceed the discount benefit.",
		},
		Compliance: models.ComplianceSafe,
		Priority:   4,
	}
}

func (e *OptimizationEngine) personalUseClassification(txs []*models.TaxableTransaction) *models.TaxStrategy {
	reclassifiable := 0.0
	candidates := 0
	for _, tx := range txs {
		if tx.Gain == nil || tx.CostBasis == nil || tx.Gain.TaxableGain <= 0 {
			continue
		}
		if tx.Treatment.IsPersonalUse {
			continue
		}
		if tx.CostBasis.TotalCost < e.jurisdiction.PersonalUseThreshold {
			reclassifiable += tx.Gain.TaxableGain
			candidates++
		}
	}
	if candidates == 0 {
		return nil
	}
	return &models.TaxStrategy{
		Type: models.StrategyPersonalUse,
		Description: fmt.Sprintf(
			"%d gain(s) have a cost base under the %.0f personal-use threshold and could be exempt if the assets genuinely were personal use.",
			candidates, e.jurisdiction.PersonalUseThreshold),
		PotentialSavings: reclassifiable * assumedMarginalRate,
		Implementation: []string{
			"Document the personal-use purpose at acquisition time for each candidate.",
			"Reclassify only assets kept mainly for personal consumption, not investment.",
		},
		Risks: []string{
			"The personal-use test is strict; investment intent at acquisition defeats the exemption.",
			"Reclassification without contemporaneous evidence invites audit scrutiny.",
		},
		Compliance: models.ComplianceAggressive,
		Priority:   2,
	}
}

func (e *OptimizationEngine) disposalTiming(txs []*models.TaxableTransaction) *models.TaxStrategy {
	nearBoundary := 0.0
	candidates := 0
	for _, tx := range txs {
		if tx.Gain == nil || tx.Gain.TaxableGain <= 0 {
			continue
		}
		yearEnd := e.jurisdiction.TaxYearEndFor(tx.Transaction.Timestamp)
		if models.DaysBetween(tx.Transaction.Timestamp, yearEnd) <= boundaryWindowDays {
			nearBoundary += tx.Gain.TaxableGain
			candidates++
		}
	}
	if candidates == 0 {
		return nil
	}
	return &models.TaxStrategy{
		Type: models.StrategyDisposalTiming,
		Description: fmt.Sprintf(
			"%d gain(s) fell within %d days of the tax-year boundary; deferring such disposals shifts the liability into the following year.",
			candidates, boundaryWindowDays),
		PotentialSavings: nearBoundary * assumedMarginalRate,
		Implementation: []string{
			"Where a disposal is discretionary, execute it just after the tax-year boundary instead of just before.",
		},
		Risks: []string{
			"Deferral changes when tax is paid, not whether; a rate change next year can work against you.",
		},
		Compliance: models.ComplianceModerate,
		Priority:   3,
	}
}

func (e *OptimizationEngine) lotSelection(txs []*models.TaxableTransaction) *models.TaxStrategy {
	reducible := 0.0
	candidates := 0
	for _, tx := range txs {
		if tx.Gain == nil || tx.CostBasis == nil || tx.Gain.CapitalGain <= 0 {
			continue
		}
		if tx.CostBasis.Method != models.MethodFIFO || len(tx.CostBasis.Lots) < 2 {
			continue
		}
		minUnit, maxUnit := tx.CostBasis.Lots[0].UnitPrice, tx.CostBasis.Lots[0].UnitPrice
		amount := 0.0
		for _, lot := range tx.CostBasis.Lots {
			amount += lot.Amount
			if lot.UnitPrice < minUnit {
				minUnit = lot.UnitPrice
			}
			if lot.UnitPrice > maxUnit {
				maxUnit = lot.UnitPrice
			}
		}
		spread := (maxUnit - minUnit) * amount
		if spread <= 0 {
			continue
		}
		reducible += math.Min(tx.Gain.CapitalGain, spread)
		candidates++
	}
	if candidates == 0 {
		return nil
	}
	return &models.TaxStrategy{
		Type: models.StrategyLotSelection,
		Description: fmt.Sprintf(
			"%d FIFO disposal(s) consumed lots at different unit prices; specific identification of higher-priced lots would reduce the gain.",
			candidates),
		PotentialSavings: reducible * assumedMarginalRate,
		Implementation: []string{
			"Switch the report method to specific identification.",
			"Select the highest-cost lots for disposals with a gain (minimize-gain ordering).",
		},
		Risks: []string{
			"Lot selections must be recorded at disposal time and applied consistently.",
		},
		Compliance: models.ComplianceSafe,
		Priority:   3,
	}
}
