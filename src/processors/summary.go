package processors

import (
	"github.com/username/cryptotax/src/models"
)

// SummaryAggregator folds tax-treated transactions into totals and the
// by-asset / by-exchange / by-month breakdown maps.
type SummaryAggregator struct{}

func NewSummaryAggregator() *SummaryAggregator {
	return &SummaryAggregator{}
}

func (a *SummaryAggregator) Aggregate(txs []*models.TaxableTransaction) *models.TaxSummary {
	summary := &models.TaxSummary{
		ByAsset:    make(map[string]*models.TaxSummaryBucket),
		ByExchange: make(map[string]*models.TaxSummaryBucket),
		ByMonth:    make(map[string]*models.TaxSummaryBucket),
	}

	for _, tx := range txs {
		summary.TransactionCount++
		asset := models.AssetSymbol(tx.Transaction)
		exchange := tx.Transaction.Source
		month := tx.Transaction.Timestamp.Format("2006-01")

		switch tx.Treatment.EventType {
		case models.EventDisposal:
			summary.DisposalCount++
			if tx.SkippedDisposal() {
				summary.SkippedDisposals++
				continue
			}
			summary.TotalCapitalGains += tx.Gain.CapitalGain
			summary.TotalCapitalLosses += tx.Gain.CapitalLoss
			summary.TotalTaxableGains += tx.Gain.TaxableGain
			for _, b := range a.buckets(summary, asset, exchange, month) {
				b.CapitalGains += tx.Gain.CapitalGain
				b.CapitalLosses += tx.Gain.CapitalLoss
				b.TaxableGains += tx.Gain.TaxableGain
				b.Disposals++
			}
		case models.EventIncome:
			summary.TotalIncome += tx.IncomeAmount
			for _, b := range a.buckets(summary, asset, exchange, month) {
				b.Income += tx.IncomeAmount
			}
		case models.EventDeductible:
			summary.TotalDeductions += tx.DeductibleAmount
			for _, b := range a.buckets(summary, asset, exchange, month) {
				b.Deductions += tx.DeductibleAmount
			}
		}
	}

	summary.NetCapitalGain = summary.TotalCapitalGains - summary.TotalCapitalLosses
	return summary
}

func (a *SummaryAggregator) buckets(s *models.TaxSummary, asset, exchange, month string) []*models.TaxSummaryBucket {
	return []*models.TaxSummaryBucket{
		bucket(s.ByAsset, asset),
		bucket(s.ByExchange, exchange),
		bucket(s.ByMonth, month),
	}
}

func bucket(m map[string]*models.TaxSummaryBucket, key string) *models.TaxSummaryBucket {
	b, ok := m[key]
	if !ok {
		b = &models.TaxSummaryBucket{}
		m[key] = b
	}
	return b
}
