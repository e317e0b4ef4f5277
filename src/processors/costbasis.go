package processors

import (
	"fmt"
	"math"

	"github.com/username/cryptotax/src/models"
)

// CostBasisCalculator computes the cost basis of one disposal by consuming
// acquisition lots from a caller-owned manager.
type CostBasisCalculator interface {
	Method() models.CostBasisMethod
	Calculate(disposal models.Transaction, lots *LotManager) (*models.CostBasis, error)
}

// NewCostBasisCalculator selects a calculator by method name.
func NewCostBasisCalculator(method models.CostBasisMethod) (CostBasisCalculator, error) {
	switch method {
	case models.MethodFIFO:
		return NewFIFOCalculator(), nil
	case models.MethodSpecificID:
		return NewSpecificIdentificationCalculator(OptimizeMaxDiscount), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCostBasisMethod, method)
	}
}

// disposalAmount is the positive quantity a disposal removes from inventory.
func disposalAmount(disposal models.Transaction) float64 {
	return math.Abs(models.CanonicalAmount(disposal))
}

// consume takes the given amount from a lot through the manager and folds the
// lot's contribution into the basis being built.
func consume(manager *LotManager, basis *models.CostBasis, lot *models.AcquisitionLot, take float64, disposalID string) error {
	if err := manager.UseLot(lot.AssetKey, lot.TransactionID, take, disposalID); err != nil {
		return err
	}
	if basis.AcquisitionDate.IsZero() || lot.Date.Before(basis.AcquisitionDate) {
		basis.AcquisitionDate = lot.Date
	}
	basis.AcquisitionPrice += take * lot.UnitPrice
	if lot.Amount > 0 {
		basis.AcquisitionFees += lot.Fee * (take / lot.Amount)
	}
	basis.Lots = append(basis.Lots, models.ConsumedLot{
		TransactionID: lot.TransactionID,
		Date:          lot.Date,
		Amount:        take,
		UnitPrice:     lot.UnitPrice,
	})
	return nil
}

// finalize derives the basis totals and holding period once all lots are
// consumed.
func finalize(basis *models.CostBasis, disposal models.Transaction) *models.CostBasis {
	basis.TotalCost = basis.AcquisitionPrice + basis.AcquisitionFees
	basis.HoldingPeriodDays = models.DaysBetween(basis.AcquisitionDate, disposal.Timestamp)
	return basis
}
