package processors

import (
	"fmt"

	"github.com/username/cryptotax/src/models"
)

// FIFOCalculator consumes the oldest acquisition lots first. Lots sharing a
// date are consumed in insertion order (first acquired by record order wins);
// the source data rarely provides sub-day ordering, so that tie-break is a
// deliberate policy.
type FIFOCalculator struct{}

func NewFIFOCalculator() *FIFOCalculator {
	return &FIFOCalculator{}
}

func (c *FIFOCalculator) Method() models.CostBasisMethod {
	return models.MethodFIFO
}

func (c *FIFOCalculator) Calculate(disposal models.Transaction, lots *LotManager) (*models.CostBasis, error) {
	assetKey := AssetKey(disposal)
	amount := disposalAmount(disposal)

	available := lots.RemainingBalance(assetKey)
	if available+BalanceEpsilon < amount {
		return nil, fmt.Errorf("%w: disposal %q needs %.8f of %s, only %.8f available",
			ErrInsufficientAcquisitionLots, disposal.ID, amount, assetKey, available)
	}

	basis := &models.CostBasis{Method: models.MethodFIFO}
	remaining := amount
	for _, lot := range lots.RemainingLots(assetKey) {
		if remaining <= BalanceEpsilon {
			break
		}
		take := remaining
		if lot.Remaining < take {
			take = lot.Remaining
		}
		if err := consume(lots, basis, lot, take, disposal.ID); err != nil {
			return nil, err
		}
		remaining -= take
	}
	return finalize(basis, disposal), nil
}
