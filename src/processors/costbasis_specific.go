package processors

import (
	"fmt"
	"math"
	"sort"

	"github.com/username/cryptotax/src/models"
)

// OptimizationGoal orders candidate lots for FindOptimalLots.
type OptimizationGoal string

const (
	// OptimizeMinimizeGain consumes the highest unit price lots first.
	OptimizeMinimizeGain OptimizationGoal = "minimize_gain"
	// OptimizeMaximizeLoss consumes the lowest unit price lots first.
	OptimizeMaximizeLoss OptimizationGoal = "maximize_loss"
	// OptimizeMaxDiscount prefers lots already past the CGT discount
	// holding period, highest unit price first within each group.
	OptimizeMaxDiscount OptimizationGoal = "maximize_cgt_discount"
)

// LotSelection identifies a lot by its acquisition transaction and the amount
// to consume from it.
type LotSelection struct {
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
}

// SpecificIdentificationCalculator consumes exactly the lots the caller
// identifies. When no selection was registered for a disposal it falls back
// to FindOptimalLots under the configured goal.
type SpecificIdentificationCalculator struct {
	goal        OptimizationGoal
	holdingDays int
	selections  map[string][]LotSelection // disposal transaction ID -> selections
}

func NewSpecificIdentificationCalculator(goal OptimizationGoal) *SpecificIdentificationCalculator {
	return &SpecificIdentificationCalculator{
		goal:        goal,
		holdingDays: 365,
		selections:  make(map[string][]LotSelection),
	}
}

func (c *SpecificIdentificationCalculator) Method() models.CostBasisMethod {
	return models.MethodSpecificID
}

// SetSelections registers the caller's lot choices for one disposal. They
// take precedence over the optimal-lot fallback and are validated in full.
func (c *SpecificIdentificationCalculator) SetSelections(disposalID string, selections []LotSelection) {
	c.selections[disposalID] = selections
}

func (c *SpecificIdentificationCalculator) Calculate(disposal models.Transaction, lots *LotManager) (*models.CostBasis, error) {
	selections, ok := c.selections[disposal.ID]
	if !ok {
		var err error
		selections, err = c.FindOptimalLots(disposal, lots, c.goal)
		if err != nil {
			return nil, err
		}
	}
	return c.calculate(disposal, lots, selections)
}

func (c *SpecificIdentificationCalculator) calculate(disposal models.Transaction, lots *LotManager, selections []LotSelection) (*models.CostBasis, error) {
	assetKey := AssetKey(disposal)
	amount := disposalAmount(disposal)

	// A rejected disposal leaves the manager untouched: validate every
	// selection, with amounts aggregated per lot, before consuming any.
	total := 0.0
	requested := make(map[string]float64, len(selections))
	for _, sel := range selections {
		if sel.Amount <= 0 {
			return nil, fmt.Errorf("%w: selection from lot %q must be positive, got %.8f",
				ErrInsufficientLotBalance, sel.TransactionID, sel.Amount)
		}
		lot := findRemainingLot(lots, assetKey, sel.TransactionID)
		if lot == nil {
			return nil, fmt.Errorf("%w: transaction %q is not an acquisition lot for %q",
				ErrInsufficientLotBalance, sel.TransactionID, assetKey)
		}
		requested[sel.TransactionID] += sel.Amount
		if requested[sel.TransactionID] > lot.Remaining+BalanceEpsilon {
			return nil, fmt.Errorf("%w: selections of %.8f exceed lot %q balance %.8f",
				ErrInsufficientLotBalance, requested[sel.TransactionID], sel.TransactionID, lot.Remaining)
		}
		total += sel.Amount
	}
	if math.Abs(total-amount) > BalanceEpsilon {
		return nil, fmt.Errorf("%w: selections sum to %.8f but disposal %q is for %.8f",
			ErrInsufficientLotBalance, total, disposal.ID, amount)
	}

	basis := &models.CostBasis{Method: models.MethodSpecificID}
	for _, sel := range selections {
		lot := findRemainingLot(lots, assetKey, sel.TransactionID)
		if err := consume(lots, basis, lot, sel.Amount, disposal.ID); err != nil {
			return nil, err
		}
	}
	return finalize(basis, disposal), nil
}

// FindOptimalLots pre-selects lots for a disposal by ordering the remaining
// candidates under the given goal and greedily consuming until the disposal
// amount is met. It does not mutate the manager.
func (c *SpecificIdentificationCalculator) FindOptimalLots(disposal models.Transaction, lots *LotManager, goal OptimizationGoal) ([]LotSelection, error) {
	assetKey := AssetKey(disposal)
	amount := disposalAmount(disposal)

	candidates := lots.RemainingLots(assetKey)
	ordered := make([]*models.AcquisitionLot, len(candidates))
	copy(ordered, candidates)

	switch goal {
	case OptimizeMinimizeGain:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].UnitPrice > ordered[j].UnitPrice
		})
	case OptimizeMaximizeLoss:
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].UnitPrice < ordered[j].UnitPrice
		})
	case OptimizeMaxDiscount:
		ref := disposal.Timestamp
		sort.SliceStable(ordered, func(i, j int) bool {
			di := ordered[i].HoldingDays(ref) >= c.holdingDays
			dj := ordered[j].HoldingDays(ref) >= c.holdingDays
			if di != dj {
				return di
			}
			return ordered[i].UnitPrice > ordered[j].UnitPrice
		})
	default:
		return nil, fmt.Errorf("unknown lot optimization goal %q", goal)
	}

	var selections []LotSelection
	remaining := amount
	for _, lot := range ordered {
		if remaining <= BalanceEpsilon {
			break
		}
		take := remaining
		if lot.Remaining < take {
			take = lot.Remaining
		}
		selections = append(selections, LotSelection{TransactionID: lot.TransactionID, Amount: take})
		remaining -= take
	}
	if remaining > BalanceEpsilon {
		return nil, fmt.Errorf("%w: disposal %q needs %.8f of %s, %.8f short",
			ErrInsufficientAcquisitionLots, disposal.ID, amount, assetKey, remaining)
	}
	return selections, nil
}

func findRemainingLot(lots *LotManager, assetKey, transactionID string) *models.AcquisitionLot {
	for _, lot := range lots.RemainingLots(assetKey) {
		if lot.TransactionID == transactionID {
			return lot
		}
	}
	return nil
}
