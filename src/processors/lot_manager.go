package processors

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/username/cryptotax/src/models"
)

// BalanceEpsilon tolerates floating-point residue left behind by repeated
// partial consumption of a lot.
const BalanceEpsilon = 1e-6

// LotDisposal is one entry of the manager's disposal history log.
type LotDisposal struct {
	ID               string  `json:"id"`
	AssetKey         string  `json:"asset_key"`
	LotTransactionID string  `json:"lot_transaction_id"`
	DisposalID       string  `json:"disposal_id"`
	Amount           float64 `json:"amount"`
}

// LotManager tracks acquisition lots per asset key (asset:source) with
// remaining balances. It is caller-owned and designed for single-threaded
// sequential use within one report run; concurrent runs must each own their
// own instance.
type LotManager struct {
	lots    map[string][]*models.AcquisitionLot // oldest-first per key
	history []LotDisposal
}

func NewLotManager() *LotManager {
	return &LotManager{lots: make(map[string][]*models.AcquisitionLot)}
}

// AssetKey returns the lot inventory key for a transaction.
func AssetKey(tx models.Transaction) string {
	return models.AssetSymbol(tx) + ":" + tx.Source
}

// AddLot creates a lot from an acquisition transaction and inserts it keeping
// the per-asset sequence ordered oldest-first. Lots acquired at the same date
// keep their insertion order, which is the tie-break FIFO relies on.
func (m *LotManager) AddLot(tx models.Transaction) *models.AcquisitionLot {
	amount := math.Abs(models.CanonicalAmount(tx))
	unitPrice := 0.0
	if models.IsPricedTrade(tx.Type) && amount > 0 {
		unitPrice = math.Abs(tx.QuoteAmount) / amount
	}
	lot := &models.AcquisitionLot{
		TransactionID: tx.ID,
		AssetKey:      AssetKey(tx),
		Date:          tx.Timestamp,
		Amount:        amount,
		UnitPrice:     unitPrice,
		Fee:           models.FeeValue(tx),
		Remaining:     amount,
	}

	seq := m.lots[lot.AssetKey]
	i := sort.Search(len(seq), func(i int) bool { return seq[i].Date.After(lot.Date) })
	seq = append(seq, nil)
	copy(seq[i+1:], seq[i:])
	seq[i] = lot
	m.lots[lot.AssetKey] = seq
	return lot
}

// UseLot consumes amount from the identified lot and appends a disposal
// record. This is the sole mutator of a lot's remaining balance.
func (m *LotManager) UseLot(assetKey, lotTransactionID string, amount float64, disposalID string) error {
	lot := m.findLot(assetKey, lotTransactionID)
	if lot == nil {
		return fmt.Errorf("%w: transaction %q is not an acquisition lot for %q",
			ErrInsufficientLotBalance, lotTransactionID, assetKey)
	}
	if amount > lot.Remaining+BalanceEpsilon {
		return fmt.Errorf("%w: lot %q has %.8f remaining, requested %.8f",
			ErrInsufficientLotBalance, lotTransactionID, lot.Remaining, amount)
	}
	lot.Remaining -= amount
	if lot.Remaining < 0 {
		lot.Remaining = 0
	}
	m.history = append(m.history, LotDisposal{
		ID:               uuid.NewString(),
		AssetKey:         assetKey,
		LotTransactionID: lotTransactionID,
		DisposalID:       disposalID,
		Amount:           amount,
	})
	return nil
}

// RemainingLots returns the lots with a meaningful remaining balance for an
// asset key, oldest first. The returned slice is a copy but the lots are the
// live ones; callers must not mutate them directly.
func (m *LotManager) RemainingLots(assetKey string) []*models.AcquisitionLot {
	var out []*models.AcquisitionLot
	for _, lot := range m.lots[assetKey] {
		if lot.Remaining > BalanceEpsilon {
			out = append(out, lot)
		}
	}
	return out
}

// RemainingBalance sums the remaining amounts for an asset key.
func (m *LotManager) RemainingBalance(assetKey string) float64 {
	total := 0.0
	for _, lot := range m.lots[assetKey] {
		if lot.Remaining > BalanceEpsilon {
			total += lot.Remaining
		}
	}
	return total
}

// LotsByHoldingPeriod returns the remaining lots held at least minDays at the
// reference date. Supports the optimizer's discount-timing analysis.
func (m *LotManager) LotsByHoldingPeriod(assetKey string, minDays int, reference time.Time) []*models.AcquisitionLot {
	var out []*models.AcquisitionLot
	for _, lot := range m.RemainingLots(assetKey) {
		if lot.HoldingDays(reference) >= minDays {
			out = append(out, lot)
		}
	}
	return out
}

// DisposalHistory returns the log of every UseLot call made on this manager.
func (m *LotManager) DisposalHistory() []LotDisposal {
	return m.history
}

// ClearAsset evicts all lots for one asset key.
func (m *LotManager) ClearAsset(assetKey string) {
	delete(m.lots, assetKey)
}

// Clear evicts every lot and the disposal history.
func (m *LotManager) Clear() {
	m.lots = make(map[string][]*models.AcquisitionLot)
	m.history = nil
}

func (m *LotManager) findLot(assetKey, lotTransactionID string) *models.AcquisitionLot {
	for _, lot := range m.lots[assetKey] {
		if lot.TransactionID == lotTransactionID {
			return lot
		}
	}
	return nil
}
