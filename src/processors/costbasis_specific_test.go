package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specificLots(t *testing.T) *LotManager {
	t.Helper()
	lots := NewLotManager()
	lots.AddLot(buyTx("cheap", date(2023, 1, 1), "BTC", 1, 40000))
	lots.AddLot(buyTx("dear", date(2024, 5, 1), "BTC", 1, 50000))
	return lots
}

func TestSpecificID_ExplicitSelections(t *testing.T) {
	lots := specificLots(t)
	calc := NewSpecificIdentificationCalculator(OptimizeMaxDiscount)
	calc.SetSelections("d1", []LotSelection{{TransactionID: "dear", Amount: 1}})

	basis, err := calc.Calculate(sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000), lots)
	require.NoError(t, err)

	assert.InDelta(t, 50000, basis.TotalCost, 1e-6)
	assert.Equal(t, date(2024, 5, 1), basis.AcquisitionDate)
	require.Len(t, basis.Lots, 1)
	assert.Equal(t, "dear", basis.Lots[0].TransactionID)
}

func TestSpecificID_SelectionValidation(t *testing.T) {
	calc := NewSpecificIdentificationCalculator(OptimizeMaxDiscount)
	disposal := sellTx("d1", date(2024, 6, 1), "BTC", 1, 60000)

	t.Run("not an acquisition lot", func(t *testing.T) {
		lots := specificLots(t)
		calc.SetSelections("d1", []LotSelection{{TransactionID: "nope", Amount: 1}})
		_, err := calc.Calculate(disposal, lots)
		assert.ErrorIs(t, err, ErrInsufficientLotBalance)
	})

	t.Run("exceeds lot balance", func(t *testing.T) {
		lots := specificLots(t)
		calc.SetSelections("d1", []LotSelection{{TransactionID: "cheap", Amount: 1.5}})
		_, err := calc.Calculate(disposal, lots)
		assert.ErrorIs(t, err, ErrInsufficientLotBalance)
	})

	t.Run("sum mismatch", func(t *testing.T) {
		lots := specificLots(t)
		calc.SetSelections("d1", []LotSelection{{TransactionID: "cheap", Amount: 0.7}})
		_, err := calc.Calculate(disposal, lots)
		assert.ErrorIs(t, err, ErrInsufficientLotBalance)
	})

	t.Run("duplicate selections exceeding one lot", func(t *testing.T) {
		// Two picks of 0.6 from a 1.0 lot pass any per-selection check but
		// overdraw the lot in aggregate; the rejection must leave the
		// manager untouched.
		lots := specificLots(t)
		calc.SetSelections("d2", []LotSelection{
			{TransactionID: "cheap", Amount: 0.6},
			{TransactionID: "cheap", Amount: 0.6},
		})
		_, err := calc.Calculate(sellTx("d2", date(2024, 6, 1), "BTC", 1.2, 72000), lots)
		assert.ErrorIs(t, err, ErrInsufficientLotBalance)
		assert.InDelta(t, 2.0, lots.RemainingBalance("BTC:kraken"), 1e-9)
		assert.Empty(t, lots.DisposalHistory())
	})

	t.Run("non-positive selection amount", func(t *testing.T) {
		lots := specificLots(t)
		calc.SetSelections("d1", []LotSelection{
			{TransactionID: "dear", Amount: -0.5},
			{TransactionID: "cheap", Amount: 1.5},
		})
		_, err := calc.Calculate(disposal, lots)
		assert.ErrorIs(t, err, ErrInsufficientLotBalance)
		assert.InDelta(t, 2.0, lots.RemainingBalance("BTC:kraken"), 1e-9)
	})

	t.Run("duplicate selections within balance succeed", func(t *testing.T) {
		lots := specificLots(t)
		calc.SetSelections("d1", []LotSelection{
			{TransactionID: "cheap", Amount: 0.4},
			{TransactionID: "cheap", Amount: 0.6},
		})
		basis, err := calc.Calculate(disposal, lots)
		require.NoError(t, err)
		assert.InDelta(t, 40000, basis.TotalCost, 1e-6)
		assert.InDelta(t, 1.0, lots.RemainingBalance("BTC:kraken"), 1e-9)
	})
}

func TestSpecificID_FindOptimalLots(t *testing.T) {
	disposal := sellTx("d1", date(2024, 6, 1), "BTC", 0.5, 30000)
	calc := NewSpecificIdentificationCalculator(OptimizeMaxDiscount)

	t.Run("minimize gain takes highest unit price", func(t *testing.T) {
		lots := specificLots(t)
		selections, err := calc.FindOptimalLots(disposal, lots, OptimizeMinimizeGain)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		assert.Equal(t, "dear", selections[0].TransactionID)
	})

	t.Run("maximize loss takes lowest unit price", func(t *testing.T) {
		lots := specificLots(t)
		selections, err := calc.FindOptimalLots(disposal, lots, OptimizeMaximizeLoss)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		assert.Equal(t, "cheap", selections[0].TransactionID)
	})

	t.Run("maximize discount prefers long-held lots", func(t *testing.T) {
		// "cheap" has been held over a year at the disposal date, "dear"
		// has not, so the discount ordering wins over unit price.
		lots := specificLots(t)
		selections, err := calc.FindOptimalLots(disposal, lots, OptimizeMaxDiscount)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		assert.Equal(t, "cheap", selections[0].TransactionID)
	})

	t.Run("insufficient lots", func(t *testing.T) {
		lots := specificLots(t)
		_, err := calc.FindOptimalLots(sellTx("d2", date(2024, 6, 1), "BTC", 5, 300000), lots, OptimizeMinimizeGain)
		assert.ErrorIs(t, err, ErrInsufficientAcquisitionLots)
	})

	t.Run("does not mutate the manager", func(t *testing.T) {
		lots := specificLots(t)
		_, err := calc.FindOptimalLots(disposal, lots, OptimizeMinimizeGain)
		require.NoError(t, err)
		assert.InDelta(t, 2.0, lots.RemainingBalance("BTC:kraken"), 1e-9)
	})
}

func TestSpecificID_FallsBackToOptimalLots(t *testing.T) {
	// No selections registered for the disposal: the configured goal decides.
	lots := specificLots(t)
	calc := NewSpecificIdentificationCalculator(OptimizeMinimizeGain)

	basis, err := calc.Calculate(sellTx("d9", date(2024, 6, 1), "BTC", 1, 60000), lots)
	require.NoError(t, err)
	require.Len(t, basis.Lots, 1)
	assert.Equal(t, "dear", basis.Lots[0].TransactionID)
}
