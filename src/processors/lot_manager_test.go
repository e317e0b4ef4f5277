package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/cryptotax/src/models"
)

func TestLotManager_AddLotDerivesUnitPrice(t *testing.T) {
	m := NewLotManager()

	lot := m.AddLot(buyTx("a1", date(2024, 1, 1), "BTC", 2, 80000))
	assert.Equal(t, "BTC:kraken", lot.AssetKey)
	assert.InDelta(t, 40000, lot.UnitPrice, 1e-9)
	assert.InDelta(t, 2, lot.Remaining, 1e-9)

	// Unpriced variants carry no unit price.
	reward := models.Transaction{
		ID: "r1", Timestamp: date(2024, 2, 1), Source: "kraken",
		Type: models.TxStakingReward, BaseAsset: "BTC", BaseAmount: 0.1,
	}
	assert.Zero(t, m.AddLot(reward).UnitPrice)
}

func TestLotManager_LotConservation(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("a1", date(2024, 1, 1), "BTC", 1, 40000))
	m.AddLot(buyTx("a2", date(2024, 2, 1), "BTC", 1, 50000))

	require.NoError(t, m.UseLot("BTC:kraken", "a1", 0.25, "d1"))
	require.NoError(t, m.UseLot("BTC:kraken", "a1", 0.50, "d2"))
	require.NoError(t, m.UseLot("BTC:kraken", "a2", 0.10, "d3"))

	consumed := 0.0
	for _, d := range m.DisposalHistory() {
		consumed += d.Amount
	}
	assert.InDelta(t, 2.0, m.RemainingBalance("BTC:kraken")+consumed, 1e-9)
}

func TestLotManager_OrderingAndStableTies(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("feb", date(2024, 2, 1), "BTC", 1, 50000))
	m.AddLot(buyTx("janA", date(2024, 1, 1), "BTC", 1, 40000))
	m.AddLot(buyTx("janB", date(2024, 1, 1), "BTC", 1, 41000))

	lots := m.RemainingLots("BTC:kraken")
	require.Len(t, lots, 3)
	assert.Equal(t, "janA", lots[0].TransactionID)
	assert.Equal(t, "janB", lots[1].TransactionID)
	assert.Equal(t, "feb", lots[2].TransactionID)
}

func TestLotManager_UseLotFailures(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("a1", date(2024, 1, 1), "BTC", 1, 40000))

	err := m.UseLot("BTC:kraken", "missing", 0.5, "d1")
	assert.ErrorIs(t, err, ErrInsufficientLotBalance)

	err = m.UseLot("BTC:kraken", "a1", 1.5, "d1")
	assert.ErrorIs(t, err, ErrInsufficientLotBalance)

	// Failures must not touch the balance or the history.
	assert.InDelta(t, 1.0, m.RemainingBalance("BTC:kraken"), 1e-9)
	assert.Empty(t, m.DisposalHistory())
}

func TestLotManager_EpsilonResidueFiltered(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("a1", date(2024, 1, 1), "BTC", 1, 40000))

	require.NoError(t, m.UseLot("BTC:kraken", "a1", 1-1e-9, "d1"))

	assert.Empty(t, m.RemainingLots("BTC:kraken"))
	assert.Zero(t, m.RemainingBalance("BTC:kraken"))
}

func TestLotManager_LotsByHoldingPeriod(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("old", date(2023, 1, 1), "BTC", 1, 30000))
	m.AddLot(buyTx("new", date(2024, 5, 1), "BTC", 1, 50000))

	eligible := m.LotsByHoldingPeriod("BTC:kraken", 365, date(2024, 6, 1))
	require.Len(t, eligible, 1)
	assert.Equal(t, "old", eligible[0].TransactionID)
}

func TestLotManager_ClearAndClearAsset(t *testing.T) {
	m := NewLotManager()
	m.AddLot(buyTx("a1", date(2024, 1, 1), "BTC", 1, 40000))
	m.AddLot(buyTx("a2", date(2024, 1, 1), "ETH", 10, 30000))
	require.NoError(t, m.UseLot("BTC:kraken", "a1", 0.5, "d1"))

	m.ClearAsset("BTC:kraken")
	assert.Zero(t, m.RemainingBalance("BTC:kraken"))
	assert.InDelta(t, 10, m.RemainingBalance("ETH:kraken"), 1e-9)

	m.Clear()
	assert.Zero(t, m.RemainingBalance("ETH:kraken"))
	assert.Empty(t, m.DisposalHistory())
}
