package processors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/cryptotax/src/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func auJurisdiction(t *testing.T) *models.TaxJurisdiction {
	t.Helper()
	j, err := models.GetJurisdiction("AU")
	require.NoError(t, err)
	return j
}

// buyTx is a spot purchase of amount units for totalCost in fiat.
func buyTx(id string, ts time.Time, asset string, amount, totalCost float64) models.Transaction {
	return models.Transaction{
		ID:          id,
		Timestamp:   ts,
		Source:      "kraken",
		Type:        models.TxSpotTrade,
		BaseAsset:   asset,
		BaseAmount:  amount,
		QuoteAsset:  "AUD",
		QuoteAmount: -totalCost,
	}
}

// sellTx is a spot disposal of amount units for proceeds in fiat.
func sellTx(id string, ts time.Time, asset string, amount, proceeds float64) models.Transaction {
	return models.Transaction{
		ID:          id,
		Timestamp:   ts,
		Source:      "kraken",
		Type:        models.TxSpotTrade,
		BaseAsset:   asset,
		BaseAmount:  -amount,
		QuoteAsset:  "AUD",
		QuoteAmount: proceeds,
	}
}
