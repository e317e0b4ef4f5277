// Parser for Kraken ledger exports. A single trade appears as two ledger
// rows sharing a refid (the asset paid and the asset received), so rows
// are grouped by refid before being mapped to transactions.
package kraken

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/username/cryptotax/src/models"
)

type ledgerRow struct {
	TxID    string
	RefID   string
	Time    time.Time
	Type    string
	Subtype string
	Asset   string
	Amount  float64
	Fee     float64
}

type KrakenParser struct{}

func NewParser() *KrakenParser {
	return &KrakenParser{}
}

var assetAliases = map[string]string{
	"XXBT": "BTC",
	"XBT":  "BTC",
	"XETH": "ETH",
	"XXDG": "DOGE",
	"XDG":  "DOGE",
	"XXRP": "XRP",
	"XLTC": "LTC",
	"ZUSD": "USD",
	"ZEUR": "EUR",
	"ZGBP": "GBP",
	"ZAUD": "AUD",
	"ZCAD": "CAD",
	"ZJPY": "JPY",
}

var fiatAssets = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "AUD": true, "CAD": true, "JPY": true,
}

func normalizeAsset(asset string) string {
	asset = strings.ToUpper(strings.TrimSpace(asset))
	// Staked assets are suffixed, e.g. "DOT.S" or "ETH2.S".
	asset = strings.TrimSuffix(asset, ".S")
	asset = strings.TrimSuffix(asset, "2")
	if alias, ok := assetAliases[asset]; ok {
		return alias
	}
	return asset
}

func (p *KrakenParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.Trim(strings.TrimSpace(name), `"`))] = i
	}
	for _, required := range []string{"refid", "time", "type", "asset", "amount"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing required column '%s'", required)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read all CSV records: %w", err)
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	var rows []ledgerRow
	refOrder := []string{}
	byRef := make(map[string][]int)
	for _, record := range records {
		ts, err := time.Parse("2006-01-02 15:04:05", field(record, "time"))
		if err != nil {
			log.Printf("Skipping ledger row due to invalid time: %s", field(record, "time"))
			continue
		}
		amount, _ := strconv.ParseFloat(field(record, "amount"), 64)
		fee, _ := strconv.ParseFloat(field(record, "fee"), 64)
		row := ledgerRow{
			TxID:    field(record, "txid"),
			RefID:   field(record, "refid"),
			Time:    ts,
			Type:    strings.ToLower(field(record, "type")),
			Subtype: strings.ToLower(field(record, "subtype")),
			Asset:   normalizeAsset(field(record, "asset")),
			Amount:  amount,
			Fee:     fee,
		}
		if _, seen := byRef[row.RefID]; !seen {
			refOrder = append(refOrder, row.RefID)
		}
		byRef[row.RefID] = append(byRef[row.RefID], len(rows))
		rows = append(rows, row)
	}

	var txs []models.Transaction
	for _, refID := range refOrder {
		group := make([]ledgerRow, 0, len(byRef[refID]))
		for _, idx := range byRef[refID] {
			group = append(group, rows[idx])
		}
		tx, ok := mapLedgerGroup(refID, group)
		if !ok {
			continue
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func mapLedgerGroup(refID string, group []ledgerRow) (models.Transaction, bool) {
	first := group[0]
	tx := models.Transaction{
		ID:        first.TxID,
		Timestamp: first.Time,
		Source:    "kraken",
	}
	if tx.ID == "" {
		tx.ID = refID
	}

	switch first.Type {
	case "trade", "spend", "receive":
		var out, in *ledgerRow
		for i := range group {
			if group[i].Amount < 0 {
				out = &group[i]
			} else if group[i].Amount > 0 {
				in = &group[i]
			}
		}
		if out == nil || in == nil {
			log.Printf("Skipping unpaired trade ledger ref: %s", refID)
			return tx, false
		}
		feeAsset, feeAmount := groupFee(group)
		tx.FeeAsset, tx.FeeAmount = feeAsset, feeAmount

		switch {
		case fiatAssets[out.Asset]:
			// Buying crypto with fiat.
			tx.Type = models.TxSpotTrade
			tx.BaseAsset, tx.BaseAmount = in.Asset, in.Amount
			tx.QuoteAsset, tx.QuoteAmount = out.Asset, out.Amount
		case fiatAssets[in.Asset]:
			// Selling crypto for fiat.
			tx.Type = models.TxSpotTrade
			tx.BaseAsset, tx.BaseAmount = out.Asset, out.Amount
			tx.QuoteAsset, tx.QuoteAmount = in.Asset, in.Amount
		default:
			tx.Type = models.TxSwap
			tx.FromAsset, tx.FromAmount = out.Asset, -out.Amount
			tx.ToAsset, tx.ToAmount = in.Asset, in.Amount
		}
		return tx, true

	case "staking":
		tx.Type = models.TxStakingReward
		tx.BaseAsset, tx.BaseAmount = first.Asset, first.Amount
		tx.Description = "Kraken staking reward"
		return tx, true

	case "deposit", "withdrawal", "transfer":
		tx.Type = models.TxTransfer
		tx.BaseAsset, tx.BaseAmount = first.Asset, first.Amount
		tx.FeeAsset, tx.FeeAmount = groupFee(group)
		tx.Description = "Kraken " + first.Type
		return tx, true

	case "margin", "rollover", "settled":
		tx.Type = models.TxMarginTrade
		tx.BaseAsset, tx.BaseAmount = first.Asset, first.Amount
		tx.FeeAsset, tx.FeeAmount = groupFee(group)
		return tx, true

	default:
		tx.Type = models.TxUnknown
		tx.BaseAsset, tx.BaseAmount = first.Asset, first.Amount
		tx.Description = "Kraken ledger entry: " + first.Type
		return tx, true
	}
}

func groupFee(group []ledgerRow) (string, float64) {
	for _, row := range group {
		if row.Fee != 0 {
			return row.Asset, row.Fee
		}
	}
	return "", 0
}
