// Parser for the normalized CSV export format. Columns are matched by
// header name, so column order and extra columns do not matter.
package generic

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/username/cryptotax/src/models"
	"github.com/username/cryptotax/src/security/validation"
	"github.com/username/cryptotax/src/utils"
)

type GenericParser struct{}

func NewParser() *GenericParser {
	return &GenericParser{}
}

var knownTypes = map[string]models.TransactionType{
	"spot_trade":         models.TxSpotTrade,
	"transfer":           models.TxTransfer,
	"staking_deposit":    models.TxStakingDeposit,
	"staking_withdrawal": models.TxStakingWithdrawal,
	"staking_reward":     models.TxStakingReward,
	"swap":               models.TxSwap,
	"liquidity_add":      models.TxLiquidityAdd,
	"liquidity_remove":   models.TxLiquidityRemove,
	"airdrop":            models.TxAirdrop,
	"fee":                models.TxFee,
	"loan":               models.TxLoan,
	"interest":           models.TxInterest,
	"margin_trade":       models.TxMarginTrade,
	"futures_trade":      models.TxFuturesTrade,
}

func (p *GenericParser) Parse(file io.Reader) ([]models.Transaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["timestamp"]; !ok {
		return nil, fmt.Errorf("missing required column 'timestamp'")
	}
	if _, ok := col["type"]; !ok {
		return nil, fmt.Errorf("missing required column 'type'")
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
	amount := func(record []string, name string) float64 {
		raw := field(record, name)
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
		if err != nil {
			return 0
		}
		return v
	}

	var txs []models.Transaction
	for _, record := range records {
		ts := utils.ParseTimestamp(field(record, "timestamp"))
		if ts.IsZero() {
			log.Printf("Skipping row due to invalid timestamp: %s", field(record, "timestamp"))
			continue
		}

		txType, ok := knownTypes[strings.ToLower(field(record, "type"))]
		if !ok {
			txType = models.TxUnknown
		}

		tx := models.Transaction{
			ID:          field(record, "id"),
			Timestamp:   ts,
			Source:      strings.ToLower(field(record, "source")),
			Type:        txType,
			BaseAsset:   strings.ToUpper(field(record, "base_asset")),
			BaseAmount:  amount(record, "base_amount"),
			QuoteAsset:  strings.ToUpper(field(record, "quote_asset")),
			QuoteAmount: amount(record, "quote_amount"),
			FeeAsset:    strings.ToUpper(field(record, "fee_asset")),
			FeeAmount:   amount(record, "fee_amount"),
			FromAsset:   strings.ToUpper(field(record, "from_asset")),
			FromAmount:  amount(record, "from_amount"),
			ToAsset:     strings.ToUpper(field(record, "to_asset")),
			ToAmount:    amount(record, "to_amount"),
			Description: validation.SanitizeDescription(field(record, "description")),
		}
		if tx.Source == "" {
			tx.Source = "generic"
		}
		if tx.ID == "" {
			tx.ID = tx.HashID()
		}
		txs = append(txs, tx)
	}

	return txs, nil
}
