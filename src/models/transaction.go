package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TransactionType tags the normalized transaction variants produced by the
// ingestion layer.
type TransactionType string

const (
	TxSpotTrade         TransactionType = "spot_trade"
	TxTransfer          TransactionType = "transfer"
	TxStakingDeposit    TransactionType = "staking_deposit"
	TxStakingWithdrawal TransactionType = "staking_withdrawal"
	TxStakingReward     TransactionType = "staking_reward"
	TxSwap              TransactionType = "swap"
	TxLiquidityAdd      TransactionType = "liquidity_add"
	TxLiquidityRemove   TransactionType = "liquidity_remove"
	TxAirdrop           TransactionType = "airdrop"
	TxFee               TransactionType = "fee"
	TxLoan              TransactionType = "loan"
	TxInterest          TransactionType = "interest"
	TxMarginTrade       TransactionType = "margin_trade"
	TxFuturesTrade      TransactionType = "futures_trade"
	TxUnknown           TransactionType = "unknown"
)

// Transaction is one normalized ledger record. It is immutable once produced
// by the ingestion layer. Asset amounts are quantities of the asset; quote and
// fee amounts are denominated in the jurisdiction's fiat currency. For swaps
// the from leg carries the disposed quantity and the to leg the fiat value of
// the received side.
type Transaction struct {
	ID          string          `json:"id"`
	Timestamp   time.Time       `json:"timestamp"` // UTC
	Source      string          `json:"source"`    // originating exchange or wallet
	Type        TransactionType `json:"type"`
	BaseAsset   string          `json:"base_asset"`
	BaseAmount  float64         `json:"base_amount"` // signed: negative means outgoing
	QuoteAsset  string          `json:"quote_asset"`
	QuoteAmount float64         `json:"quote_amount"`
	FeeAsset    string          `json:"fee_asset"`
	FeeAmount   float64         `json:"fee_amount"`
	FromAsset   string          `json:"from_asset"`
	FromAmount  float64         `json:"from_amount"`
	ToAsset     string          `json:"to_asset"`
	ToAmount    float64         `json:"to_amount"`
	Description string          `json:"description"`
}

// HashID returns a stable content hash used for per-user deduplication when
// transactions are stored.
func (t Transaction) HashID() string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s|%.8f|%s|%.8f|%.8f",
		t.ID, t.Timestamp.UTC().Format(time.RFC3339), t.Source, t.Type,
		t.BaseAsset, t.BaseAmount, t.QuoteAsset, t.QuoteAmount, t.FeeAmount)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
