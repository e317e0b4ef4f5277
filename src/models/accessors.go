package models

// Read-only accessors over the transaction variants. Every accessor switches
// exhaustively on the type tag; a new TransactionType must be added to each
// switch below or the accessor will fall through to the unknown-variant
// behaviour, which the classifier surfaces as a warning.

// AssetSymbol returns the canonical asset symbol a transaction acts on.
func AssetSymbol(tx Transaction) string {
	switch tx.Type {
	case TxSwap:
		return tx.FromAsset
	case TxLiquidityAdd, TxLiquidityRemove:
		if tx.FromAsset != "" {
			return tx.FromAsset
		}
		return tx.BaseAsset
	case TxSpotTrade, TxTransfer, TxStakingDeposit, TxStakingWithdrawal,
		TxStakingReward, TxAirdrop, TxFee, TxLoan, TxInterest,
		TxMarginTrade, TxFuturesTrade, TxUnknown:
		return tx.BaseAsset
	}
	return tx.BaseAsset
}

// CanonicalAmount returns the signed quantity of the canonical asset moved by
// the transaction. Negative means the asset leaves the holder (disposal
// direction), positive means it arrives.
func CanonicalAmount(tx Transaction) float64 {
	switch tx.Type {
	case TxSwap:
		if tx.FromAmount > 0 {
			return -tx.FromAmount
		}
		return tx.FromAmount
	case TxLiquidityAdd, TxLiquidityRemove:
		if tx.FromAmount != 0 {
			return tx.FromAmount
		}
		return tx.BaseAmount
	case TxSpotTrade, TxTransfer, TxStakingDeposit, TxStakingWithdrawal,
		TxStakingReward, TxAirdrop, TxFee, TxLoan, TxInterest,
		TxMarginTrade, TxFuturesTrade, TxUnknown:
		return tx.BaseAmount
	}
	return tx.BaseAmount
}

// FeeValue returns the fiat fee attached to the transaction.
func FeeValue(tx Transaction) float64 {
	if tx.FeeAmount < 0 {
		return -tx.FeeAmount
	}
	return tx.FeeAmount
}

// IsDisposal reports whether the transaction moves the canonical asset out of
// the holder's possession.
func IsDisposal(tx Transaction) bool {
	return CanonicalAmount(tx) < 0
}

// IsAcquisition reports whether the transaction brings the canonical asset in.
func IsAcquisition(tx Transaction) bool {
	return CanonicalAmount(tx) > 0
}

// IsPricedTrade reports whether the variant carries an explicit quote value,
// which the lot manager uses to derive a unit price.
func IsPricedTrade(t TransactionType) bool {
	switch t {
	case TxSpotTrade, TxMarginTrade, TxFuturesTrade:
		return true
	}
	return false
}
