package models

import "time"

// TaxEventType is the tax character assigned to a transaction by the
// classifier.
type TaxEventType string

const (
	EventDisposal    TaxEventType = "DISPOSAL"
	EventAcquisition TaxEventType = "ACQUISITION"
	EventIncome      TaxEventType = "INCOME"
	EventDeductible  TaxEventType = "DEDUCTIBLE"
	EventNonTaxable  TaxEventType = "NON_TAXABLE"
)

// CostBasisMethod selects the lot accounting method for a report run.
type CostBasisMethod string

const (
	MethodFIFO       CostBasisMethod = "fifo"
	MethodSpecificID CostBasisMethod = "specific_id"
)

// TaxTreatment records how a single transaction is treated under the loaded
// jurisdiction. Invariants: IsPersonalUse implies !IsCGTEligible;
// CGTDiscountApplied implies IsCGTEligible and !IsPersonalUse; only
// DISPOSAL/ACQUISITION events are ever CGT-eligible.
type TaxTreatment struct {
	EventType          TaxEventType `json:"event_type"`
	Classification     string       `json:"classification"`
	IsPersonalUse      bool         `json:"is_personal_use"`
	IsCGTEligible      bool         `json:"is_cgt_eligible"`
	CGTDiscountApplied bool         `json:"cgt_discount_applied"`
	TreatmentReason    string       `json:"treatment_reason"`
	ApplicableRules    []string     `json:"applicable_rules,omitempty"`
}

// AcquisitionLot is one discrete acquisition tracked so later disposals can
// partially consume it. Remaining is mutated only by the lot manager's UseLot.
type AcquisitionLot struct {
	TransactionID string    `json:"transaction_id"`
	AssetKey      string    `json:"asset_key"` // asset:source
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	UnitPrice     float64   `json:"unit_price"`
	Fee           float64   `json:"fee"`
	Remaining     float64   `json:"remaining"`
}

// HoldingDays returns the number of whole days the lot has been held at the
// reference date.
func (l *AcquisitionLot) HoldingDays(ref time.Time) int {
	return DaysBetween(l.Date, ref)
}

// DaysBetween returns whole days from a to b, negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

// ConsumedLot records one lot's contribution to a disposal's cost basis.
type ConsumedLot struct {
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"date"`
	Amount        float64   `json:"amount"`
	UnitPrice     float64   `json:"unit_price"`
}

// CostBasis is the acquisition value attributed to one disposal. Produced
// once per disposal and never modified afterwards.
type CostBasis struct {
	Method            CostBasisMethod `json:"method"`
	AcquisitionDate   time.Time       `json:"acquisition_date"` // earliest consumed lot
	AcquisitionPrice  float64         `json:"acquisition_price"`
	AcquisitionFees   float64         `json:"acquisition_fees"`
	TotalCost         float64         `json:"total_cost"`
	HoldingPeriodDays int             `json:"holding_period_days"`
	Lots              []ConsumedLot   `json:"lots"`
}

// CapitalGainResult is the outcome of applying jurisdiction policy to one
// disposal. At most one of CapitalGain/CapitalLoss is positive.
type CapitalGainResult struct {
	DisposalValue     float64 `json:"disposal_value"`
	NetGainLoss       float64 `json:"net_gain_loss"`
	CapitalGain       float64 `json:"capital_gain"`
	CapitalLoss       float64 `json:"capital_loss"`
	TaxableGain       float64 `json:"taxable_gain"`
	DiscountApplied   bool    `json:"discount_applied"`
	PersonalUseExempt bool    `json:"personal_use_exempt"`
}

// TaxableTransaction wraps one original transaction with its treatment and,
// once computed, cost basis and gain. A disposal whose cost basis could not
// be computed keeps nil CostBasis/Gain and is reported as skipped.
type TaxableTransaction struct {
	Transaction      Transaction        `json:"transaction"`
	Treatment        TaxTreatment       `json:"treatment"`
	CostBasis        *CostBasis         `json:"cost_basis,omitempty"`
	Gain             *CapitalGainResult `json:"gain,omitempty"`
	IncomeAmount     float64            `json:"income_amount,omitempty"`
	DeductibleAmount float64            `json:"deductible_amount,omitempty"`
}

// CapitalGain returns the computed capital gain, zero for skipped or
// non-disposal transactions.
func (t *TaxableTransaction) CapitalGain() float64 {
	if t.Gain == nil {
		return 0
	}
	return t.Gain.CapitalGain
}

// CapitalLoss returns the computed capital loss, zero for skipped or
// non-disposal transactions.
func (t *TaxableTransaction) CapitalLoss() float64 {
	if t.Gain == nil {
		return 0
	}
	return t.Gain.CapitalLoss
}

// SkippedDisposal reports whether this is a disposal whose cost basis could
// not be matched against acquisition history.
func (t *TaxableTransaction) SkippedDisposal() bool {
	return t.Treatment.EventType == EventDisposal && t.Gain == nil
}

// TaxSummaryBucket accumulates per-key totals for the breakdown maps.
type TaxSummaryBucket struct {
	CapitalGains  float64 `json:"capital_gains"`
	CapitalLosses float64 `json:"capital_losses"`
	TaxableGains  float64 `json:"taxable_gains"`
	Income        float64 `json:"income"`
	Deductions    float64 `json:"deductions"`
	Disposals     int     `json:"disposals"`
}

// TaxSummary is the aggregate over one report run.
type TaxSummary struct {
	TotalCapitalGains  float64                      `json:"total_capital_gains"`
	TotalCapitalLosses float64                      `json:"total_capital_losses"`
	NetCapitalGain     float64                      `json:"net_capital_gain"`
	TotalTaxableGains  float64                      `json:"total_taxable_gains"`
	TotalIncome        float64                      `json:"total_income"`
	TotalDeductions    float64                      `json:"total_deductions"`
	TransactionCount   int                          `json:"transaction_count"`
	DisposalCount      int                          `json:"disposal_count"`
	SkippedDisposals   int                          `json:"skipped_disposals"`
	ByAsset            map[string]*TaxSummaryBucket `json:"by_asset"`
	ByExchange         map[string]*TaxSummaryBucket `json:"by_exchange"`
	ByMonth            map[string]*TaxSummaryBucket `json:"by_month"`
}

// StrategyType identifies one of the optimization engine's strategy kinds.
type StrategyType string

const (
	StrategyLossHarvesting StrategyType = "loss_harvesting"
	StrategyDiscountTiming StrategyType = "cgt_discount_timing"
	StrategyPersonalUse    StrategyType = "personal_use_classification"
	StrategyDisposalTiming StrategyType = "disposal_timing"
	StrategyLotSelection   StrategyType = "lot_selection"
)

// StrategyCompliance grades how defensible a strategy is.
type StrategyCompliance string

const (
	ComplianceSafe       StrategyCompliance = "SAFE"
	ComplianceModerate   StrategyCompliance = "MODERATE"
	ComplianceAggressive StrategyCompliance = "AGGRESSIVE"
)

// RiskTolerance is the caller's filter over strategy compliance levels.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "CONSERVATIVE"
	RiskModerate     RiskTolerance = "MODERATE"
	RiskAggressive   RiskTolerance = "AGGRESSIVE"
)

// TaxStrategy is one ranked recommendation from the optimization engine.
// Savings are estimates under an assumed marginal rate, not tax advice of
// record.
type TaxStrategy struct {
	Type             StrategyType       `json:"type"`
	Description      string             `json:"description"`
	PotentialSavings float64            `json:"potential_savings"`
	Implementation   []string           `json:"implementation"`
	Risks            []string           `json:"risks"`
	Compliance       StrategyCompliance `json:"compliance"`
	Priority         int                `json:"priority"` // 1 (low) .. 5 (high)
}
