package models

import "time"

// ReportPhase names the orchestrator's state machine phases.
type ReportPhase string

const (
	PhaseIdle               ReportPhase = "idle"
	PhaseFilteringPeriod    ReportPhase = "filtering_period"
	PhaseClassifying        ReportPhase = "classifying"
	PhaseComputingCostBasis ReportPhase = "computing_cost_basis"
	PhaseAggregating        ReportPhase = "aggregating"
	PhaseOptimizing         ReportPhase = "optimizing"
	PhaseComplete           ReportPhase = "complete"
)

// Progress is emitted at chunk boundaries during a report run.
type Progress struct {
	Processed              int           `json:"processed"`
	Total                  int           `json:"total"`
	Phase                  ReportPhase   `json:"phase"`
	EstimatedTimeRemaining time.Duration `json:"estimated_time_remaining"`
}

// ProgressFunc receives progress events. It is called synchronously between
// chunks; long-running callbacks extend the pause between chunks.
type ProgressFunc func(Progress)

// ReportWarning flags a record the run could not fully process. The run still
// completes; consumers should surface these for manual review.
type ReportWarning struct {
	TransactionID string `json:"transaction_id"`
	Code          string `json:"code"`
	Message       string `json:"message"`
}

// Warning codes attached to ReportWarning entries.
const (
	WarnUnclassified    = "unclassified_transaction"
	WarnSkippedDisposal = "skipped_disposal"
)

// TaxReport is the full output of one report run.
type TaxReport struct {
	RunID            string                `json:"run_id"`
	JurisdictionCode string                `json:"jurisdiction_code"`
	TaxYear          int                   `json:"tax_year"`
	PeriodStart      time.Time             `json:"period_start"`
	PeriodEnd        time.Time             `json:"period_end"` // exclusive
	Method           CostBasisMethod       `json:"method"`
	Transactions     []*TaxableTransaction `json:"transactions"`
	Summary          *TaxSummary           `json:"summary"`
	Strategies       []TaxStrategy         `json:"strategies,omitempty"`
	Warnings         []ReportWarning       `json:"warnings,omitempty"`
	GeneratedAt      time.Time             `json:"generated_at"`
}
