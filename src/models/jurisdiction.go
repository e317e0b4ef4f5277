package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedJurisdiction is returned when no rule set exists for a
// requested jurisdiction code. Fatal to a report load.
var ErrUnsupportedJurisdiction = errors.New("unsupported tax jurisdiction")

// TaxRuleCategory maps a rule onto the tax event types it can apply to.
type TaxRuleCategory string

const (
	RuleCategoryCapitalGains TaxRuleCategory = "capital_gains"
	RuleCategoryIncome       TaxRuleCategory = "income"
	RuleCategoryExemption    TaxRuleCategory = "exemption"
	RuleCategoryDeduction    TaxRuleCategory = "deduction"
)

// TaxRule is one jurisdiction rule the classifier can attach to a treatment.
// TransactionKeywords are matched case-insensitively as substrings of the
// classification string; an empty list matches every transaction of the
// rule's category.
type TaxRule struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Category            TaxRuleCategory `json:"category"`
	TransactionKeywords []string        `json:"transaction_keywords,omitempty"`
	Description         string          `json:"description,omitempty"`
}

// ClassificationRule is one row of the classifier's ordered keyword table.
// Rules are evaluated highest priority first, first match wins; the
// amount-sign fallback applies when no rule matches.
type ClassificationRule struct {
	Priority  int          `json:"priority"`
	EventType TaxEventType `json:"event_type"`
	Keywords  []string     `json:"keywords"`
}

// TaxJurisdiction is the read-only rule configuration for one report run.
type TaxJurisdiction struct {
	Code                 string               `json:"code"`
	Name                 string               `json:"name"`
	TaxYearStartMonth    time.Month           `json:"tax_year_start_month"`
	TaxYearStartDay      int                  `json:"tax_year_start_day"`
	CGTDiscountRate      float64              `json:"cgt_discount_rate"`
	CGTHoldingPeriodDays int                  `json:"cgt_holding_period_days"`
	PersonalUseThreshold float64              `json:"personal_use_threshold"`
	SupportedMethods     []CostBasisMethod    `json:"supported_methods"`
	Rules                []TaxRule            `json:"rules"`
	ClassificationRules  []ClassificationRule `json:"classification_rules,omitempty"`
}

// SupportsMethod reports whether the jurisdiction admits the given cost-basis
// method.
func (j *TaxJurisdiction) SupportsMethod(m CostBasisMethod) bool {
	for _, s := range j.SupportedMethods {
		if s == m {
			return true
		}
	}
	return false
}

// TaxYearBounds returns the [start, end) boundaries of the tax year ending in
// the given calendar year. For Australia, year 2025 means 1 July 2024 to
// 30 June 2025.
func (j *TaxJurisdiction) TaxYearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, j.TaxYearStartMonth, j.TaxYearStartDay, 0, 0, 0, 0, time.UTC)
	if !(j.TaxYearStartMonth == time.January && j.TaxYearStartDay == 1) {
		start = start.AddDate(-1, 0, 0)
	}
	return start, start.AddDate(1, 0, 0)
}

// TaxYearEndFor returns the exclusive end boundary of the tax year containing
// the given date. Used by disposal-timing analysis.
func (j *TaxJurisdiction) TaxYearEndFor(date time.Time) time.Time {
	end := time.Date(date.Year(), j.TaxYearStartMonth, j.TaxYearStartDay, 0, 0, 0, 0, time.UTC)
	if !end.After(date) {
		end = end.AddDate(1, 0, 0)
	}
	return end
}

var jurisdictions = map[string]*TaxJurisdiction{
	"AU": australianJurisdiction(),
}

// GetJurisdiction loads the rule set for a jurisdiction code. The returned
// configuration is shared and must be treated as read-only.
func GetJurisdiction(code string) (*TaxJurisdiction, error) {
	j, ok := jurisdictions[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedJurisdiction, code)
	}
	return j, nil
}

func australianJurisdiction() *TaxJurisdiction {
	return &TaxJurisdiction{
		Code:                 "AU",
		Name:                 "Australia",
		TaxYearStartMonth:    time.July,
		TaxYearStartDay:      1,
		CGTDiscountRate:      0.5,
		CGTHoldingPeriodDays: 365,
		PersonalUseThreshold: 10000,
		SupportedMethods:     []CostBasisMethod{MethodFIFO, MethodSpecificID},
		Rules: []TaxRule{
			{
				ID:                  "au_cgt_event_a1",
				Name:                "CGT event A1 (disposal of a CGT asset)",
				Category:            RuleCategoryCapitalGains,
				TransactionKeywords: []string{"disposal", "sale", "trade", "swap"},
				Description:         "Disposing of a crypto asset triggers a CGT event; the gain or loss is the capital proceeds less the cost base.",
			},
			{
				ID:          "au_cgt_discount",
				Name:        "12-month CGT discount",
				Category:    RuleCategoryCapitalGains,
				Description: "Individuals reduce a capital gain by 50% when the asset was held for at least 12 months before the CGT event.",
			},
			{
				ID:          "au_personal_use",
				Name:        "Personal use asset exemption",
				Category:    RuleCategoryExemption,
				Description: "Capital gains on personal use assets acquired for less than $10,000 are disregarded.",
			},
			{
				ID:                  "au_ordinary_income",
				Name:                "Ordinary income from crypto activities",
				Category:            RuleCategoryIncome,
				TransactionKeywords: []string{"staking", "reward", "airdrop", "interest", "mining"},
				Description:         "Staking rewards, airdrops and interest are assessable as ordinary income at their market value when received.",
			},
			{
				ID:                  "au_deductible_costs",
				Name:                "Deductible transaction costs",
				Category:            RuleCategoryDeduction,
				TransactionKeywords: []string{"fee", "cost", "expense"},
				Description:         "Fees and incidental costs are deductible or form part of the cost base depending on their character.",
			},
		},
	}
}
