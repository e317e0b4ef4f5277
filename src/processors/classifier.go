package processors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/username/cryptotax/src/models"
)

// Default classification rule table. Semantic keywords deliberately outrank
// the amount-sign fallback: sign alone cannot tell a staking reward (positive,
// income) from a purchase (positive, acquisition). Jurisdictions may override
// the table wholesale via TaxJurisdiction.ClassificationRules.
var defaultClassificationRules = []models.ClassificationRule{
	{
		Priority:  30,
		EventType: models.EventIncome,
		Keywords: []string{
			"staking", "reward", "mining", "airdrop", "interest",
			"dividend", "cashback", "referral", "bonus",
		},
	},
	{
		Priority:  20,
		EventType: models.EventDeductible,
		Keywords:  []string{"fee", "cost", "expense"},
	},
	{
		Priority:  10,
		EventType: models.EventNonTaxable,
		Keywords:  []string{"transfer", "deposit", "withdrawal", "internal"},
	},
}

// Classifier assigns a tax event type and classification string to each
// transaction under one jurisdiction's rule set. Stateless and safe for
// reuse across a run.
type Classifier struct {
	jurisdiction *models.TaxJurisdiction
	rules        []models.ClassificationRule
}

func NewClassifier(jurisdiction *models.TaxJurisdiction) *Classifier {
	rules := jurisdiction.ClassificationRules
	if len(rules) == 0 {
		rules = defaultClassificationRules
	}
	ordered := make([]models.ClassificationRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})
	return &Classifier{jurisdiction: jurisdiction, rules: ordered}
}

// Classify determines the tax treatment of one transaction. It never fails:
// unclassifiable input degrades to NON_TAXABLE so a malformed record cannot
// block a batch. The report generator surfaces that degradation as a warning.
func (c *Classifier) Classify(tx models.Transaction, personalUse bool) models.TaxTreatment {
	matchable := strings.ToLower(
		strings.ReplaceAll(string(tx.Type), "_", " ") + " " + tx.Description)

	var eventType models.TaxEventType
	var reason string
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(matchable, kw) {
				eventType = rule.EventType
				reason = fmt.Sprintf("keyword %q matched %s rule", kw, rule.EventType)
				break
			}
		}
		if eventType != "" {
			break
		}
	}

	if eventType == "" {
		amount := models.CanonicalAmount(tx)
		switch {
		case amount < 0:
			eventType = models.EventDisposal
			reason = "no keyword match; negative canonical amount"
		case amount > 0:
			eventType = models.EventAcquisition
			reason = "no keyword match; positive canonical amount"
		default:
			eventType = models.EventNonTaxable
			reason = "no keyword match and zero canonical amount"
		}
	}

	classification := classificationLabel(tx, eventType)
	eligible := (eventType == models.EventDisposal || eventType == models.EventAcquisition) && !personalUse

	return models.TaxTreatment{
		EventType:       eventType,
		Classification:  classification,
		IsPersonalUse:   personalUse,
		IsCGTEligible:   eligible,
		TreatmentReason: reason,
		ApplicableRules: c.applicableRules(eventType, classification),
	}
}

// applicableRules filters the jurisdiction's rule set down to the rules whose
// category maps onto the event type and whose keywords (if any) appear in the
// classification string.
func (c *Classifier) applicableRules(eventType models.TaxEventType, classification string) []string {
	lowered := strings.ToLower(classification)
	var ids []string
	for _, rule := range c.jurisdiction.Rules {
		if !ruleCategoryMatches(rule.Category, eventType) {
			continue
		}
		if len(rule.TransactionKeywords) == 0 {
			ids = append(ids, rule.ID)
			continue
		}
		for _, kw := range rule.TransactionKeywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				ids = append(ids, rule.ID)
				break
			}
		}
	}
	return ids
}

func ruleCategoryMatches(category models.TaxRuleCategory, eventType models.TaxEventType) bool {
	switch category {
	case models.RuleCategoryCapitalGains:
		return eventType == models.EventDisposal || eventType == models.EventAcquisition
	case models.RuleCategoryIncome:
		return eventType == models.EventIncome
	case models.RuleCategoryDeduction:
		return eventType == models.EventDeductible
	case models.RuleCategoryExemption:
		return eventType == models.EventDisposal
	}
	return false
}

func classificationLabel(tx models.Transaction, eventType models.TaxEventType) string {
	switch tx.Type {
	case models.TxSpotTrade:
		if models.IsDisposal(tx) {
			return "Spot trade disposal"
		}
		return "Spot trade acquisition"
	case models.TxTransfer:
		return "Internal transfer"
	case models.TxStakingDeposit:
		return "Staking deposit"
	case models.TxStakingWithdrawal:
		return "Staking withdrawal"
	case models.TxStakingReward:
		return "Staking reward"
	case models.TxSwap:
		return "Crypto-to-crypto swap disposal"
	case models.TxLiquidityAdd:
		return "Liquidity pool deposit"
	case models.TxLiquidityRemove:
		return "Liquidity pool withdrawal"
	case models.TxAirdrop:
		return "Airdrop"
	case models.TxFee:
		return "Network fee"
	case models.TxLoan:
		return "Loan principal movement"
	case models.TxInterest:
		return "Interest"
	case models.TxMarginTrade:
		if models.IsDisposal(tx) {
			return "Margin trade disposal"
		}
		return "Margin trade acquisition"
	case models.TxFuturesTrade:
		if models.IsDisposal(tx) {
			return "Futures trade disposal"
		}
		return "Futures trade acquisition"
	case models.TxUnknown:
		return "Unclassified transaction"
	}
	return fmt.Sprintf("Unclassified %s event", strings.ToLower(string(eventType)))
}
