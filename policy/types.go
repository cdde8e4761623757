/*
Package policy provides the static catalog of insurance policy terms.

PURPOSE:
  Policies are immutable reference data keyed by name. The catalog is the
  single source of coverage rules consumed by adjudication: covered
  benefits, per-benefit limits, exclusion phrases, and the coverage window.

KEY CONCEPTS:
  - Data: The complete terms for one policy
  - CoverageLimit: A per-benefit cap; a zero LimitAmount means "no cap",
    never "zero reimbursable"
  - Exclusions: Free-text excluded-condition phrases matched by substring

SEE ALSO:
  - catalog.go: Name-normalizing lookup
  - niva_bupa.go, aditya_birla.go: Built-in policy data
*/
package policy

import "github.com/shopspring/decimal"

// =============================================================================
// POLICY DATA - Immutable terms for one policy
// =============================================================================

type BasicInfo struct {
	PolicyNumber     string          `json:"policy_number"`
	PolicyType       string          `json:"policy_type"`
	PolicyholderName string          `json:"policyholder_name"`
	InsurerName      string          `json:"insurer_name"`
	PolicyStartDate  string          `json:"policy_start_date"`
	PolicyEndDate    string          `json:"policy_end_date"`
	SumInsured       decimal.Decimal `json:"sum_insured"`
}

// CoverageLimit caps reimbursement for one benefit.
// INVARIANT: LimitAmount zero means unlimited.
type CoverageLimit struct {
	BenefitName   string          `json:"benefit_name"`
	LimitAmount   decimal.Decimal `json:"limit_amount"`
	LimitType     string          `json:"limit_type"`
	IsSubLimit    bool            `json:"is_sub_limit"`
	ParentBenefit string          `json:"parent_benefit,omitempty"`
}

type Coverage struct {
	CoveredBenefits []string        `json:"covered_benefits"`
	CoverageLimits  []CoverageLimit `json:"coverage_limits"`
}

type WaitingPeriod struct {
	Condition     string `json:"condition"`
	WaitingPeriod string `json:"waiting_period"`
}

type Exclusions struct {
	ExcludedConditions []string        `json:"excluded_conditions"`
	WaitingPeriods     []WaitingPeriod `json:"waiting_periods"`
}

// Terms carries financial terms. Currently unused by the decision logic
// but part of the policy schema.
type Terms struct {
	Deductible       decimal.Decimal `json:"deductible"`
	CoPayment        decimal.Decimal `json:"co_payment"`
	PremiumAmount    decimal.Decimal `json:"premium_amount"`
	PremiumFrequency string          `json:"premium_frequency"`
}

type Synopsis struct {
	KeyPoints      []string `json:"key_points"`
	ImportantNotes []string `json:"important_notes"`
}

// Data is the complete ruleset for one policy.
type Data struct {
	BasicInfo  BasicInfo  `json:"policy_basic_info"`
	Coverage   Coverage   `json:"policy_coverage"`
	Exclusions Exclusions `json:"policy_exclusions"`
	Terms      Terms      `json:"policy_terms"`
	Synopsis   Synopsis   `json:"policy_synopsis"`
}
