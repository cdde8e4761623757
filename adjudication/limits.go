/*
limits.go - Per-benefit limit allocation

PURPOSE:
  Computes the reimbursable portion of a covered item against the
  policy's per-benefit cap: full, partial, or zero.

ORDER DEPENDENCE:
  Allocation is sequential. Items are processed in invoice line-item
  order, each consuming from the same running total for its category, so
  the reimbursable amount for item k depends on the cumulative total of
  items 1..k-1. Reordering invoice line items changes which items get
  full vs partial vs zero reimbursement when the cap is exceeded
  mid-category.

INVARIANT:
  A limit amount of zero (or no matching limit entry) means unlimited,
  never "zero reimbursable".

SEE ALSO:
  - coverage.go: Keyword sets shared with the category gate
  - adjudicator.go: Maintains the per-category running totals
*/
package adjudication

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/policy"
)

// Allocation is the allocator's verdict for one covered item.
type Allocation struct {
	WithinLimit  bool
	Reimbursable decimal.Decimal
	Reason       string
}

// Allocate computes how much of itemAmount is reimbursable given what
// the category has already consumed. The caller advances the running
// total by the returned Reimbursable.
func Allocate(p *policy.Data, category claim.Category, itemAmount, runningTotal decimal.Decimal) Allocation {
	limit := limitFor(p, category)
	if limit == nil || limit.LimitAmount.IsZero() {
		return Allocation{WithinLimit: true, Reimbursable: itemAmount}
	}

	if runningTotal.Add(itemAmount).LessThanOrEqual(limit.LimitAmount) {
		return Allocation{WithinLimit: true, Reimbursable: itemAmount}
	}

	remaining := limit.LimitAmount.Sub(runningTotal)
	reimbursable := decimal.Max(decimal.Zero, remaining)
	shortfall := itemAmount.Sub(reimbursable)

	return Allocation{
		WithinLimit:  false,
		Reimbursable: reimbursable,
		Reason: fmt.Sprintf("Benefit limit %s (%s) reached: %s already used, %s remaining, %s of this item not reimbursable",
			limit.LimitAmount.String(), limit.BenefitName,
			runningTotal.String(), reimbursable.String(), shortfall.String()),
	}
}

// limitFor returns the coverage-limit entry whose benefit name matches
// the category's keyword set, or nil when the category is uncapped.
func limitFor(p *policy.Data, category claim.Category) *policy.CoverageLimit {
	keywords, ok := categoryBenefitKeywords[category]
	if !ok {
		return nil
	}
	for i := range p.Coverage.CoverageLimits {
		limit := &p.Coverage.CoverageLimits[i]
		if matchKeyword(limit.BenefitName, keywords) != "" {
			return limit
		}
	}
	return nil
}
