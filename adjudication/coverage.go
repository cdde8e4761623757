/*
Package adjudication turns matching output into a financial decision.

PURPOSE:
  Applies policy rules to matched invoice line items: category coverage,
  exclusion matching, per-benefit limit allocation, and the final
  approve/reject/partial-approve decision with itemized reasoning.

PIPELINE POSITION:
  digitization → matching → adjudication (this package)

KEY CONCEPTS IN THIS FILE (coverage.go):
  - Coverage resolution: is this item reimbursable at all?
  - Prescription gate: medicines and lab tests must be prescribed
  - Exclusion matching: case-insensitive substring containment in either
    direction against the policy's excluded-condition phrases
  - Category gate: the policy must cover the item's class of service
  - Financial items: discount/tax lines bypass coverage entirely

MATCHING STRATEGY:
  Exclusion and category matching is deliberate substring containment:
  an explicit, testable text-matching strategy rather than a black box.

SEE ALSO:
  - limits.go: Per-benefit limit allocation
  - adjudicator.go: Drives all line items through both
*/
package adjudication

import (
	"fmt"
	"strings"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// KEYWORD SETS - Category gates and special item classes
// =============================================================================

// Benefit keywords gating each category. A category passes its gate when
// at least one covered-benefit name contains one of its keywords.
var categoryBenefitKeywords = map[claim.Category][]string{
	claim.CategoryMedicine: {"pharmacy", "medicine"},
	claim.CategoryLab:      {"diagnostic", "pathology", "radiology"},
}

// OTC product keywords. Items carrying these are over-the-counter
// products excluded for the medicine category.
var otcKeywords = []string{"supplement", "vitamin", "protein", "glucose", "horlicks", "whey"}

// Financial line-item keywords. These are billing adjustments, not
// medical services, and bypass coverage resolution entirely.
var financialKeywords = []string{"discount", "gst", "tax", "cgst", "sgst"}

// IsFinancialItem reports whether the named line item is a billing
// adjustment (discount, tax, GST). Financial items are always fully
// claimed and fully reimbursed.
func IsFinancialItem(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// =============================================================================
// COVERAGE RESOLUTION
// =============================================================================

// Coverage is the resolver's verdict for one item.
type Coverage struct {
	Covered bool
	Reason  string
}

// ResolveCoverage decides whether an invoice line item is reimbursable
// under the policy. Rules apply in order:
//
//  1. Medicines and lab tests must be prescribed
//  2. Exclusion phrases block any item, citing the phrase verbatim
//  3. The policy must cover the item's category at all
//  4. OTC products are rejected for medicines; procedure fees for others
//
// Financial items never reach this resolver (see IsFinancialItem).
func ResolveCoverage(p *policy.Data, itemName string, category claim.Category, isPrescriptionMatch bool) Coverage {
	if (category == claim.CategoryMedicine || category == claim.CategoryLab) && !isPrescriptionMatch {
		label := "Medicine"
		if category == claim.CategoryLab {
			label = "Lab test"
		}
		return Coverage{
			Covered: false,
			Reason:  fmt.Sprintf("%s %q is not prescribed in the prescription", label, itemName),
		}
	}

	if phrase, excluded := matchExclusion(p, itemName); excluded {
		return Coverage{
			Covered: false,
			Reason:  fmt.Sprintf("Item %q is excluded under policy: %q", itemName, phrase),
		}
	}

	benefits := p.Coverage.CoveredBenefits

	switch category {
	case claim.CategoryMedicine:
		if !hasBenefitKeyword(benefits, categoryBenefitKeywords[claim.CategoryMedicine]) {
			return Coverage{
				Covered: false,
				Reason:  fmt.Sprintf("Medicines are not covered under this policy. Covered benefits: %s", strings.Join(benefits, ", ")),
			}
		}
		if kw := matchKeyword(itemName, otcKeywords); kw != "" {
			return Coverage{
				Covered: false,
				Reason:  fmt.Sprintf("Item %q appears to be an OTC (over-the-counter) product which is not covered under policy exclusions", itemName),
			}
		}

	case claim.CategoryLab:
		if !hasBenefitKeyword(benefits, categoryBenefitKeywords[claim.CategoryLab]) {
			return Coverage{
				Covered: false,
				Reason:  fmt.Sprintf("Lab tests/Diagnostics are not covered under this policy. Covered benefits: %s", strings.Join(benefits, ", ")),
			}
		}

	case claim.CategoryOther:
		// No category gate, but procedure fees get a targeted reason.
		if kw := matchKeyword(itemName, []string{"procedure", "fee"}); kw != "" {
			return Coverage{
				Covered: false,
				Reason:  "Procedure fees are excluded under policy exclusions",
			}
		}
	}

	return Coverage{Covered: true}
}

// matchExclusion returns the first exclusion phrase that textually
// overlaps the item name: either string containing the other,
// case-insensitively.
func matchExclusion(p *policy.Data, itemName string) (string, bool) {
	itemLower := strings.ToLower(itemName)
	for _, exclusion := range p.Exclusions.ExcludedConditions {
		exclusionLower := strings.ToLower(exclusion)
		if strings.Contains(itemLower, exclusionLower) || strings.Contains(exclusionLower, itemLower) {
			return exclusion, true
		}
	}
	return "", false
}

func hasBenefitKeyword(benefits, keywords []string) bool {
	for _, b := range benefits {
		if matchKeyword(b, keywords) != "" {
			return true
		}
	}
	return false
}

func matchKeyword(s string, keywords []string) string {
	lower := strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return ""
}
