/*
adjudicator.go - The adjudication aggregator

PURPOSE:
  Drives every invoice line item through coverage resolution and limit
  allocation, collects rejection reasons, sums claimed/reimbursable
  totals, and renders the final decision plus explanation.

DECISION RULE:
  approved = totalReimbursableAmount > 0 AND no blocking reason
  (policyNotFound, policyNotActive, invoiceBeforePolicyDate) is present.
  A claim with zero reimbursable amount is never approved, even with no
  explicit reason; any positive reimbursable amount is an approval.
  Full and partial approvals are the same outcome class, distinguished
  by the explanation text.

DETERMINISM:
  The function is deterministic given fixed inputs and clock. The clock
  is injectable and affects only the temporal-validity check.

SEE ALSO:
  - coverage.go: Per-item coverage resolution
  - limits.go: Running-total limit allocation
  - explanation.go: Human-readable explanation rendering
*/
package adjudication

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// ADJUDICATOR
// =============================================================================

// Adjudicator evaluates matched claims against policy terms.
type Adjudicator struct {
	// Now supplies the clock for temporal-validity checks.
	Now func() time.Time

	Log zerolog.Logger
}

func NewAdjudicator(log zerolog.Logger) *Adjudicator {
	return &Adjudicator{Now: time.Now, Log: log.With().Str("component", "adjudication").Logger()}
}

// Mapping from invoice reimbursement-type labels to policy benefit names.
var benefitMapping = map[string][]string{
	"Prescribed Medicines":   {"Prescribed pharmacy (Allopathic only)", "Prescribed Pharmacy"},
	"Prescribed Diagnostics": {"Prescribed diagnostics (Pathology & Radiology)", "Prescribed Diagnostics"},
	"Consultation":           {"Doctor consultations (General Physician, Specialist, Super Specialist - Allopathic)", "GP/Specialist Consultation"},
	"Dental":                 {"Dental - except Cosmetic", "Dental Procedure"},
	"Vision":                 {"Vision including Prescription lens and Frames cover", "Vision Procedure"},
}

var categoryReasonTitles = map[claim.Category]string{
	claim.CategoryMedicine: "Medicines not covered under policy",
	claim.CategoryLab:      "Lab tests not covered under policy",
	claim.CategoryOther:    "Services not covered under policy",
}

// Adjudicate applies the policy to the digitized claim and its match
// results. It never returns an error: an unresolvable policy produces a
// structured all-reject result instead.
func (a *Adjudicator) Adjudicate(
	prescription *claim.PrescriptionData,
	invoice *claim.InvoiceData,
	labReport *claim.LabReportData,
	policyName string,
	matches claim.MatchSet,
) *claim.AdjudicationResult {
	a.Log.Info().
		Str("policy", policyName).
		Int("medicines", len(matches.Medicines)).
		Int("lab_tests", len(matches.LabTests)).
		Int("others", len(matches.Others)).
		Msg("starting adjudication")

	result := &claim.AdjudicationResult{
		ProcessedAt:     a.Now(),
		MatchingResults: matches,
	}

	pol := policy.Lookup(policyName)
	if pol == nil {
		a.Log.Warn().Str("policy", policyName).Msg("policy not found")
		result.RejectionReasons = []claim.RejectionReason{{
			Value:     claim.RejectPolicyNotFound,
			Title:     "Policy not found",
			Reasoning: fmt.Sprintf("Policy %q not found in system", policyName),
		}}
		result.Notes = "Policy data not available"
		return result
	}

	var reasons []claim.RejectionReason

	// Policy temporal validity, including the invoice date when present.
	var invoiceDate string
	if invoice != nil {
		invoiceDate = invoice.InvoiceMetadata.InvoiceDate
	}
	active, dateReason := a.checkPolicyActive(pol, invoiceDate)
	result.PolicyValidation.IsActive = active
	result.PolicyValidation.IsDateValid = active
	if !active {
		reasons = append(reasons, dateReason)
	}

	// Top-level reimbursement type, when the invoice declares one.
	// Absence is not a rejection; item-level checks carry the burden.
	result.PolicyValidation.BenefitCoverage = true
	if invoice != nil && invoice.ReimbursementType != "" {
		covered := isBenefitCovered(pol, invoice.ReimbursementType)
		result.PolicyValidation.BenefitCoverage = covered
		if !covered {
			reasons = append(reasons, claim.RejectionReason{
				Value:     claim.RejectBenefitNotCovered,
				Title:     "Benefit is not covered in policy",
				Reasoning: fmt.Sprintf("Reimbursement type %q is not covered under the policy. Covered benefits: %s", invoice.ReimbursementType, strings.Join(pol.Coverage.CoveredBenefits, ", ")),
			})
		}
	}

	var items claim.LineItems
	if invoice != nil {
		items = invoice.BillingInfo.LineItems
	}

	totalClaimed := decimal.Zero
	totalReimbursable := decimal.Zero
	var insights []string

	for _, cat := range []struct {
		category claim.Category
		items    []claim.LineItem
		matches  []claim.MatchResult
	}{
		{claim.CategoryMedicine, items.Medicines, matches.Medicines},
		{claim.CategoryLab, items.LabTests, matches.LabTests},
		{claim.CategoryOther, items.Others, matches.Others},
	} {
		out := a.processCategory(pol, cat.category, cat.items, cat.matches)
		totalClaimed = totalClaimed.Add(out.claimed)
		totalReimbursable = totalReimbursable.Add(out.reimbursable)
		insights = append(insights, out.insights...)

		if len(out.uncovered) > 0 {
			reasons = append(reasons, claim.RejectionReason{
				Value:     claim.RejectBenefitNotCovered,
				Title:     categoryReasonTitles[cat.category],
				Reasoning: strings.Join(out.uncovered, "; "),
			})
		}

		switch cat.category {
		case claim.CategoryMedicine:
			result.MatchingResults.Medicines = out.matches
		case claim.CategoryLab:
			result.MatchingResults.LabTests = out.matches
		case claim.CategoryOther:
			result.MatchingResults.Others = out.matches
		}
	}

	// Overall sum insured (0 = unlimited). Exceeding it is an insight,
	// not a block: per-item allocation already caps contributions.
	result.PolicyValidation.CoverageLimits = len(insights) == 0
	if !pol.BasicInfo.SumInsured.IsZero() && totalReimbursable.GreaterThan(pol.BasicInfo.SumInsured) {
		insights = append(insights, fmt.Sprintf("Total reimbursable amount %s exceeds the policy sum insured %s",
			totalReimbursable.String(), pol.BasicInfo.SumInsured.String()))
		result.PolicyValidation.CoverageLimits = false
	}

	result.RejectionReasons = reasons
	result.TotalClaimedAmount = totalClaimed
	result.TotalReimbursableAmount = totalReimbursable
	result.Approved = totalReimbursable.IsPositive() && !result.HasBlockingReason()
	result.Explanation = renderExplanation(result, insights)
	if result.Approved {
		result.Notes = "Adjudication completed successfully"
	} else {
		result.Notes = fmt.Sprintf("Adjudication failed with %d rejection reason(s)", len(reasons))
	}

	a.Log.Info().
		Bool("approved", result.Approved).
		Str("claimed", totalClaimed.String()).
		Str("reimbursable", totalReimbursable.String()).
		Int("rejection_reasons", len(reasons)).
		Msg("adjudication complete")

	return result
}

// =============================================================================
// PER-CATEGORY PROCESSING
// =============================================================================

type categoryOutcome struct {
	matches      []claim.MatchResult
	claimed      decimal.Decimal
	reimbursable decimal.Decimal
	uncovered    []string
	insights     []string
}

// processCategory walks the category's line items in invoice order,
// resolving coverage and allocating against the category's running
// limit total. Reimbursable amounts are written back onto the aligned
// match results.
func (a *Adjudicator) processCategory(pol *policy.Data, category claim.Category, items []claim.LineItem, results []claim.MatchResult) categoryOutcome {
	out := categoryOutcome{
		matches:      alignMatches(items, results),
		claimed:      decimal.Zero,
		reimbursable: decimal.Zero,
	}

	runningTotal := decimal.Zero

	for i, item := range items {
		match := &out.matches[i]
		claimedAmount := item.TotalCost
		out.claimed = out.claimed.Add(claimedAmount)

		// Billing adjustments pass straight through.
		if IsFinancialItem(item.Name) {
			match.AdjudicatedAmount = claimedAmount
			out.reimbursable = out.reimbursable.Add(claimedAmount)
			continue
		}

		coverage := ResolveCoverage(pol, item.Name, category, match.IsPrescriptionMatch)
		if !coverage.Covered {
			match.AdjudicatedAmount = decimal.Zero
			out.uncovered = append(out.uncovered, coverage.Reason)
			continue
		}

		alloc := Allocate(pol, category, claimedAmount, runningTotal)
		match.AdjudicatedAmount = alloc.Reimbursable
		runningTotal = runningTotal.Add(alloc.Reimbursable)
		out.reimbursable = out.reimbursable.Add(alloc.Reimbursable)

		if !alloc.WithinLimit {
			if alloc.Reimbursable.IsZero() && claimedAmount.IsPositive() {
				// Fully exhausted: this is a rejection, not an insight.
				out.uncovered = append(out.uncovered, alloc.Reason)
			} else {
				out.insights = append(out.insights, fmt.Sprintf("%s: %s", item.Name, alloc.Reason))
			}
		}
	}

	return out
}

// alignMatches pairs match results with invoice items. Results are
// realigned by their returned index when it is in range; out-of-range
// indexes fall back to positional order. Items with no result degrade
// to unmatched.
func alignMatches(items []claim.LineItem, results []claim.MatchResult) []claim.MatchResult {
	aligned := make([]claim.MatchResult, len(items))
	for i, item := range items {
		aligned[i] = claim.MatchResult{
			Index:               i,
			Name:                item.Name,
			IsPrescriptionMatch: false,
			Remark:              "No match result",
			Reason:              "No matching verdict was returned for this item",
		}
	}
	for pos, r := range results {
		idx := r.Index
		if idx < 0 || idx >= len(items) {
			idx = pos
		}
		if idx >= len(items) {
			continue
		}
		r.Index = idx
		aligned[idx] = r
	}
	return aligned
}

// =============================================================================
// POLICY-LEVEL CHECKS
// =============================================================================

// checkPolicyActive verifies the policy has started, has not expired,
// and (when an invoice date is present) that the invoice falls within
// the coverage window.
func (a *Adjudicator) checkPolicyActive(pol *policy.Data, invoiceDate string) (bool, claim.RejectionReason) {
	now := a.Now()
	start := parseDate(pol.BasicInfo.PolicyStartDate)
	end := parseDate(pol.BasicInfo.PolicyEndDate)

	active := true
	if start != nil && now.Before(*start) {
		active = false
	}
	if end != nil && now.After(*end) {
		active = false
	}

	invoiceBeforeStart := false
	if invoiceDate != "" {
		if inv := parseDate(invoiceDate); inv != nil {
			if start != nil && inv.Before(*start) {
				active = false
				invoiceBeforeStart = true
			}
			if end != nil && inv.After(*end) {
				active = false
			}
		}
	}

	if active {
		return true, claim.RejectionReason{}
	}

	if invoiceBeforeStart {
		return false, claim.RejectionReason{
			Value:     claim.RejectInvoiceBeforePolicy,
			Title:     "Invoice date is before policy start date",
			Reasoning: fmt.Sprintf("Invoice date (%s) is before policy start date (%s)", invoiceDate, pol.BasicInfo.PolicyStartDate),
		}
	}
	if invoiceDate != "" {
		return false, claim.RejectionReason{
			Value:     claim.RejectPolicyNotActive,
			Title:     "Policy is not active",
			Reasoning: "Policy is not active for the invoice date",
		}
	}
	return false, claim.RejectionReason{
		Value:     claim.RejectPolicyNotActive,
		Title:     "Policy is not active",
		Reasoning: "Policy is not currently active",
	}
}

// isBenefitCovered maps the reimbursement-type label to benefit names
// and checks containment in either direction against covered benefits.
func isBenefitCovered(pol *policy.Data, reimbursementType string) bool {
	candidates := benefitMapping[reimbursementType]
	for _, candidate := range candidates {
		for _, covered := range pol.Coverage.CoveredBenefits {
			if strings.Contains(covered, candidate) || strings.Contains(candidate, covered) {
				return true
			}
		}
	}
	return false
}

// parseDate accepts the date formats seen in policy data and digitized
// invoices. Unparseable input yields nil, which skips the check.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
