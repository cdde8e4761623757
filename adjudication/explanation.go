/*
explanation.go - Human-readable decision rendering

PURPOSE:
  Turns an adjudication result into the single explanation string shown
  to claim reviewers: full approval, partial approval with percentage
  and adjustments, or rejection with the leading reason.
*/
package adjudication

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/meridian/claims-engine/claim"
)

// renderExplanation builds the explanation text. The result's Approved,
// totals, and rejection reasons must already be final.
func renderExplanation(r *claim.AdjudicationResult, insights []string) string {
	claimed := r.TotalClaimedAmount
	reimbursable := r.TotalReimbursableAmount

	if !r.Approved {
		var sb strings.Builder
		fmt.Fprintf(&sb, "Claim rejected: none of the claimed amount of %s is reimbursable.", claimed.String())
		if len(r.RejectionReasons) > 0 {
			sb.WriteString(" Reasons: ")
			parts := make([]string, 0, len(r.RejectionReasons))
			for _, reason := range r.RejectionReasons {
				parts = append(parts, reason.Reasoning)
			}
			sb.WriteString(strings.Join(parts, "; "))
		}
		return sb.String()
	}

	if !r.IsPartial() {
		return fmt.Sprintf("Claim approved in full: the entire claimed amount of %s is reimbursable.", claimed.String())
	}

	pct := "0"
	if claimed.IsPositive() {
		pct = reimbursable.Div(claimed).Mul(decimal.NewFromInt(100)).Round(1).String()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Claim partially approved: %s of the claimed amount of %s is reimbursable (%s%%).",
		reimbursable.String(), claimed.String(), pct)
	if len(r.RejectionReasons) > 0 {
		sb.WriteString(" Items not covered: ")
		parts := make([]string, 0, len(r.RejectionReasons))
		for _, reason := range r.RejectionReasons {
			parts = append(parts, reason.Reasoning)
		}
		sb.WriteString(strings.Join(parts, "; "))
	}
	if len(insights) > 0 {
		sb.WriteString(" Adjustments: ")
		sb.WriteString(strings.Join(insights, "; "))
	}
	return sb.String()
}
