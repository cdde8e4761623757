/*
Package match produces per-line-item prescription-match verdicts.

PURPOSE:
  Second pipeline stage. For each invoice line item, ask a language
  model whether the item is justified by the prescription (and, for lab
  tests, whether the lab report backs it up). The output is one verdict
  per invoice item, aligned by index.

DEGRADATION CONTRACT:
  Matching never fails the pipeline. Any transport, model, or parse
  error degrades the whole category to all-unmatched verdicts carrying
  the error as the reason. Adjudication then rejects those items with
  readable reasoning instead of the claim erroring out.

PIPELINE POSITION:
  digitization → matching (this package) → adjudication

SEE ALSO:
  - client.go: The ChatClient interface and its HTTP implementation
  - prompts.go: Per-category prompt construction
*/
package match

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/meridian/claims-engine/claim"
)

// Matcher runs the three per-category matching calls.
type Matcher struct {
	client ChatClient
	log    zerolog.Logger
}

func NewMatcher(client ChatClient, log zerolog.Logger) *Matcher {
	return &Matcher{client: client, log: log.With().Str("component", "matching").Logger()}
}

// =============================================================================
// PER-CATEGORY MATCHING
// =============================================================================

// MatchMedicines matches invoice medicines against prescribed medicines.
// Always returns one verdict per invoice item.
func (m *Matcher) MatchMedicines(ctx context.Context, invoice []claim.LineItem, prescribed []claim.PrescribedMedicine) []claim.MatchResult {
	if len(invoice) == 0 {
		return nil
	}
	if len(prescribed) == 0 {
		return allUnmatched(invoice, "No prescription medicines found",
			"No medicines found in prescription to match against")
	}
	return m.run(ctx, claim.CategoryMedicine, invoice, []Message{
		{Role: "system", Content: medicineSystemPrompt},
		{Role: "user", Content: buildMedicinePrompt(invoice, prescribed)},
	})
}

// MatchLabTests matches invoice lab tests against prescribed tests,
// cross-checking the digitized lab report when present.
func (m *Matcher) MatchLabTests(ctx context.Context, invoice []claim.LineItem, prescribed []string, labReport *claim.LabReportData) []claim.MatchResult {
	if len(invoice) == 0 {
		return nil
	}
	return m.run(ctx, claim.CategoryLab, invoice, []Message{
		{Role: "system", Content: labTestSystemPrompt},
		{Role: "user", Content: buildLabTestPrompt(invoice, prescribed, labReport)},
	})
}

// MatchOthers matches miscellaneous invoice items against the
// prescription's diagnosis and clinical summary.
func (m *Matcher) MatchOthers(ctx context.Context, invoice []claim.LineItem, prescription *claim.PrescriptionData) []claim.MatchResult {
	if len(invoice) == 0 {
		return nil
	}
	return m.run(ctx, claim.CategoryOther, invoice, []Message{
		{Role: "system", Content: othersSystemPrompt},
		{Role: "user", Content: buildOthersPrompt(invoice, prescription)},
	})
}

func (m *Matcher) run(ctx context.Context, category claim.Category, invoice []claim.LineItem, messages []Message) []claim.MatchResult {
	content, err := m.client.Complete(ctx, messages)
	if err != nil {
		m.log.Error().Err(err).Str("category", string(category)).Msg("matching call failed")
		return allUnmatched(invoice, "Matching error", err.Error())
	}

	results, err := parseMatchResults(content)
	if err != nil {
		m.log.Error().Err(err).Str("category", string(category)).Msg("matching response unparseable")
		return allUnmatched(invoice, "Parse error", "Failed to parse matching results")
	}

	m.log.Info().
		Str("category", string(category)).
		Int("items", len(invoice)).
		Int("verdicts", len(results)).
		Msg("matching complete")
	return results
}

// =============================================================================
// RESPONSE PARSING
// =============================================================================

// parseMatchResults strips markdown code fences and decodes the JSON
// verdict array. Models occasionally wrap output despite instructions.
func parseMatchResults(content string) ([]claim.MatchResult, error) {
	cleaned := stripCodeFences(content)
	if cleaned == "" {
		cleaned = "[]"
	}
	var results []claim.MatchResult
	if err := json.Unmarshal([]byte(cleaned), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// allUnmatched is the degradation path: one unmatched verdict per item.
func allUnmatched(invoice []claim.LineItem, remark, reason string) []claim.MatchResult {
	results := make([]claim.MatchResult, len(invoice))
	for i, item := range invoice {
		results[i] = claim.MatchResult{
			Index:               i,
			Name:                item.Name,
			IsPrescriptionMatch: false,
			Remark:              remark,
			Reason:              reason,
		}
	}
	return results
}
