package match_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/match"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// stubClient returns a canned completion or error.
type stubClient struct {
	content string
	err     error
	calls   int
}

func (s *stubClient) Complete(_ context.Context, _ []match.Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.content, nil
}

func newMatcher(client match.ChatClient) *match.Matcher {
	return match.NewMatcher(client, zerolog.Nop())
}

func items(names ...string) []claim.LineItem {
	out := make([]claim.LineItem, len(names))
	for i, name := range names {
		out[i] = claim.LineItem{Name: name, Quantity: decimal.NewFromInt(1), TotalCost: decimal.NewFromInt(100)}
	}
	return out
}

func prescribed(names ...string) []claim.PrescribedMedicine {
	out := make([]claim.PrescribedMedicine, len(names))
	for i, name := range names {
		out[i] = claim.PrescribedMedicine{MedicineName: name}
	}
	return out
}

// =============================================================================
// HAPPY PATH AND FENCE STRIPPING
// =============================================================================

func TestMatchMedicines_ParsesBareJSON(t *testing.T) {
	client := &stubClient{content: `[
		{"index": 0, "name": "Paracetamol 650mg", "isPrescriptionMatch": true, "remark": "Exact match", "reason": "Found in prescription"}
	]`}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), items("Paracetamol 650mg"), prescribed("Paracetamol"))

	require.Len(t, results, 1)
	assert.True(t, results[0].IsPrescriptionMatch)
	assert.Equal(t, "Exact match", results[0].Remark)
	assert.Equal(t, 1, client.calls)
}

func TestMatchMedicines_StripsMarkdownCodeFences(t *testing.T) {
	// GIVEN: A model response wrapped in a ```json fence despite instructions
	// WHEN: Matching
	// THEN: The fence is stripped and the array parsed normally

	client := &stubClient{content: "```json\n[{\"index\": 0, \"name\": \"Crocin\", \"isPrescriptionMatch\": true}]\n```"}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), items("Crocin"), prescribed("Paracetamol"))

	require.Len(t, results, 1)
	assert.True(t, results[0].IsPrescriptionMatch)
}

// =============================================================================
// DEGRADATION - Errors never propagate, items degrade to unmatched
// =============================================================================

func TestMatchMedicines_ClientError_DegradesToUnmatched(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), items("A", "B"), prescribed("A"))

	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.False(t, r.IsPrescriptionMatch)
		assert.Equal(t, "Matching error", r.Remark)
		assert.Contains(t, r.Reason, "connection refused")
	}
}

func TestMatchMedicines_UnparseableResponse_DegradesToUnmatched(t *testing.T) {
	client := &stubClient{content: "Sorry, I cannot help with that."}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), items("A"), prescribed("A"))

	require.Len(t, results, 1)
	assert.False(t, results[0].IsPrescriptionMatch)
	assert.Equal(t, "Parse error", results[0].Remark)
}

func TestMatchMedicines_NoPrescription_AllUnmatchedWithoutCall(t *testing.T) {
	// GIVEN: An invoice with medicines but an empty prescription
	// WHEN: Matching
	// THEN: All items unmatched, and no model call is made

	client := &stubClient{}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), items("A", "B"), nil)

	require.Len(t, results, 2)
	assert.Equal(t, "No prescription medicines found", results[0].Remark)
	assert.Equal(t, 0, client.calls)
}

func TestMatchMedicines_EmptyInvoice_NoCall(t *testing.T) {
	client := &stubClient{}
	m := newMatcher(client)

	results := m.MatchMedicines(context.Background(), nil, prescribed("A"))

	assert.Empty(t, results)
	assert.Equal(t, 0, client.calls)
}

// =============================================================================
// LAB TESTS AND OTHERS
// =============================================================================

func TestMatchLabTests_EmptyPrescription_StillCallsModel(t *testing.T) {
	// Lab tests without prescribed tests still go through the model: the
	// lab report itself can justify a match verdict.
	client := &stubClient{content: `[{"index": 0, "name": "CBC", "isPrescriptionMatch": false, "isLabReportPresent": true}]`}
	m := newMatcher(client)

	report := &claim.LabReportData{LabTests: []claim.LabObservation{{TestName: "CBC", Value: "13.5", Unit: "g/dL"}}}
	results := m.MatchLabTests(context.Background(), items("CBC"), nil, report)

	require.Len(t, results, 1)
	assert.Equal(t, 1, client.calls)
	require.NotNil(t, results[0].IsLabReportPresent)
	assert.True(t, *results[0].IsLabReportPresent)
}

func TestMatchOthers_NilPrescription_DoesNotPanic(t *testing.T) {
	client := &stubClient{content: `[{"index": 0, "name": "Consultation Fee", "isPrescriptionMatch": true}]`}
	m := newMatcher(client)

	results := m.MatchOthers(context.Background(), items("Consultation Fee"), nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].IsPrescriptionMatch)
}
