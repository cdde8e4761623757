package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/claims-engine/adjudication"
	"github.com/meridian/claims-engine/api"
	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/claim/store"
	"github.com/meridian/claims-engine/digitize"
	"github.com/meridian/claims-engine/pipeline"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// TEST FAKES
// =============================================================================

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*pipeline.Job
}

func newMemJobStore() *memJobStore { return &memJobStore{jobs: make(map[string]*pipeline.Job)} }

func (m *memJobStore) Enqueue(_ context.Context, job *pipeline.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobStore) Pending(_ context.Context) ([]*pipeline.Job, error) { return nil, nil }

func (m *memJobStore) SetStage(_ context.Context, id string, stage pipeline.Stage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.Stage = stage
		job.Attempts++
	}
	return nil
}

func (m *memJobStore) Complete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.State = pipeline.JobDone
	}
	return nil
}

func (m *memJobStore) Fail(_ context.Context, id string, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		job.State = pipeline.JobFailed
		job.LastError = cause
	}
	return nil
}

type fakeDigitizer struct{}

func (fakeDigitizer) ExtractAll(_ context.Context, _, _, _ []claim.DocumentRef, _ []string) (digitize.Extraction, error) {
	return digitize.Extraction{
		Prescription: &claim.PrescriptionData{
			MedicalInfo: claim.MedicalInfo{
				Medicines: []claim.PrescribedMedicine{{MedicineName: "Paracetamol", MedicineDosage: "650mg"}},
			},
		},
		Invoice: &claim.InvoiceData{
			InvoiceMetadata: claim.InvoiceMetadata{InvoiceNumber: "INV-1", InvoiceDate: "2025-09-10"},
			BillingInfo: claim.BillingInfo{LineItems: claim.LineItems{
				Medicines: []claim.LineItem{{Name: "Paracetamol 650mg", TotalCost: decimal.NewFromInt(300)}},
			}},
		},
	}, nil
}

type fakeMatcher struct{}

func (fakeMatcher) verdicts(items []claim.LineItem) []claim.MatchResult {
	out := make([]claim.MatchResult, len(items))
	for i, item := range items {
		out[i] = claim.MatchResult{Index: i, Name: item.Name, IsPrescriptionMatch: true}
	}
	return out
}

func (f fakeMatcher) MatchMedicines(_ context.Context, invoice []claim.LineItem, _ []claim.PrescribedMedicine) []claim.MatchResult {
	return f.verdicts(invoice)
}

func (f fakeMatcher) MatchLabTests(_ context.Context, invoice []claim.LineItem, _ []string, _ *claim.LabReportData) []claim.MatchResult {
	return f.verdicts(invoice)
}

func (f fakeMatcher) MatchOthers(_ context.Context, invoice []claim.LineItem, _ *claim.PrescriptionData) []claim.MatchResult {
	return f.verdicts(invoice)
}

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T, startWorker bool) *pipeline.Service {
	t.Helper()

	adj := adjudication.NewAdjudicator(zerolog.Nop())
	adj.Now = func() time.Time {
		return time.Date(2025, time.December, 15, 10, 0, 0, 0, time.UTC)
	}
	svc := pipeline.New(store.NewMemory(), newMemJobStore(), fakeDigitizer{}, fakeMatcher{}, adj, zerolog.Nop())

	if startWorker {
		ctx, cancel := context.WithCancel(context.Background())
		t.Cleanup(func() {
			cancel()
			svc.Wait()
		})
		svc.Start(ctx)
	}
	return svc
}

func newTestServer(t *testing.T) (*httptest.Server, *pipeline.Service) {
	t.Helper()

	svc := newTestService(t, true)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, zerolog.Nop())))
	t.Cleanup(srv.Close)
	return srv, svc
}

func createClaimBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"patientDetails":    map[string]any{"name": "Asha Rao"},
		"prescriptionsUrls": []map[string]string{{"url": "https://cdn/rx.jpg"}},
		"invoiceUrls":       []map[string]string{{"url": "https://cdn/inv.jpg"}},
		"userRaisedAmount":  "300",
		"requestDate":       "2025-09-12",
		"policyDocuments":   []map[string]string{{"policyName": policy.NameNivaBupa}},
	})
	return body
}

func decodeEnvelope(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var envelope map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func createClaim(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/claims", "application/json", bytes.NewReader(createClaimBody()))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	envelope := decodeEnvelope(t, resp)
	return envelope["data"].(map[string]any)["id"].(string)
}

func waitAdjudicated(t *testing.T, svc *pipeline.Service, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		c, err := svc.GetClaim(context.Background(), id)
		return err == nil && c.Status == claim.StatusAdjudicated
	}, 2*time.Second, 10*time.Millisecond)
}

// =============================================================================
// CLAIM INTAKE
// =============================================================================

func TestCreateClaim_Returns201WithEnvelope(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/claims", "application/json", bytes.NewReader(createClaimBody()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, true, envelope["success"])
	assert.Equal(t, "Claim created successfully", envelope["message"])

	data := envelope["data"].(map[string]any)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, string(claim.StatusPending), data["status"])
	assert.Equal(t, "Asha Rao", data["patientName"])
}

func TestCreateClaim_MissingPolicy_Returns400(t *testing.T) {
	srv, _ := newTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"patientDetails":    map[string]any{"name": "Asha Rao"},
		"prescriptionsUrls": []map[string]string{{"url": "https://cdn/rx.jpg"}},
		"invoiceUrls":       []map[string]string{{"url": "https://cdn/inv.jpg"}},
		"userRaisedAmount":  "300",
		"requestDate":       "2025-09-12",
	})

	resp, err := http.Post(srv.URL+"/api/claims", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["message"], "policyName")
}

func TestCreateClaim_MalformedBody_Returns400(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/claims", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Invalid request body", envelope["message"])
}

// =============================================================================
// CLAIM RETRIEVAL
// =============================================================================

func TestGetClaim_ReturnsFullRecordAfterProcessing(t *testing.T) {
	srv, svc := newTestServer(t)

	id := createClaim(t, srv)
	waitAdjudicated(t, svc, id)

	resp, err := http.Get(srv.URL + "/api/claims/" + id)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, string(claim.StatusAdjudicated), data["status"])

	require.NotNil(t, data["adjudicationResult"])
	result := data["adjudicationResult"].(map[string]any)
	assert.Equal(t, true, result["approved"])
}

func TestGetClaim_Unknown_Returns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/claims/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Claim not found", envelope["message"])
}

func TestListClaims_Paged(t *testing.T) {
	srv, _ := newTestServer(t)

	for i := 0; i < 3; i++ {
		createClaim(t, srv)
	}

	resp, err := http.Get(srv.URL + "/api/claims?page=1&limit=2")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	data := envelope["data"].(map[string]any)
	assert.Equal(t, float64(3), data["total"])
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(2), data["totalPages"])
	assert.Len(t, data["claims"].([]any), 2)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitClaim_AfterAdjudication_Succeeds(t *testing.T) {
	srv, svc := newTestServer(t)

	id := createClaim(t, srv)
	waitAdjudicated(t, svc, id)

	resp, err := http.Post(srv.URL+"/api/claims/"+id+"/submit", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, "Claim submitted successfully", envelope["message"])
	assert.Equal(t, string(claim.StatusSubmitted), envelope["data"].(map[string]any)["status"])
}

func TestSubmitClaim_BeforeAdjudication_Returns400(t *testing.T) {
	// GIVEN: A claim created against a server whose worker never runs
	// WHEN: Submitting while the claim is still pending
	// THEN: 400 with the status-transition message

	svc := newTestService(t, false)
	srv := httptest.NewServer(api.NewRouter(api.NewHandler(svc, zerolog.Nop())))
	t.Cleanup(srv.Close)

	id := createClaim(t, srv)

	resp, err := http.Post(srv.URL+"/api/claims/"+id+"/submit", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["message"], fmt.Sprintf("must be in '%s' status", claim.StatusAdjudicated))
}

func TestSubmitClaim_Unknown_Returns404(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/claims/nope/submit", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// POLICY CATALOG
// =============================================================================

func TestListPolicies_ReturnsCatalog(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/policies")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	envelope := decodeEnvelope(t, resp)
	policies := envelope["data"].([]any)
	require.Len(t, policies, 2)

	names := make(map[string]bool)
	for _, p := range policies {
		entry := p.(map[string]any)
		names[entry["name"].(string)] = true
		assert.NotEmpty(t, entry["insurerName"])
		assert.NotEmpty(t, entry["sumInsured"])
	}
	assert.True(t, names[policy.NameNivaBupa])
	assert.True(t, names[policy.NameAdityaBirla])
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, "ok", body["status"])
}
