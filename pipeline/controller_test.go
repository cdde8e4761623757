package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/claims-engine/adjudication"
	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/claim/store"
	"github.com/meridian/claims-engine/digitize"
	"github.com/meridian/claims-engine/pipeline"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// TEST FAKES
// =============================================================================

// memJobStore is an in-memory JobStore for pipeline tests.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*pipeline.Job
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]*pipeline.Job)}
}

func (m *memJobStore) Enqueue(_ context.Context, job *pipeline.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *memJobStore) Pending(_ context.Context) ([]*pipeline.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*pipeline.Job
	for _, job := range m.jobs {
		if job.State == pipeline.JobPending {
			cp := *job
			out = append(out, &cp)
		}
	}
	return out, nil
}

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

func (m *memJobStore) byClaim(claimID string) *pipeline.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.ClaimID == claimID {
			cp := *job
			return &cp
		}
	}
	return nil
}

// fakeDigitizer returns a canned extraction or error.
type fakeDigitizer struct {
	extraction digitize.Extraction
	err        error
}

func (f *fakeDigitizer) ExtractAll(_ context.Context, _, _, _ []claim.DocumentRef, _ []string) (digitize.Extraction, error) {
	return f.extraction, f.err
}

// fakeMatcher marks every item as prescription-matched.
type fakeMatcher struct{}

func (fakeMatcher) verdicts(items []claim.LineItem) []claim.MatchResult {
	out := make([]claim.MatchResult, len(items))
	for i, item := range items {
		out[i] = claim.MatchResult{Index: i, Name: item.Name, IsPrescriptionMatch: true, Remark: "Exact match"}
	}
	return out
}

func (f fakeMatcher) MatchMedicines(_ context.Context, items []claim.LineItem, _ []claim.PrescribedMedicine) []claim.MatchResult {
	return f.verdicts(items)
}

func (f fakeMatcher) MatchLabTests(_ context.Context, items []claim.LineItem, _ []string, _ *claim.LabReportData) []claim.MatchResult {
	return f.verdicts(items)
}

func (f fakeMatcher) MatchOthers(_ context.Context, items []claim.LineItem, _ *claim.PrescriptionData) []claim.MatchResult {
	return f.verdicts(items)
}

// =============================================================================
// TEST SETUP
// =============================================================================

func testExtraction() digitize.Extraction {
	return digitize.Extraction{
		Prescription: &claim.PrescriptionData{
			PatientInfo: claim.PatientInfo{PatientName: "Asha Rao"},
			MedicalInfo: claim.MedicalInfo{
				Medicines: []claim.PrescribedMedicine{{MedicineName: "Paracetamol", MedicineDosage: "650mg"}},
			},
		},
		Invoice: &claim.InvoiceData{
			InvoiceMetadata: claim.InvoiceMetadata{InvoiceNumber: "INV-1", InvoiceDate: "2025-09-10"},
			BillingInfo: claim.BillingInfo{LineItems: claim.LineItems{
				Medicines: []claim.LineItem{{Name: "Paracetamol 650mg", Quantity: decimal.NewFromInt(1), TotalCost: decimal.NewFromInt(300)}},
			}},
		},
	}
}

func newService(t *testing.T, digitizer pipeline.Digitizer) (*pipeline.Service, *store.Memory, *memJobStore) {
	t.Helper()
	claims := store.NewMemory()
	jobs := newMemJobStore()

	adj := adjudication.NewAdjudicator(zerolog.Nop())
	adj.Now = func() time.Time {
		return time.Date(2025, time.December, 15, 10, 0, 0, 0, time.UTC)
	}

	svc := pipeline.New(claims, jobs, digitizer, fakeMatcher{}, adj, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		svc.Wait()
	})
	svc.Start(ctx)
	return svc, claims, jobs
}

func validIntake() pipeline.Intake {
	return pipeline.Intake{
		PatientName:      "Asha Rao",
		PrescriptionURLs: []claim.DocumentRef{{URL: "https://cdn/rx.jpg"}},
		InvoiceURLs:      []claim.DocumentRef{{URL: "https://cdn/inv.jpg"}},
		UserRaisedAmount: "300",
		RequestDate:      "2025-09-12",
		PolicyName:       policy.NameNivaBupa,
	}
}

func waitForStatus(t *testing.T, svc *pipeline.Service, id string, want claim.Status) *claim.Claim {
	t.Helper()
	var got *claim.Claim
	require.Eventually(t, func() bool {
		c, err := svc.GetClaim(context.Background(), id)
		if err != nil {
			return false
		}
		got = c
		return c.Status == want
	}, 2*time.Second, 10*time.Millisecond, "claim never reached status %q", want)
	return got
}

// =============================================================================
// INTAKE VALIDATION
// =============================================================================

func TestCreateClaim_MissingFields_Rejected(t *testing.T) {
	svc, _, _ := newService(t, &fakeDigitizer{extraction: testExtraction()})

	cases := []struct {
		name   string
		mutate func(*pipeline.Intake)
	}{
		{"patient name", func(in *pipeline.Intake) { in.PatientName = "" }},
		{"prescriptions", func(in *pipeline.Intake) { in.PrescriptionURLs = nil }},
		{"invoices", func(in *pipeline.Intake) { in.InvoiceURLs = nil }},
		{"amount", func(in *pipeline.Intake) { in.UserRaisedAmount = "" }},
		{"non-numeric amount", func(in *pipeline.Intake) { in.UserRaisedAmount = "three hundred" }},
		{"negative amount", func(in *pipeline.Intake) { in.UserRaisedAmount = "-50" }},
		{"request date", func(in *pipeline.Intake) { in.RequestDate = "" }},
		{"policy name", func(in *pipeline.Intake) { in.PolicyName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validIntake()
			tc.mutate(&in)
			_, err := svc.CreateClaim(context.Background(), in)
			require.Error(t, err)
			assert.True(t, claim.IsClientError(err), "expected client error, got: %v", err)
		})
	}
}

func TestCreateClaim_UnknownPolicy_Rejected(t *testing.T) {
	svc, _, _ := newService(t, &fakeDigitizer{extraction: testExtraction()})

	in := validIntake()
	in.PolicyName = "Acme Mutual"
	_, err := svc.CreateClaim(context.Background(), in)

	require.Error(t, err)
	assert.ErrorIs(t, err, claim.ErrPolicyNotFound)
}

// =============================================================================
// FULL PIPELINE
// =============================================================================

func TestPipeline_HappyPath_ClaimAdjudicated(t *testing.T) {
	// GIVEN: A valid claim and healthy collaborators
	// WHEN: The background worker processes it
	// THEN: The claim carries digitized data, matches, and an approved
	//       adjudication in the adjudicated status

	svc, _, jobs := newService(t, &fakeDigitizer{extraction: testExtraction()})

	created, err := svc.CreateClaim(context.Background(), validIntake())
	require.NoError(t, err)
	assert.Equal(t, claim.StatusPending, created.Status)

	final := waitForStatus(t, svc, created.ID, claim.StatusAdjudicated)

	require.NotNil(t, final.InvoiceData)
	require.NotNil(t, final.PrescriptionData)
	require.Len(t, final.MedicineMatches, 1)
	require.NotNil(t, final.Adjudication)
	assert.True(t, final.Adjudication.Approved)
	assert.True(t, final.Adjudication.TotalReimbursableAmount.Equal(decimal.NewFromInt(300)))

	job := jobs.byClaim(created.ID)
	require.NotNil(t, job)
	assert.Equal(t, pipeline.JobDone, job.State)
}

func TestPipeline_DigitizationFailure_ResetsToPending(t *testing.T) {
	// GIVEN: A digitizer that always fails
	// WHEN: Processing runs
	// THEN: The claim returns to pending and the job records the error

	svc, _, jobs := newService(t, &fakeDigitizer{err: errors.New("provider down")})

	created, err := svc.CreateClaim(context.Background(), validIntake())
	require.NoError(t, err)

	var job *pipeline.Job
	require.Eventually(t, func() bool {
		job = jobs.byClaim(created.ID)
		return job != nil && job.State == pipeline.JobFailed
	}, 2*time.Second, 10*time.Millisecond)

	assert.Contains(t, job.LastError, "provider down")

	c, err := svc.GetClaim(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusPending, c.Status)
	assert.Nil(t, c.Adjudication)
}

func TestPipeline_Resume_ProcessesPendingJobs(t *testing.T) {
	// GIVEN: A pending job persisted by a previous process
	// WHEN: Resume runs at startup
	// THEN: The job is picked up and the claim completes

	claims := store.NewMemory()
	jobs := newMemJobStore()
	adj := adjudication.NewAdjudicator(zerolog.Nop())
	adj.Now = func() time.Time { return time.Date(2025, time.December, 15, 0, 0, 0, 0, time.UTC) }
	svc := pipeline.New(claims, jobs, &fakeDigitizer{extraction: testExtraction()}, fakeMatcher{}, adj, zerolog.Nop())

	// Simulate a claim left behind by a crashed process.
	orphan := &claim.Claim{ID: "claim-orphan", PatientName: "Asha Rao", PolicyName: policy.NameNivaBupa,
		Status: claim.StatusPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	require.NoError(t, claims.Create(context.Background(), orphan))
	require.NoError(t, jobs.Enqueue(context.Background(), &pipeline.Job{
		ID: "job-orphan", ClaimID: orphan.ID, Stage: pipeline.StageDigitize, State: pipeline.JobPending,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		svc.Wait()
	})
	svc.Start(ctx)
	require.NoError(t, svc.Resume(ctx))

	waitForStatus(t, svc, orphan.ID, claim.StatusAdjudicated)
}

// =============================================================================
// SUBMIT TRANSITION
// =============================================================================

func TestSubmitClaim_FromAdjudicated_Succeeds(t *testing.T) {
	svc, _, _ := newService(t, &fakeDigitizer{extraction: testExtraction()})

	created, err := svc.CreateClaim(context.Background(), validIntake())
	require.NoError(t, err)
	waitForStatus(t, svc, created.ID, claim.StatusAdjudicated)

	submitted, err := svc.SubmitClaim(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, claim.StatusSubmitted, submitted.Status)
}

func TestSubmitClaim_WrongStatus_Rejected(t *testing.T) {
	// GIVEN: A claim still pending (digitizer blocked below)
	// WHEN: Submitting
	// THEN: StatusError naming the required and current statuses

	claims := store.NewMemory()
	jobs := newMemJobStore()
	adj := adjudication.NewAdjudicator(zerolog.Nop())
	svc := pipeline.New(claims, jobs, &fakeDigitizer{extraction: testExtraction()}, fakeMatcher{}, adj, zerolog.Nop())
	// Worker deliberately not started: the claim stays pending.

	created, err := svc.CreateClaim(context.Background(), validIntake())
	require.NoError(t, err)

	_, err = svc.SubmitClaim(context.Background(), created.ID)
	require.Error(t, err)

	var statusErr *claim.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, claim.StatusAdjudicated, statusErr.Required)
	assert.Equal(t, claim.StatusPending, statusErr.Current)
	assert.Contains(t, err.Error(), "must be in 'adjudicated' status")
}

func TestSubmitClaim_UnknownClaim_NotFound(t *testing.T) {
	svc, _, _ := newService(t, &fakeDigitizer{extraction: testExtraction()})

	_, err := svc.SubmitClaim(context.Background(), "nope")
	assert.ErrorIs(t, err, claim.ErrClaimNotFound)
}
