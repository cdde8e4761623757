/*
Package pipeline owns the claim lifecycle.

PURPOSE:
  The lifecycle controller: accepts claims at intake, drives them
  through digitization → matching → adjudication in the background, and
  enforces the submit transition. It is the only writer of claim status
  after intake.

STATE MACHINE:
  pending → digitizing → adjudicating → adjudicated → submitted
  Any processing failure resets the claim to pending; the failed job
  keeps its error for inspection and the claim can be re-enqueued.

COLLABORATORS:
  The digitizer, matcher, and adjudicator are injected as interfaces,
  so tests exercise the full pipeline with in-process fakes and no
  network.

SEE ALSO:
  - jobs.go: The durable job queue
  - digitize, match, adjudication: The stage implementations
*/
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meridian/claims-engine/adjudication"
	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/digitize"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Digitizer extracts structured data from claim documents.
type Digitizer interface {
	ExtractAll(ctx context.Context, prescriptions, invoices, supportDocs []claim.DocumentRef, procedures []string) (digitize.Extraction, error)
}

// Matcher produces per-line-item prescription-match verdicts.
type Matcher interface {
	MatchMedicines(ctx context.Context, invoice []claim.LineItem, prescribed []claim.PrescribedMedicine) []claim.MatchResult
	MatchLabTests(ctx context.Context, invoice []claim.LineItem, prescribed []string, labReport *claim.LabReportData) []claim.MatchResult
	MatchOthers(ctx context.Context, invoice []claim.LineItem, prescription *claim.PrescriptionData) []claim.MatchResult
}

// =============================================================================
// SERVICE
// =============================================================================

const queueDepth = 128

// Service is the lifecycle controller.
type Service struct {
	claims      claim.Store
	jobs        JobStore
	digitizer   Digitizer
	matcher     Matcher
	adjudicator *adjudication.Adjudicator
	log         zerolog.Logger

	now func() time.Time

	queue chan *Job
	wg    sync.WaitGroup
}

func New(claims claim.Store, jobs JobStore, digitizer Digitizer, matcher Matcher, adjudicator *adjudication.Adjudicator, log zerolog.Logger) *Service {
	return &Service{
		claims:      claims,
		jobs:        jobs,
		digitizer:   digitizer,
		matcher:     matcher,
		adjudicator: adjudicator,
		log:         log.With().Str("component", "pipeline").Logger(),
		now:         time.Now,
		queue:       make(chan *Job, queueDepth),
	}
}

// Start launches the background worker. It runs until ctx is canceled.
func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case job := <-s.queue:
				s.process(ctx, job)
			}
		}
	}()
}

// Wait blocks until the worker has drained after Start's context ends.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Resume reloads pending jobs from the store and requeues them. Called
// once at startup so claims interrupted by a restart finish processing.
func (s *Service) Resume(ctx context.Context) error {
	jobs, err := s.jobs.Pending(ctx)
	if err != nil {
		return fmt.Errorf("loading pending jobs: %w", err)
	}
	for _, job := range jobs {
		s.enqueue(job)
	}
	if len(jobs) > 0 {
		s.log.Info().Int("jobs", len(jobs)).Msg("resumed pending jobs")
	}
	return nil
}

func (s *Service) enqueue(job *Job) {
	select {
	case s.queue <- job:
	default:
		// Queue full. The job row stays pending and is picked up by the
		// next Resume.
		s.log.Warn().Str("claim_id", job.ClaimID).Msg("worker queue full, job deferred")
	}
}

// =============================================================================
// INTAKE
// =============================================================================

// Intake is the validated input for a new claim.
type Intake struct {
	PatientName         string
	PrescriptionURLs    []claim.DocumentRef
	InvoiceURLs         []claim.DocumentRef
	SupportDocumentURLs []claim.DocumentRef
	UserRaisedAmount    string
	RequestDate         string
	PolicyName          string
}

func (in Intake) validate() error {
	if strings.TrimSpace(in.PatientName) == "" {
		return &claim.ValidationError{Field: "patientDetails.name", Message: "is required"}
	}
	if len(in.PrescriptionURLs) == 0 {
		return &claim.ValidationError{Field: "prescriptionsUrls", Message: "non-empty array is required"}
	}
	if len(in.InvoiceURLs) == 0 {
		return &claim.ValidationError{Field: "invoiceUrls", Message: "non-empty array is required"}
	}
	if strings.TrimSpace(in.UserRaisedAmount) == "" {
		return &claim.ValidationError{Field: "userRaisedAmount", Message: "is required"}
	}
	if !claim.ParseAmount(in.UserRaisedAmount).IsPositive() {
		return &claim.ValidationError{Field: "userRaisedAmount", Message: "must be a positive amount"}
	}
	if strings.TrimSpace(in.RequestDate) == "" {
		return &claim.ValidationError{Field: "requestDate", Message: "is required"}
	}
	if strings.TrimSpace(in.PolicyName) == "" {
		return &claim.ValidationError{Field: "policyDocuments[0].policyName", Message: "is required"}
	}
	if policy.Lookup(in.PolicyName) == nil {
		return fmt.Errorf("invalid policy name %q, must be one of: %s: %w",
			in.PolicyName, strings.Join(policy.Names(), ", "), claim.ErrPolicyNotFound)
	}
	return nil
}

// CreateClaim validates the intake, persists the claim as pending, and
// enqueues its processing job. Processing happens in the background;
// the returned claim is the intake snapshot.
func (s *Service) CreateClaim(ctx context.Context, in Intake) (*claim.Claim, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	c := &claim.Claim{
		ID:                  uuid.NewString(),
		PatientName:         in.PatientName,
		PrescriptionURLs:    in.PrescriptionURLs,
		InvoiceURLs:         in.InvoiceURLs,
		SupportDocumentURLs: in.SupportDocumentURLs,
		UserRaisedAmount:    in.UserRaisedAmount,
		RequestDate:         in.RequestDate,
		PolicyName:          in.PolicyName,
		Status:              claim.StatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.claims.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("persisting claim: %w", err)
	}

	job := &Job{
		ID:        uuid.NewString(),
		ClaimID:   c.ID,
		Stage:     StageDigitize,
		State:     JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueueing processing job: %w", err)
	}
	s.enqueue(job)

	s.log.Info().Str("claim_id", c.ID).Str("policy", c.PolicyName).Msg("claim accepted")
	return c, nil
}

// =============================================================================
// READS AND SUBMIT
// =============================================================================

func (s *Service) GetClaim(ctx context.Context, id string) (*claim.Claim, error) {
	return s.claims.Get(ctx, id)
}

func (s *Service) ListClaims(ctx context.Context, page, limit int) ([]*claim.Claim, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	return s.claims.List(ctx, page, limit)
}

// SubmitClaim moves an adjudicated claim to submitted. Any other
// current status is rejected with a StatusError.
func (s *Service) SubmitClaim(ctx context.Context, id string) (*claim.Claim, error) {
	c, err := s.claims.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != claim.StatusAdjudicated {
		return nil, &claim.StatusError{Required: claim.StatusAdjudicated, Current: c.Status}
	}
	if err := s.claims.Update(ctx, id, claim.StatusUpdate(claim.StatusSubmitted)); err != nil {
		return nil, err
	}
	c.Status = claim.StatusSubmitted
	s.log.Info().Str("claim_id", id).Msg("claim submitted")
	return c, nil
}

// =============================================================================
// BACKGROUND PROCESSING
// =============================================================================

// process runs the job from its recorded stage to completion. Failures
// mark the job failed and reset the claim to pending.
func (s *Service) process(ctx context.Context, job *Job) {
	log := s.log.With().Str("claim_id", job.ClaimID).Logger()
	log.Info().Str("stage", string(job.Stage)).Msg("processing claim")

	stage := job.Stage
	for {
		var next Stage
		var err error

		switch stage {
		case StageDigitize:
			err = s.runDigitize(ctx, job.ClaimID)
			next = StageMatch
		case StageMatch:
			err = s.runMatch(ctx, job.ClaimID)
			next = StageAdjudicate
		case StageAdjudicate:
			err = s.runAdjudicate(ctx, job.ClaimID)
			next = ""
		default:
			err = fmt.Errorf("unknown pipeline stage %q", stage)
		}

		if err != nil {
			log.Error().Err(err).Str("stage", string(stage)).Msg("claim processing failed")
			if ferr := s.jobs.Fail(ctx, job.ID, err.Error()); ferr != nil {
				log.Error().Err(ferr).Msg("recording job failure")
			}
			if uerr := s.claims.Update(ctx, job.ClaimID, claim.StatusUpdate(claim.StatusPending)); uerr != nil {
				log.Error().Err(uerr).Msg("resetting claim to pending")
			}
			return
		}

		if next == "" {
			if cerr := s.jobs.Complete(ctx, job.ID); cerr != nil {
				log.Error().Err(cerr).Msg("completing job")
			}
			log.Info().Msg("claim processing complete")
			return
		}

		if serr := s.jobs.SetStage(ctx, job.ID, next); serr != nil {
			log.Error().Err(serr).Msg("recording stage progress")
		}
		stage = next
	}
}

func (s *Service) runDigitize(ctx context.Context, claimID string) error {
	if err := s.claims.Update(ctx, claimID, claim.StatusUpdate(claim.StatusDigitizing)); err != nil {
		return err
	}
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return err
	}

	extraction, err := s.digitizer.ExtractAll(ctx, c.PrescriptionURLs, c.InvoiceURLs, c.SupportDocumentURLs, nil)
	if err != nil {
		return fmt.Errorf("digitization: %w", err)
	}

	status := claim.StatusAdjudicating
	return s.claims.Update(ctx, claimID, claim.Update{
		Status:           &status,
		PrescriptionData: extraction.Prescription,
		InvoiceData:      extraction.Invoice,
		LabReportData:    extraction.LabReport,
	})
}

// runMatch issues the three per-category matching calls concurrently.
// Matching never errors: degraded verdicts flow through adjudication.
func (s *Service) runMatch(ctx context.Context, claimID string) error {
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return err
	}

	var items claim.LineItems
	if c.InvoiceData != nil {
		items = c.InvoiceData.BillingInfo.LineItems
	}
	var prescribedMedicines []claim.PrescribedMedicine
	var prescribedLabTests []string
	if c.PrescriptionData != nil {
		prescribedMedicines = c.PrescriptionData.MedicalInfo.Medicines
		prescribedLabTests = c.PrescriptionData.MedicalInfo.LabTests
	}

	var medicineMatches, labTestMatches, otherMatches []claim.MatchResult
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		medicineMatches = s.matcher.MatchMedicines(ctx, items.Medicines, prescribedMedicines)
	}()
	go func() {
		defer wg.Done()
		labTestMatches = s.matcher.MatchLabTests(ctx, items.LabTests, prescribedLabTests, c.LabReportData)
	}()
	go func() {
		defer wg.Done()
		otherMatches = s.matcher.MatchOthers(ctx, items.Others, c.PrescriptionData)
	}()
	wg.Wait()

	return s.claims.Update(ctx, claimID, claim.Update{
		MedicineMatches: medicineMatches,
		LabTestMatches:  labTestMatches,
		OtherMatches:    otherMatches,
	})
}

func (s *Service) runAdjudicate(ctx context.Context, claimID string) error {
	c, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return err
	}

	result := s.adjudicator.Adjudicate(c.PrescriptionData, c.InvoiceData, c.LabReportData, c.PolicyName, claim.MatchSet{
		Medicines: c.MedicineMatches,
		LabTests:  c.LabTestMatches,
		Others:    c.OtherMatches,
	})

	status := claim.StatusAdjudicated
	return s.claims.Update(ctx, claimID, claim.Update{
		Status:       &status,
		Adjudication: result,
	})
}
