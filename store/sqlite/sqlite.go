/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements claim.Store (claim records) and pipeline.JobStore (durable
  processing jobs) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  claims:     One row per reimbursement claim. Digitized payloads, match
              results, and the adjudication result are stored as JSON
              columns - the engine reads and writes whole payloads, it
              never queries inside them.
  claim_jobs: Durable processing queue. A pending row means the claim
              still needs pipeline work; failed rows keep their cause.

PARTIAL UPDATES:
  claim.Update carries only the fields a pipeline stage changed. The
  store reads the row, applies the update, and rewrites the mutable
  columns under the writer lock, so concurrent readers never observe a
  half-written claim.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/claims.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - claim/store.go: The claim.Store contract
  - pipeline/jobs.go: The JobStore contract
  - claim/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/pipeline"
)

// Store implements claim.Store and pipeline.JobStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Claims (one row per reimbursement claim)
	CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		patient_name TEXT NOT NULL,
		prescription_urls_json TEXT NOT NULL,
		invoice_urls_json TEXT NOT NULL,
		support_urls_json TEXT NOT NULL,
		user_raised_amount TEXT NOT NULL,
		request_date TEXT NOT NULL,
		policy_name TEXT NOT NULL,
		status TEXT NOT NULL,
		prescription_data_json TEXT,
		invoice_data_json TEXT,
		lab_report_data_json TEXT,
		medicine_matches_json TEXT,
		lab_test_matches_json TEXT,
		other_matches_json TEXT,
		adjudication_json TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Paged listing orders by recency (hot path)
	CREATE INDEX IF NOT EXISTS idx_claims_created_at
		ON claims(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_claims_status
		ON claims(status);

	-- Processing jobs (durable queue)
	CREATE TABLE IF NOT EXISTS claim_jobs (
		id TEXT PRIMARY KEY,
		claim_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		state TEXT NOT NULL,
		attempts INTEGER DEFAULT 0,
		last_error TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_claim_jobs_state
		ON claim_jobs(state);
	CREATE INDEX IF NOT EXISTS idx_claim_jobs_claim
		ON claim_jobs(claim_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CLAIM STORE (claim.Store interface)
// =============================================================================

// Create persists a new claim.
func (s *Store) Create(ctx context.Context, c *claim.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO claims
		(id, patient_name, prescription_urls_json, invoice_urls_json, support_urls_json,
		 user_raised_amount, request_date, policy_name, status,
		 prescription_data_json, invoice_data_json, lab_report_data_json,
		 medicine_matches_json, lab_test_matches_json, other_matches_json,
		 adjudication_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		c.PatientName,
		mustMarshal(c.PrescriptionURLs),
		mustMarshal(c.InvoiceURLs),
		mustMarshal(c.SupportDocumentURLs),
		c.UserRaisedAmount,
		c.RequestDate,
		c.PolicyName,
		string(c.Status),
		marshalNullable(c.PrescriptionData),
		marshalNullable(c.InvoiceData),
		marshalNullable(c.LabReportData),
		marshalNullable(c.MedicineMatches),
		marshalNullable(c.LabTestMatches),
		marshalNullable(c.OtherMatches),
		marshalNullable(c.Adjudication),
		c.CreatedAt.UTC().Format(time.RFC3339Nano),
		c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

// Get returns the claim by id, or claim.ErrClaimNotFound.
func (s *Store) Get(ctx context.Context, id string) (*claim.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getLocked(ctx, id)
}

func (s *Store) getLocked(ctx context.Context, id string) (*claim.Claim, error) {
	row := s.db.QueryRowContext(ctx, claimSelect+" WHERE id = ?", id)
	c, err := scanClaim(row)
	if err == sql.ErrNoRows {
		return nil, claim.ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

const claimSelect = `
	SELECT id, patient_name, prescription_urls_json, invoice_urls_json, support_urls_json,
	       user_raised_amount, request_date, policy_name, status,
	       prescription_data_json, invoice_data_json, lab_report_data_json,
	       medicine_matches_json, lab_test_matches_json, other_matches_json,
	       adjudication_json, created_at, updated_at
	FROM claims`

// List returns a page of claims ordered most-recently-created first,
// plus the total count across all pages.
func (s *Store) List(ctx context.Context, page, limit int) ([]*claim.Claim, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM claims").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count claims: %w", err)
	}

	offset := (page - 1) * limit
	rows, err := s.db.QueryContext(ctx,
		claimSelect+" ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	claims := []*claim.Claim{}
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, 0, err
		}
		claims = append(claims, c)
	}
	return claims, total, rows.Err()
}

// Update applies the set fields of upd to the claim. The row is read,
// patched, and rewritten under the writer lock.
func (s *Store) Update(ctx context.Context, id string, upd claim.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getLocked(ctx, id)
	if err != nil {
		return err
	}
	upd.Apply(c)
	c.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE claims SET
			status = ?,
			prescription_data_json = ?,
			invoice_data_json = ?,
			lab_report_data_json = ?,
			medicine_matches_json = ?,
			lab_test_matches_json = ?,
			other_matches_json = ?,
			adjudication_json = ?,
			updated_at = ?
		WHERE id = ?
	`

	_, err = s.db.ExecContext(ctx, query,
		string(c.Status),
		marshalNullable(c.PrescriptionData),
		marshalNullable(c.InvoiceData),
		marshalNullable(c.LabReportData),
		marshalNullable(c.MedicineMatches),
		marshalNullable(c.LabTestMatches),
		marshalNullable(c.OtherMatches),
		marshalNullable(c.Adjudication),
		c.UpdatedAt.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*claim.Claim, error) {
	var (
		c                claim.Claim
		status           string
		rxURLs           string
		invURLs          string
		supportURLs      string
		rxData           sql.NullString
		invData          sql.NullString
		labData          sql.NullString
		medMatches       sql.NullString
		labMatches       sql.NullString
		otherMatches     sql.NullString
		adjudicationJSON sql.NullString
		createdAt        string
		updatedAt        string
	)

	err := row.Scan(
		&c.ID, &c.PatientName, &rxURLs, &invURLs, &supportURLs,
		&c.UserRaisedAmount, &c.RequestDate, &c.PolicyName, &status,
		&rxData, &invData, &labData,
		&medMatches, &labMatches, &otherMatches,
		&adjudicationJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = claim.Status(status)
	if err := json.Unmarshal([]byte(rxURLs), &c.PrescriptionURLs); err != nil {
		return nil, fmt.Errorf("failed to decode prescription urls: %w", err)
	}
	if err := json.Unmarshal([]byte(invURLs), &c.InvoiceURLs); err != nil {
		return nil, fmt.Errorf("failed to decode invoice urls: %w", err)
	}
	if err := json.Unmarshal([]byte(supportURLs), &c.SupportDocumentURLs); err != nil {
		return nil, fmt.Errorf("failed to decode support urls: %w", err)
	}
	unmarshalNullable(rxData, &c.PrescriptionData)
	unmarshalNullable(invData, &c.InvoiceData)
	unmarshalNullable(labData, &c.LabReportData)
	unmarshalNullable(medMatches, &c.MedicineMatches)
	unmarshalNullable(labMatches, &c.LabTestMatches)
	unmarshalNullable(otherMatches, &c.OtherMatches)
	unmarshalNullable(adjudicationJSON, &c.Adjudication)
	c.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &c, nil
}

// =============================================================================
// JOB STORE (pipeline.JobStore interface)
// =============================================================================

// Enqueue persists a new pending job.
func (s *Store) Enqueue(ctx context.Context, job *pipeline.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	query := `
		INSERT INTO claim_jobs (id, claim_id, stage, state, attempts, last_error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		job.ID, job.ClaimID, string(job.Stage), string(pipeline.JobPending),
		job.Attempts, job.LastError, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Pending returns all pending jobs, oldest first.
func (s *Store) Pending(ctx context.Context) ([]*pipeline.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, claim_id, stage, state, attempts, last_error, created_at, updated_at
		FROM claim_jobs
		WHERE state = ?
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(pipeline.JobPending))
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*pipeline.Job
	for rows.Next() {
		var (
			job       pipeline.Job
			stage     string
			state     string
			lastError sql.NullString
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&job.ID, &job.ClaimID, &stage, &state, &job.Attempts,
			&lastError, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		job.Stage = pipeline.Stage(stage)
		job.State = pipeline.JobState(state)
		job.LastError = lastError.String
		job.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		job.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		jobs = append(jobs, &job)
	}
	return jobs, rows.Err()
}

// SetStage records stage progress and bumps the attempt counter.
func (s *Store) SetStage(ctx context.Context, id string, stage pipeline.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE claim_jobs SET stage = ?, attempts = attempts + 1, updated_at = ? WHERE id = ?",
		string(stage), time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

// Complete marks the job done.
func (s *Store) Complete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE claim_jobs SET state = ?, updated_at = ? WHERE id = ?",
		string(pipeline.JobDone), time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

// Fail marks the job failed with its cause.
func (s *Store) Fail(ctx context.Context, id string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE claim_jobs SET state = ?, last_error = ?, updated_at = ? WHERE id = ?",
		string(pipeline.JobFailed), cause, time.Now().UTC().Format(time.RFC3339Nano), id)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"claims", "claim_jobs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func mustMarshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// marshalNullable returns NULL for nil pointers and empty slices so the
// JSON columns stay NULL until a pipeline stage writes them.
func marshalNullable(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}
	}
	js := string(b)
	if js == "null" || js == "[]" {
		return sql.NullString{}
	}
	return sql.NullString{String: js, Valid: true}
}

func unmarshalNullable(src sql.NullString, dst any) {
	if !src.Valid || strings.TrimSpace(src.String) == "" {
		return
	}
	json.Unmarshal([]byte(src.String), dst)
}
