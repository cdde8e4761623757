/*
store.go - Persistence interface for claim records

PURPOSE:
  Defines the contract between the pipeline and the database. The engine
  only needs a read/write record store: create, read-by-id, paged list,
  and partial-field update. Different implementations can use SQLite,
  PostgreSQL, or in-memory storage.

PARTIAL UPDATES:
  The pipeline persists intermediate state after every stage (digitized
  payloads, match results, adjudication, status). Update applies only the
  fields set on the Update struct, so concurrent readers never observe a
  half-written claim wiped back to zero values.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - claim/store/memory.go: In-memory for testing

SEE ALSO:
  - types.go: The Claim record
  - pipeline: The only writer after intake
*/
package claim

import "context"

// =============================================================================
// STORE - Claim record persistence
// =============================================================================

// Store handles persistence of claim records.
type Store interface {
	// Create persists a new claim.
	Create(ctx context.Context, c *Claim) error

	// Get returns the claim by id, or ErrClaimNotFound.
	Get(ctx context.Context, id string) (*Claim, error)

	// List returns a page of claims ordered by most-recently-created
	// first, plus the total count across all pages.
	List(ctx context.Context, page, limit int) ([]*Claim, int, error)

	// Update applies the set fields of upd to the claim. Unset fields
	// are left untouched. Returns ErrClaimNotFound for unknown ids.
	Update(ctx context.Context, id string, upd Update) error
}

// Update is a partial-field update. Nil pointers mean "leave unchanged".
type Update struct {
	Status           *Status
	PrescriptionData *PrescriptionData
	InvoiceData      *InvoiceData
	LabReportData    *LabReportData
	MedicineMatches  []MatchResult
	LabTestMatches   []MatchResult
	OtherMatches     []MatchResult
	Adjudication     *AdjudicationResult
}

// Apply copies the set fields onto c. Shared by store implementations.
func (u Update) Apply(c *Claim) {
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.PrescriptionData != nil {
		c.PrescriptionData = u.PrescriptionData
	}
	if u.InvoiceData != nil {
		c.InvoiceData = u.InvoiceData
	}
	if u.LabReportData != nil {
		c.LabReportData = u.LabReportData
	}
	if u.MedicineMatches != nil {
		c.MedicineMatches = u.MedicineMatches
	}
	if u.LabTestMatches != nil {
		c.LabTestMatches = u.LabTestMatches
	}
	if u.OtherMatches != nil {
		c.OtherMatches = u.OtherMatches
	}
	if u.Adjudication != nil {
		c.Adjudication = u.Adjudication
	}
}

// StatusUpdate is a convenience constructor for status-only updates.
func StatusUpdate(s Status) Update {
	return Update{Status: &s}
}
