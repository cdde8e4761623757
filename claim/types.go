/*
Package claim defines the core domain model for reimbursement claims.

PURPOSE:
  This package contains the types shared by every stage of the claim
  pipeline: the claim record itself, the digitized document payloads,
  the per-line-item matching verdicts, and the final adjudication result.

KEY CONCEPTS IN THIS FILE (types.go):
  - Claim: A single reimbursement request moving through the lifecycle
  - Status: The lifecycle state machine (pending → ... → submitted)
  - MatchResult: One verdict per invoice line item, aligned by index
  - AdjudicationResult: The terminal artifact of the pipeline

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for all amounts to avoid
     floating-point errors in limit arithmetic
  2. Forward-only status: Only the pipeline advances a claim's status;
     the single exception is the user-triggered submit transition
  3. Positional alignment: one MatchResult per invoice line item; a
     missing entry is treated as unmatched

SEE ALSO:
  - store.go: Persistence interface for claim records
  - errors.go: Sentinel errors and structured status errors
*/
package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS - Claim lifecycle state machine
// =============================================================================

type Status string

const (
	StatusPending      Status = "pending"
	StatusDigitizing   Status = "digitizing"
	StatusAdjudicating Status = "adjudicating"
	StatusAdjudicated  Status = "adjudicated"
	StatusSubmitted    Status = "submitted"
)

// =============================================================================
// CLAIM - The unit of work
// =============================================================================

// DocumentRef points at a source document image/PDF.
type DocumentRef struct {
	URL        string `json:"url"`
	DocumentID string `json:"documentId,omitempty"`
}

// Claim is a single reimbursement request. It is created on intake with
// StatusPending and mutated exclusively by the pipeline afterwards, except
// for the user-triggered submit transition.
type Claim struct {
	ID          string `json:"id"`
	PatientName string `json:"patientName"`

	PrescriptionURLs    []DocumentRef `json:"prescriptionsUrls"`
	InvoiceURLs         []DocumentRef `json:"invoiceUrls"`
	SupportDocumentURLs []DocumentRef `json:"supportDocumentsUrl"`

	UserRaisedAmount string `json:"userRaisedAmount"`
	RequestDate      string `json:"requestDate"`
	PolicyName       string `json:"policyName"`

	Status Status `json:"status"`

	// Digitized payloads, populated during processing.
	PrescriptionData *PrescriptionData `json:"prescriptionData,omitempty"`
	InvoiceData      *InvoiceData      `json:"invoiceData,omitempty"`
	LabReportData    *LabReportData    `json:"labReportData,omitempty"`

	// Per-category matching verdicts, populated during processing.
	MedicineMatches []MatchResult `json:"medicineMatches,omitempty"`
	LabTestMatches  []MatchResult `json:"labTestMatches,omitempty"`
	OtherMatches    []MatchResult `json:"othersMatches,omitempty"`

	Adjudication *AdjudicationResult `json:"adjudicationResult,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// =============================================================================
// DIGITIZED PAYLOADS - Structured field data per document category
// =============================================================================

// FraudAnalysis is the digitization collaborator's tamper verdict for a
// document. Stored for audit; not decisive in adjudication.
type FraudAnalysis struct {
	Fake       bool   `json:"fake"`
	Message    string `json:"message"`
	Confidence string `json:"confidence"`
}

type PatientInfo struct {
	PatientName string `json:"patient_name"`
}

type DoctorInfo struct {
	DoctorName     string `json:"doctor_name"`
	DoctorVertical string `json:"doctor_vertical"`
}

// PrescribedMedicine is one medicine line on the prescription.
type PrescribedMedicine struct {
	MedicineName   string `json:"medicine_name"`
	MedicineDosage string `json:"medicine_dosage"`
}

type MedicalInfo struct {
	DiagnosisPrimary string               `json:"diagnosis_primary"`
	ClinicalSummary  string               `json:"clinical_summary"`
	Medicines        []PrescribedMedicine `json:"medicines"`
	LabTests         []string             `json:"lab_tests"`
}

type PrescriptionData struct {
	PatientInfo   PatientInfo    `json:"patient_info"`
	DoctorInfo    DoctorInfo     `json:"doctor_info"`
	MedicalInfo   MedicalInfo    `json:"medical_info"`
	FraudAnalysis *FraudAnalysis `json:"fraud_analysis,omitempty"`
}

type InvoiceMetadata struct {
	InvoiceNumber string `json:"invoice_number"`
	InvoiceDate   string `json:"invoice_date"`
}

// LineItem is one invoiced service or product. TotalCost is the claimed
// amount for adjudication; a zero TotalCost claims nothing.
type LineItem struct {
	Name      string          `json:"name"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Quantity  decimal.Decimal `json:"quantity"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// LineItems groups invoice line items by category. Categories map to
// policy benefits independently and carry independent running limits.
type LineItems struct {
	Medicines []LineItem `json:"medicines"`
	LabTests  []LineItem `json:"lab_tests"`
	Others    []LineItem `json:"others"`
}

type BillingInfo struct {
	LineItems LineItems `json:"line_items"`
}

type InvoiceData struct {
	ReimbursementType string          `json:"reimbursement_type,omitempty"`
	InvoiceMetadata   InvoiceMetadata `json:"invoice_metadata"`
	BillingInfo       BillingInfo     `json:"billing_info"`
	FraudAnalysis     *FraudAnalysis  `json:"fraud_analysis,omitempty"`
}

// LabObservation is one result row from a digitized lab report.
type LabObservation struct {
	TestName       string `json:"test_name"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"reference_range"`
}

type LabReportData struct {
	LabTests      []LabObservation `json:"lab_tests"`
	FraudAnalysis *FraudAnalysis   `json:"fraud_analysis,omitempty"`
}

// =============================================================================
// MATCH RESULT - One verdict per invoice line item
// =============================================================================

// Category identifies which line-item bucket an item belongs to.
type Category string

const (
	CategoryMedicine Category = "medicine"
	CategoryLab      Category = "lab"
	CategoryOther    Category = "other"
)

// MatchResult is the matching collaborator's verdict for a single invoice
// line item. AdjudicatedAmount is written back by the adjudicator.
type MatchResult struct {
	Index                    int      `json:"index"`
	Name                     string   `json:"name"`
	IsPrescriptionMatch      bool     `json:"isPrescriptionMatch"`
	MatchedPrescriptionIndex *int     `json:"matchedPrescriptionIndex,omitempty"`
	Remark                   string   `json:"remark"`
	Reason                   string   `json:"reason"`
	PotentialOCRError        bool     `json:"potentialOCRError,omitempty"`
	SuggestedAlternatives    []string `json:"suggestedAlternatives,omitempty"`
	IsLabReportPresent       *bool    `json:"isLabReportPresent,omitempty"`
	RequiresManualReview     bool     `json:"requiresManualReview,omitempty"`

	AdjudicatedAmount decimal.Decimal `json:"adjudicatedAmount"`
}

// MatchSet bundles the three per-category verdict lists.
type MatchSet struct {
	Medicines []MatchResult `json:"medicines"`
	LabTests  []MatchResult `json:"labTests"`
	Others    []MatchResult `json:"others"`
}

// =============================================================================
// ADJUDICATION RESULT - Terminal artifact of the pipeline
// =============================================================================

// RejectionKind is the machine-readable code on a rejection reason.
type RejectionKind string

const (
	RejectPolicyNotFound      RejectionKind = "policyNotFound"
	RejectPolicyNotActive     RejectionKind = "policyNotActive"
	RejectInvoiceBeforePolicy RejectionKind = "invoiceBeforePolicyDate"
	RejectBenefitNotCovered   RejectionKind = "benefitNotCovered"
)

// Blocking reports whether this kind of reason suppresses approval on its
// own. Item-level benefitNotCovered reasons do not: partial approval with
// some uncovered items is still an approval.
func (k RejectionKind) Blocking() bool {
	switch k {
	case RejectPolicyNotFound, RejectPolicyNotActive, RejectInvoiceBeforePolicy:
		return true
	}
	return false
}

type RejectionReason struct {
	Value     RejectionKind `json:"value"`
	Title     string        `json:"title"`
	Reasoning string        `json:"reasoning"`
}

// PolicyValidation summarizes the policy-level checks for display.
type PolicyValidation struct {
	IsActive        bool `json:"isActive"`
	IsDateValid     bool `json:"isDateValid"`
	BenefitCoverage bool `json:"benefitCoverage"`
	CoverageLimits  bool `json:"coverageLimits"`
}

// AdjudicationResult is created once per claim and immutable afterwards.
type AdjudicationResult struct {
	Approved                bool              `json:"approved"`
	RejectionReasons        []RejectionReason `json:"rejectionReasons,omitempty"`
	Notes                   string            `json:"notes,omitempty"`
	TotalClaimedAmount      decimal.Decimal   `json:"totalClaimedAmount"`
	TotalReimbursableAmount decimal.Decimal   `json:"totalReimbursableAmount"`
	Explanation             string            `json:"explanation,omitempty"`
	ProcessedAt             time.Time         `json:"processedAt"`
	MatchingResults         MatchSet          `json:"matchingResults"`
	PolicyValidation        PolicyValidation  `json:"policyValidation"`
}

// HasBlockingReason reports whether any rejection reason suppresses
// approval regardless of the reimbursable total.
func (r *AdjudicationResult) HasBlockingReason() bool {
	for _, reason := range r.RejectionReasons {
		if reason.Value.Blocking() {
			return true
		}
	}
	return false
}

// IsPartial reports whether the claim was approved for less than the
// claimed total.
func (r *AdjudicationResult) IsPartial() bool {
	return r.Approved && r.TotalReimbursableAmount.LessThan(r.TotalClaimedAmount)
}
