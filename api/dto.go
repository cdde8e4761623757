/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

ENVELOPE:
  Every response is wrapped in {success, data, message}. Errors carry
  success=false and a human-readable message. Clients branch on the
  boolean, not on HTTP status alone.

VALIDATION:
  Validation is done in the pipeline service, not in DTOs. DTOs are pure
  data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - claim/types.go: The domain model these wrap
*/
package api

import (
	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/pipeline"
)

// =============================================================================
// ENVELOPE
// =============================================================================

// Envelope is the uniform response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// PatientDetails carries the claimant's identity on intake.
type PatientDetails struct {
	Name string `json:"name"`
}

// PolicyDocument names the policy a claim is raised against.
type PolicyDocument struct {
	PolicyName string `json:"policyName"`
	DocumentID string `json:"documentId,omitempty"`
}

// CreateClaimRequest is the intake payload.
type CreateClaimRequest struct {
	PatientDetails      PatientDetails      `json:"patientDetails"`
	PrescriptionsURLs   []claim.DocumentRef `json:"prescriptionsUrls"`
	InvoiceURLs         []claim.DocumentRef `json:"invoiceUrls"`
	SupportDocumentsURL []claim.DocumentRef `json:"supportDocumentsUrl"`
	UserRaisedAmount    string              `json:"userRaisedAmount"`
	RequestDate         string              `json:"requestDate"`
	PolicyDocuments     []PolicyDocument    `json:"policyDocuments"`
}

// toIntake maps the wire payload onto the pipeline's intake type.
func (r CreateClaimRequest) toIntake() pipeline.Intake {
	var policyName string
	if len(r.PolicyDocuments) > 0 {
		policyName = r.PolicyDocuments[0].PolicyName
	}
	return pipeline.Intake{
		PatientName:         r.PatientDetails.Name,
		PrescriptionURLs:    r.PrescriptionsURLs,
		InvoiceURLs:         r.InvoiceURLs,
		SupportDocumentURLs: r.SupportDocumentsURL,
		UserRaisedAmount:    r.UserRaisedAmount,
		RequestDate:         r.RequestDate,
		PolicyName:          policyName,
	}
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// ClaimListData is the paged listing payload.
type ClaimListData struct {
	Claims     []*claim.Claim `json:"claims"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

// PolicyDTO summarizes a supported policy for the catalog endpoint.
type PolicyDTO struct {
	Name            string   `json:"name"`
	InsurerName     string   `json:"insurerName"`
	PolicyStartDate string   `json:"policyStartDate"`
	PolicyEndDate   string   `json:"policyEndDate,omitempty"`
	SumInsured      string   `json:"sumInsured"`
	CoveredBenefits []string `json:"coveredBenefits"`
}
