/*
Package digitize extracts structured data from claim document images.

PURPOSE:
  First pipeline stage. Sends every document URL of a claim (prescriptions,
  invoices, support documents) to the digitization provider in ONE batch
  request. The provider classifies each document and returns structured
  field data; this package partitions the results into the prescription,
  invoice, and lab-report payloads the rest of the pipeline consumes.

BATCHING CONTRACT:
  One request per claim, not per document. The provider's classifier
  decides which document is which, so a prescription uploaded among the
  support documents still lands in the right bucket.

FAILURE SEMANTICS:
  Unlike matching, digitization errors DO fail the stage: without
  structured invoice data there is nothing to adjudicate. The pipeline
  resets the claim to pending on error.

SEE ALSO:
  - fields.go: The extraction field schema
  - pipeline: The consumer of this client
*/
package digitize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/meridian/claims-engine/claim"
)

const defaultConfidenceThreshold = 0.7

// Extraction is the partitioned output of one digitization batch. Any
// field may be nil when the provider found no document of that type.
type Extraction struct {
	Prescription *claim.PrescriptionData
	Invoice      *claim.InvoiceData
	LabReport    *claim.LabReportData
}

// Client talks to the digitization provider.
type Client struct {
	baseURL             string
	apiKey              string
	detectFraud         bool
	confidenceThreshold float64
	http                *http.Client
	log                 zerolog.Logger
}

func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	return &Client{
		baseURL:             baseURL,
		apiKey:              apiKey,
		detectFraud:         true,
		confidenceThreshold: defaultConfidenceThreshold,
		http:                &http.Client{Timeout: 60 * time.Second},
		log:                 log.With().Str("component", "digitization").Logger(),
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type fileRef struct {
	URL string `json:"url"`
}

type extractRequest struct {
	DocumentType string         `json:"document_type"`
	DetectFraud  bool           `json:"detect_fraud"`
	Files        []fileRef      `json:"files"`
	Fields       map[string]any `json:"fields"`
	Options      struct {
		ConfidenceThreshold float64 `json:"confidence_threshold"`
	} `json:"options"`
}

type extractedDocument struct {
	DocumentType string          `json:"document_type"`
	Data         json.RawMessage `json:"data"`
}

type extractResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Documents []extractedDocument `json:"documents"`
	} `json:"data"`
}

// =============================================================================
// EXTRACTION
// =============================================================================

// ExtractAll digitizes every document of a claim in one batch and
// partitions the results by the provider's document classification.
// Prescriptions fall back to the "other" classification because
// handwritten prescriptions are frequently classified as such.
func (c *Client) ExtractAll(ctx context.Context, prescriptions, invoices, supportDocs []claim.DocumentRef, procedures []string) (Extraction, error) {
	var files []fileRef
	for _, set := range [][]claim.DocumentRef{prescriptions, invoices, supportDocs} {
		for _, doc := range set {
			files = append(files, fileRef{URL: doc.URL})
		}
	}
	if len(files) == 0 {
		return Extraction{}, nil
	}

	req := extractRequest{
		DocumentType: "predict",
		DetectFraud:  c.detectFraud,
		Files:        files,
		Fields:       extractionFields(procedures),
	}
	req.Options.ConfidenceThreshold = c.confidenceThreshold

	c.log.Info().Int("files", len(files)).Msg("sending digitization batch")

	resp, err := c.post(ctx, req)
	if err != nil {
		return Extraction{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "unknown error"
		}
		return Extraction{}, fmt.Errorf("document extraction failed: %s", msg)
	}

	return partition(resp.Data.Documents, c.log)
}

func (c *Client) post(ctx context.Context, payload extractRequest) (*extractResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding digitization request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building digitization request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("digitization request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 50<<20))
	if err != nil {
		return nil, fmt.Errorf("reading digitization response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("digitization API error: status %d", httpResp.StatusCode)
	}

	var resp extractResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding digitization response: %w", err)
	}
	return &resp, nil
}

// partition routes each classified document into its typed payload.
// The first document of each type wins.
func partition(documents []extractedDocument, log zerolog.Logger) (Extraction, error) {
	var out Extraction
	for _, doc := range documents {
		switch doc.DocumentType {
		case "prescription", "other":
			if out.Prescription != nil {
				continue
			}
			var data claim.PrescriptionData
			if err := json.Unmarshal(doc.Data, &data); err != nil {
				return Extraction{}, fmt.Errorf("decoding prescription data: %w", err)
			}
			out.Prescription = &data

		case "invoice":
			if out.Invoice != nil {
				continue
			}
			var data claim.InvoiceData
			if err := json.Unmarshal(doc.Data, &data); err != nil {
				return Extraction{}, fmt.Errorf("decoding invoice data: %w", err)
			}
			out.Invoice = &data

		case "lab_report":
			if out.LabReport != nil {
				continue
			}
			var data claim.LabReportData
			if err := json.Unmarshal(doc.Data, &data); err != nil {
				return Extraction{}, fmt.Errorf("decoding lab report data: %w", err)
			}
			out.LabReport = &data

		default:
			log.Warn().Str("document_type", doc.DocumentType).Msg("unrecognized document classification")
		}
	}

	log.Info().
		Bool("prescription", out.Prescription != nil).
		Bool("invoice", out.Invoice != nil).
		Bool("lab_report", out.LabReport != nil).
		Msg("digitization batch partitioned")
	return out, nil
}
