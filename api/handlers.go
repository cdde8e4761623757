/*
handlers.go - HTTP API handlers for the claim engine

PURPOSE:
  Exposes the claim lifecycle via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the pipeline
  service.

ENDPOINTS:
  Claims:
    POST   /api/claims             Create claim (starts background processing)
    GET    /api/claims             Paged claim listing
    GET    /api/claims/{id}        Full claim record
    POST   /api/claims/{id}/submit Submit an adjudicated claim

  Policies:
    GET    /api/policies           Supported policy catalog

REQUEST FLOW:
  1. Parse HTTP request
  2. Delegate to pipeline service (validation lives there)
  3. Serialize response envelope
  4. Map domain errors to status codes

ERROR HANDLING:
  Errors are returned as JSON envelopes with appropriate HTTP status:
  - 400: Validation errors, illegal submit transitions
  - 404: Claim not found
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - pipeline: The lifecycle service behind every handler
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/meridian/claims-engine/claim"
	"github.com/meridian/claims-engine/pipeline"
	"github.com/meridian/claims-engine/policy"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Pipeline *pipeline.Service
	Log      zerolog.Logger
}

// NewHandler creates a new handler backed by the pipeline service.
func NewHandler(svc *pipeline.Service, log zerolog.Logger) *Handler {
	return &Handler{Pipeline: svc, Log: log.With().Str("component", "api").Logger()}
}

// =============================================================================
// CLAIM HANDLERS
// =============================================================================

// CreateClaim accepts a new claim and starts background processing.
// POST /api/claims
func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req CreateClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := h.Pipeline.CreateClaim(r.Context(), req.toIntake())
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Data:    c,
		Message: "Claim created successfully",
	})
}

// ListClaims returns a page of claims, most recent first.
// GET /api/claims?page=1&limit=10
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	claims, total, err := h.Pipeline.ListClaims(r.Context(), page, limit)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: ClaimListData{
			Claims:     claims,
			Total:      total,
			Page:       page,
			TotalPages: totalPages,
		},
	})
}

// GetClaim returns the full claim record including digitized payloads,
// match results, and the adjudication result once present.
// GET /api/claims/{id}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Pipeline.GetClaim(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: c})
}

// SubmitClaim moves an adjudicated claim to submitted.
// POST /api/claims/{id}/submit
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	c, err := h.Pipeline.SubmitClaim(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data:    c,
		Message: "Claim submitted successfully",
	})
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns the supported policy catalog.
// GET /api/policies
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	names := policy.Names()
	dtos := make([]PolicyDTO, 0, len(names))
	for _, name := range names {
		p := policy.Lookup(name)
		if p == nil {
			continue
		}
		dtos = append(dtos, PolicyDTO{
			Name:            name,
			InsurerName:     p.BasicInfo.InsurerName,
			PolicyStartDate: p.BasicInfo.PolicyStartDate,
			PolicyEndDate:   p.BasicInfo.PolicyEndDate,
			SumInsured:      p.BasicInfo.SumInsured.String(),
			CoveredBenefits: p.Coverage.CoveredBenefits,
		})
	}

	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: dtos})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case claim.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Claim not found")
	case claim.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Success: false, Message: message})
}
