/*
prompts.go - Matching prompt construction

PURPOSE:
  System prompts and user-prompt builders for the three per-category
  matching calls. Each prompt demands a bare JSON array keyed by the
  invoice item index; the matcher still strips code fences defensively
  because models do not always comply.
*/
package match

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/meridian/claims-engine/claim"
)

// minimalItem is the slimmed-down invoice line sent to the model.
type minimalItem struct {
	Index    int             `json:"index"`
	Name     string          `json:"name"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Quantity decimal.Decimal `json:"quantity"`
}

func minimalItems(items []claim.LineItem) []minimalItem {
	out := make([]minimalItem, len(items))
	for i, item := range items {
		out[i] = minimalItem{Index: i, Name: item.Name, UnitCost: item.UnitCost, Quantity: item.Quantity}
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

// =============================================================================
// MEDICINES
// =============================================================================

const medicineSystemPrompt = `You are a medicine matching expert. Your task is to match medicines from an invoice with medicines from a prescription, determining:
1. Whether each invoice medicine is present in the prescription
2. Whether it's a substitute/equivalent medicine
3. Whether it's an over-the-counter (OTC) medicine
4. Whether there might be OCR errors causing mismatches

MATCHING GUIDELINES:
- Use fuzzy matching to handle OCR errors and typos
- Consider generic names, brand names, and common variations
- Match by therapeutic effect even if different chemical composition
- Consider dosage forms and strength variations

OCR ERROR HANDLING:
- OCR systems frequently misread handwritten prescriptions and printed invoices
- Consider phonetic similarity and character substitutions
- When medicine names are >70% similar and treat similar conditions, mark isPrescriptionMatch as TRUE
- When in doubt about OCR errors, lean towards approval rather than rejection

QUANTITY VALIDATION:
- If invoice quantity <= prescription quantity: ACCEPT
- If invoice quantity > prescription quantity: FLAG as quantity exceeded
- If no quantity in prescription: ACCEPT

Output format: JSON array with objects containing:
- index: number (from input)
- name: string (medicine name)
- isPrescriptionMatch: boolean
- matchedPrescriptionIndex: number (from input)
- remark: string (brief status)
- reason: string (explanation)
- potentialOCRError: boolean
- suggestedAlternatives: array of potential matches if OCR error suspected

CRITICAL: Return ONLY the JSON array. No markdown, no code blocks, no extra text.`

type minimalMedicine struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

func buildMedicinePrompt(invoice []claim.LineItem, prescribed []claim.PrescribedMedicine) string {
	rx := make([]minimalMedicine, len(prescribed))
	for i, med := range prescribed {
		rx[i] = minimalMedicine{Index: i, Name: med.MedicineName, Dosage: med.MedicineDosage}
	}
	return fmt.Sprintf(`Match these invoice medicines with prescription medicines:

INVOICE:
%s

PRESCRIPTION:
%s

IMPORTANT RULES:
1. Use fuzzy matching to handle OCR errors and typos
2. Check quantity: invoice qty should be <= prescription qty
3. If no quantity in prescription, accept the invoice quantity
4. Consider brand names, generic names, and therapeutic equivalents

Output only the JSON array, nothing else.`, mustJSON(minimalItems(invoice)), mustJSON(rx))
}

// =============================================================================
// LAB TESTS
// =============================================================================

const labTestSystemPrompt = `You are a lab test matching expert. Your task is to match lab tests from an invoice with lab tests from a prescription, determining:
1. Whether each invoice lab test is present in the prescription
2. Whether it's a related/equivalent test
3. Whether there might be OCR errors causing mismatches

MATCHING GUIDELINES:
- Consider test names, abbreviations, and common variations (CBC = Complete Blood Count, LFT = Liver Function Test)
- A medical "panel" or "profile" is a group of tests ordered together; individual components of a prescribed panel should be approved
- Handle common OCR mistakes; if you suspect an OCR error OR the test is a component of a prescribed panel, mark isPrescriptionMatch as TRUE

Output format: JSON array with objects containing:
- index: number (from input)
- name: string (lab test name)
- isPrescriptionMatch: boolean
- isLabReportPresent: boolean (if lab report content matches the test)
- matchedPrescriptionIndex: number (from input)
- remark: string (brief status)
- reason: string (explanation)
- potentialOCRError: boolean
- suggestedAlternatives: array of potential matches if OCR error suspected
- requiresManualReview: boolean (true if OCR error detected or uncertain match)

CRITICAL: Return ONLY the JSON array. No markdown, no code blocks, no extra text.`

type minimalLabTest struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func buildLabTestPrompt(invoice []claim.LineItem, prescribed []string, labReport *claim.LabReportData) string {
	rx := make([]minimalLabTest, len(prescribed))
	for i, name := range prescribed {
		rx[i] = minimalLabTest{Index: i, Name: name}
	}
	var observations []claim.LabObservation
	if labReport != nil {
		observations = labReport.LabTests
	}
	return fmt.Sprintf(`Match these invoice lab tests with prescription lab tests:

INVOICE:
%s

PRESCRIPTION:
%s

LAB REPORT DATA:
%s

For each invoice lab test:
1. First match it with prescription lab tests
2. If there's a match and lab report data is available, verify if the lab report content contains the test

Output only the JSON array, nothing else.`, mustJSON(minimalItems(invoice)), mustJSON(rx), mustJSON(observations))
}

// =============================================================================
// OTHER SERVICES
// =============================================================================

const othersSystemPrompt = `You are a medical service matching expert. Your task is to match other medical services/items from an invoice with prescription details, determining:
1. Whether each invoice item is justified by the prescription
2. Whether it's a related medical service or standard procedure
3. Whether it's a financial adjustment (discount, GST, tax)

FINANCIAL ITEMS (AUTOMATIC APPROVAL):
- Discounts, offers, rebates: ALWAYS approve (isPrescriptionMatch: true)
- GST, taxes, CGST, SGST: ALWAYS approve (isPrescriptionMatch: true)
- These are billing adjustments, not medical services requiring prescription

MEDICAL SERVICES (REQUIRE PRESCRIPTION MATCH):
- Consultation fees, procedures, treatments, diagnostic services, medical supplies
- These need prescription justification from the diagnosis or clinical summary

Output format: JSON array with objects containing:
- index: number (from input)
- name: string (service/item name)
- isPrescriptionMatch: boolean
- matchedPrescriptionIndex: number (from input)
- remark: string (brief status)
- reason: string (explanation)

CRITICAL: Return ONLY the JSON array. No markdown, no code blocks, no extra text.`

type prescriptionContext struct {
	Diagnosis       string `json:"diagnosis"`
	ClinicalSummary string `json:"clinical_summary"`
}

func buildOthersPrompt(invoice []claim.LineItem, prescription *claim.PrescriptionData) string {
	var ctx prescriptionContext
	if prescription != nil {
		ctx.Diagnosis = prescription.MedicalInfo.DiagnosisPrimary
		ctx.ClinicalSummary = prescription.MedicalInfo.ClinicalSummary
	}
	return fmt.Sprintf(`Match these invoice other services/items with prescription details:

INVOICE:
%s

PRESCRIPTION DETAILS:
%s

Output only the JSON array, nothing else.`, mustJSON(minimalItems(invoice)), mustJSON(ctx))
}
