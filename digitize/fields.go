/*
fields.go - Extraction field schema

PURPOSE:
  The field schema sent with every digitization request. One combined
  schema covers all document types in a single call; the provider
  classifies each document and fills whichever sections apply.
*/
package digitize

// fieldSpec describes one extractable field to the provider.
type fieldSpec struct {
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Enum        []string       `json:"enum,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Items       *fieldSpec     `json:"items,omitempty"`
}

// extractionFields builds the invoice-centric schema used for every
// document in the batch. Procedures, when known, constrain the
// reimbursement-type classification.
func extractionFields(procedures []string) map[string]any {
	return map[string]any{
		"reimbursement_type": fieldSpec{
			Type:        "string",
			Description: "Reimbursement type based on services provided",
			Enum:        procedures,
		},
		"invoice_metadata": map[string]any{
			"invoice_number": fieldSpec{Type: "string", Description: "Invoice number or bill reference number"},
			"invoice_date":   fieldSpec{Type: "date", Description: "Date when the invoice was issued"},
			"contact_number": fieldSpec{Type: "array", Description: "Contact number of the clinic or hospital"},
		},
		"patient_provider_details": map[string]any{
			"patient_name":   fieldSpec{Type: "string", Description: "Patient's full name as written on invoice"},
			"clinic_name":    fieldSpec{Type: "string", Description: "Name of the hospital, clinic, or healthcare provider"},
			"clinic_address": fieldSpec{Type: "string", Description: "Address of the healthcare provider"},
			"doctor_name":    fieldSpec{Type: "string", Description: "Doctor's name (if mentioned on invoice)"},
		},
		"billing_info": map[string]any{
			"line_items": fieldSpec{
				Type:        "object",
				Description: "Categorized list of services/products grouped by type",
				Properties: map[string]any{
					"lab_tests": fieldSpec{Type: "array", Description: "List of diagnostic tests and laboratory procedures"},
					"medicines": fieldSpec{Type: "array", Description: "List of medications and pharmaceutical items"},
					"others":    fieldSpec{Type: "array", Description: "List of other medical services"},
				},
			},
			"gross_total":     fieldSpec{Type: "number", Description: "Gross total amount before adjustments"},
			"tax_amount":      fieldSpec{Type: "number", Description: "Tax amount (if any)"},
			"discount_amount": fieldSpec{Type: "number", Description: "Total discount or adjustment amount"},
			"final_amount":    fieldSpec{Type: "number", Description: "Final amount paid after all adjustments"},
		},
	}
}
