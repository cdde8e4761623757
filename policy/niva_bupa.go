package policy

import "github.com/shopspring/decimal"

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// nivaBupa is the Niva Bupa OPD policy: yearly per-benefit limits with a
// 7500 pharmacy cap and a 25000 overall sum insured.
var nivaBupa = Data{
	BasicInfo: BasicInfo{
		InsurerName:     "Niva Bupa",
		PolicyStartDate: "2025-08-01",
		PolicyEndDate:   "2026-07-31",
		SumInsured:      amount(25000),
	},
	Coverage: Coverage{
		CoveredBenefits: []string{
			"Teleconsultations (General Physician, Specialist, Super Specialist)",
			"Doctor consultations (General Physician, Specialist, Super Specialist - Allopathic)",
			"Prescribed diagnostics (Pathology & Radiology)",
			"Dental - except Cosmetic",
			"Vision including Prescription lens and Frames cover",
			"Prescribed pharmacy (Allopathic only)",
			"WHO Prescribed Vaccines",
			"Prescribed Physiotherapy",
			"Annual Health Check",
		},
		CoverageLimits: []CoverageLimit{
			{BenefitName: "Teleconsultations (General Physician, Specialist, Super Specialist)", LimitAmount: amount(0), LimitType: "Unlimited on Visit App"},
			{BenefitName: "Doctor consultations (General Physician, Specialist, Super Specialist - Allopathic)", LimitAmount: amount(20000), LimitType: "per year"},
			{BenefitName: "Prescribed diagnostics (Pathology & Radiology)", LimitAmount: amount(20000), LimitType: "per year"},
			{BenefitName: "Dental - except Cosmetic", LimitAmount: amount(15000), LimitType: "per year"},
			{BenefitName: "Vision including Prescription lens and Frames cover", LimitAmount: amount(15000), LimitType: "per year"},
			{BenefitName: "Prescribed pharmacy (Allopathic only)", LimitAmount: amount(7500), LimitType: "per year"},
			{BenefitName: "WHO Prescribed Vaccines", LimitAmount: amount(15000), LimitType: "per year"},
			{BenefitName: "Prescribed Physiotherapy", LimitAmount: amount(15000), LimitType: "per year"},
			{BenefitName: "Annual Health Check", LimitAmount: amount(5000), LimitType: "per year"},
		},
	},
	Exclusions: Exclusions{
		ExcludedConditions: []string{
			"Food supplements or dietary pills (e.g., Horlicks, Glucose, Whey Protein, etc.)",
			"Dietary supplements and substances that can be purchased without prescription unless prescribed by a medical practitioner as part of treatment",
			"All non-medical expenses or standard deductions incurred during inpatient hospitalization or day-care treatments",
			"Any ailment with sublimit in Group medical plan coverage cannot be claimed under OPD Policy",
			"Procedure fees or any type of procedure fees paid during an OP consultation (e.g., wound cleaning, dressing)",
			"Over-the-counter (OTC) medicines purchased without a doctor's prescription",
			"Diagnostics investigations done without a doctor's prescription",
		},
	},
}
