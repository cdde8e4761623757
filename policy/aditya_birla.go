package policy

// adityaBirla is the Aditya Birla OPD wallet: every benefit shares the
// 15000 wallet limit and the policy has no end date.
var adityaBirla = Data{
	BasicInfo: BasicInfo{
		PolicyType:      "Health Insurance",
		InsurerName:     "Aditya Birla Health Insurance",
		PolicyStartDate: "2025-04-02",
		SumInsured:      amount(15000),
	},
	Coverage: Coverage{
		CoveredBenefits: []string{
			"GP/Specialist Consultation",
			"Prescribed Diagnostics",
			"Dental Procedure",
			"Vision Procedure",
			"Prescribed Pharmacy",
			"COVID Vaccination",
			"Teleconsultation",
		},
		CoverageLimits: []CoverageLimit{
			{BenefitName: "GP/Specialist Consultation", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "Prescribed Diagnostics", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "Dental Procedure", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "Vision Procedure", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "Prescribed Pharmacy", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "COVID Vaccination", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
			{BenefitName: "Teleconsultation", LimitAmount: amount(15000), LimitType: "Up to the Wallet Limit"},
		},
	},
	Exclusions: Exclusions{
		ExcludedConditions: []string{
			"Food, Food Supplements or Dietary Pills (e.g., Horlicks, Glucose, Whey Protein, etc.)",
			"Dietary supplements and substances, including but not limited to Vitamins, minerals and organic substances not covered unless prescribed by a medical practitioner as part of treatment",
			"All non-medical expenses or standard deductions incurred during inpatient hospitalization or day-care treatments",
			"Any ailment with sublimit in Group medical plan coverage cannot be claimed under OPD Policy",
			"Mental health/Development disorders not covered (unless called out in inclusion list)",
			"Procedure fee or any type of procedure fees paid during an OP consultation",
		},
	},
	Synopsis: Synopsis{
		KeyPoints: []string{
			"OPD benefits can be availed in a cashless manner through the Visit App",
			"Reimbursement claims can also be submitted on the Visit App",
			"The teleconsultation benefit is available on a cashless basis only",
			"Wallet is shared between the employee and the dependents",
		},
	},
}
