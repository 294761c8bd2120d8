package analysis

import "github.com/medicinia/medicinia/internal/platform/llm"

// OutputSchema describes the JSON shape the provider must return.
func OutputSchema() *llm.Schema {
	str := func(desc string) *llm.Schema { return &llm.Schema{Type: llm.TypeString, Description: desc} }

	diagnosis := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"code":        str("The CIE-10 code EXACTLY as found in the provided database context."),
			"description": str("The official description."),
			"probability": {
				Type: llm.TypeString,
				Enum: []string{string(ProbabilityHigh), string(ProbabilityMedium), string(ProbabilityLow)},
			},
			"justification": str("Clinical reasoning for this diagnosis."),
		},
		Order:    []string{"code", "description", "probability", "justification"},
		Required: []string{"code", "description", "probability", "justification"},
	}

	procedure := &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"cups":          str("The CUPS code EXACTLY as found in the provided database context."),
			"soat":          str("The SOAT code if available."),
			"description":   str(""),
			"justification": str("Medical necessity for this procedure."),
		},
		Order:    []string{"cups", "soat", "description", "justification"},
		Required: []string{"cups", "description", "justification"},
	}

	return &llm.Schema{
		Type: llm.TypeObject,
		Properties: map[string]*llm.Schema{
			"correctedText": str("The clinical note corrected for grammar, spelling, and professional medical terminology (Spanish). Format: Formal medical record style."),
			"summary":       str("A concise summary of the patient's current evolution."),
			"diagnostics":   {Type: llm.TypeArray, Items: diagnosis},
			"procedures":    {Type: llm.TypeArray, Items: procedure},
			"plan":          str("Detailed clinical management plan (conducta), including medications, exams, or referrals."),
			"alerts": {
				Type:        llm.TypeArray,
				Items:       &llm.Schema{Type: llm.TypeString},
				Description: "Clinical red flags or administrative warnings.",
			},
		},
		Order:    []string{"correctedText", "summary", "diagnostics", "procedures", "plan", "alerts"},
		Required: []string{"correctedText", "summary", "diagnostics", "procedures", "plan", "alerts"},
	}
}
