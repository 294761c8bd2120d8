package analysis

// Probability grades a suggested diagnosis.
type Probability string

const (
	ProbabilityHigh   Probability = "High"
	ProbabilityMedium Probability = "Medium"
	ProbabilityLow    Probability = "Low"
)

var validProbabilities = map[Probability]bool{
	ProbabilityHigh: true, ProbabilityMedium: true, ProbabilityLow: true,
}

// Valid reports whether p is one of the enumerated values.
func (p Probability) Valid() bool { return validProbabilities[p] }

// SuggestedDiagnosis is a CIE-10 code proposed for the note.
type SuggestedDiagnosis struct {
	Code          string      `json:"code"`
	Description   string      `json:"description"`
	Probability   Probability `json:"probability"`
	Justification string      `json:"justification"`
}

// SuggestedProcedure is a CUPS code proposed for the note.
type SuggestedProcedure struct {
	CupsCode      string `json:"cups"`
	SoatCode      string `json:"soat,omitempty"`
	Description   string `json:"description"`
	Justification string `json:"justification"`
}

// Result is the structured assessment of one clinical note.
type Result struct {
	CorrectedText string               `json:"correctedText"`
	Summary       string               `json:"summary"`
	Diagnostics   []SuggestedDiagnosis `json:"diagnostics"`
	Procedures    []SuggestedProcedure `json:"procedures"`
	Plan          string               `json:"plan"`
	Alerts        []string             `json:"alerts"`
}

// CodeSet answers vocabulary membership for the active codes a prompt was
// built from.
type CodeSet interface {
	HasDiagnostic(code string) bool
	HasProcedure(code string) bool
}
