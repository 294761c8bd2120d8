package vocabulary

import (
	"fmt"
	"strings"
)

// Kind selects one of the two controlled vocabularies.
type Kind string

const (
	// Diagnostic is the CIE-10 diagnosis vocabulary.
	Diagnostic Kind = "diagnostic"
	// Procedural is the CUPS procedure vocabulary, with optional SOAT cross references.
	Procedural Kind = "procedural"
)

// ParseKind accepts the kind names and the vocabulary names used by clinicians.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "diagnostic", "cie10", "cie-10", "dx":
		return Diagnostic, nil
	case "procedural", "procedure", "cups", "px":
		return Procedural, nil
	}
	return "", fmt.Errorf("unknown vocabulary kind %q", s)
}

// Label returns the vocabulary name shown to clinicians.
func (k Kind) Label() string {
	if k == Procedural {
		return "CUPS"
	}
	return "CIE-10"
}

// ProcedureCategory classifies a CUPS procedure.
type ProcedureCategory string

const (
	CategoryDiagnostic  ProcedureCategory = "Diagnostic"
	CategoryTherapeutic ProcedureCategory = "Therapeutic"
	CategorySurgical    ProcedureCategory = "Surgical"
)

var validCategories = map[ProcedureCategory]bool{
	CategoryDiagnostic: true, CategoryTherapeutic: true, CategorySurgical: true,
}

// Code is one entry of a vocabulary. Category and CrossReference apply to
// procedures only.
type Code struct {
	Code           string            `json:"code"`
	Description    string            `json:"description"`
	Active         bool              `json:"active"`
	Category       ProcedureCategory `json:"category,omitempty"`
	CrossReference string            `json:"soatCode,omitempty"`
}

// ProcedureExtra carries the procedure-only attributes for Add.
type ProcedureExtra struct {
	Category       ProcedureCategory
	CrossReference string
}

// Vocabulary holds both code collections in insertion order.
type Vocabulary struct {
	Diagnostics []Code `json:"cie10"`
	Procedures  []Code `json:"cups"`
}

func (v *Vocabulary) collection(kind Kind) *[]Code {
	if kind == Procedural {
		return &v.Procedures
	}
	return &v.Diagnostics
}

// Codes returns the collection for kind.
func (v *Vocabulary) Codes(kind Kind) []Code {
	return *v.collection(kind)
}

func (v *Vocabulary) indexOf(kind Kind, code string) int {
	for i, c := range *v.collection(kind) {
		if c.Code == code {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (v Vocabulary) Clone() Vocabulary {
	return Vocabulary{
		Diagnostics: append([]Code(nil), v.Diagnostics...),
		Procedures:  append([]Code(nil), v.Procedures...),
	}
}

// ImportResult is the aggregate outcome of BulkImport.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// normalizeCode trims the code and, for CIE-10, upper-cases it.
func normalizeCode(kind Kind, code string) string {
	code = strings.TrimSpace(code)
	if kind == Diagnostic {
		code = strings.ToUpper(code)
	}
	return code
}
