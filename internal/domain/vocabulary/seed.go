package vocabulary

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	CIE10 []struct {
		Code        string `yaml:"code"`
		Description string `yaml:"description"`
	} `yaml:"cie10"`
	CUPS []struct {
		Code        string `yaml:"code"`
		Description string `yaml:"description"`
		Category    string `yaml:"category"`
		SOAT        string `yaml:"soat"`
	} `yaml:"cups"`
}

// ParseSeed decodes a YAML seed vocabulary. Every seeded code starts active.
func ParseSeed(data []byte) (Vocabulary, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Vocabulary{}, fmt.Errorf("parse seed vocabulary: %w", err)
	}

	v := Vocabulary{Diagnostics: []Code{}, Procedures: []Code{}}
	for _, c := range f.CIE10 {
		v.Diagnostics = append(v.Diagnostics, Code{
			Code: normalizeCode(Diagnostic, c.Code), Description: c.Description, Active: true,
		})
	}
	for _, c := range f.CUPS {
		cat := ProcedureCategory(c.Category)
		if !validCategories[cat] {
			cat = CategoryDiagnostic
		}
		v.Procedures = append(v.Procedures, Code{
			Code: normalizeCode(Procedural, c.Code), Description: c.Description, Active: true,
			Category: cat, CrossReference: c.SOAT,
		})
	}
	return v, nil
}

// DefaultSeed returns the embedded starter vocabulary.
func DefaultSeed() Vocabulary {
	v, err := ParseSeed(seedYAML)
	if err != nil {
		panic(err)
	}
	return v
}
