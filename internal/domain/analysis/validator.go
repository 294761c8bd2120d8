package analysis

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/llm"
)

const (
	kindDiagnostic = "diagnostic"
	kindProcedure  = "procedure"

	reasonNotAuthorized = "not in the authorized vocabulary"
)

// Validator enforces the output schema and vocabulary containment on
// generated payloads.
type Validator struct {
	schema *llm.Schema
	logger zerolog.Logger
}

// NewValidator creates a validator for OutputSchema.
func NewValidator(logger zerolog.Logger) *Validator {
	return &Validator{schema: OutputSchema(), logger: logger.With().Str("component", "validator").Logger()}
}

// Validate checks raw against the output schema and then against codes,
// which must be the same snapshot the prompt was assembled from.
func (v *Validator) Validate(raw []byte, codes CodeSet) Verdict {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return SchemaRejected{Reason: fmt.Sprintf("payload is not valid JSON: %v", err)}
	}
	if err := checkSchema("$", doc, v.schema); err != nil {
		v.logger.Warn().Err(err).Msg("schema rejected")
		return SchemaRejected{Reason: err.Error()}
	}

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return SchemaRejected{Reason: fmt.Sprintf("decode analysis: %v", err)}
	}

	dropped := containment(&res, codes)
	if len(dropped) == 0 {
		return Accepted{Result: res}
	}

	for _, d := range dropped {
		v.logger.Warn().Str("kind", d.Kind).Str("code", d.Code).Msg("removed unauthorized code")
	}
	return PartiallyRejected{Result: res, Dropped: dropped}
}

// containment strips suggestions whose codes are not in codes and appends an
// alert per removed code. res is modified in place on fresh slices.
func containment(res *Result, codes CodeSet) []DroppedCode {
	var dropped []DroppedCode

	keptDx := make([]SuggestedDiagnosis, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		if codes.HasDiagnostic(d.Code) {
			keptDx = append(keptDx, d)
			continue
		}
		dropped = append(dropped, DroppedCode{Kind: kindDiagnostic, Code: d.Code, Reason: reasonNotAuthorized})
	}

	keptPx := make([]SuggestedProcedure, 0, len(res.Procedures))
	for _, p := range res.Procedures {
		if codes.HasProcedure(p.CupsCode) {
			keptPx = append(keptPx, p)
			continue
		}
		dropped = append(dropped, DroppedCode{Kind: kindProcedure, Code: p.CupsCode, Reason: reasonNotAuthorized})
	}

	if len(dropped) == 0 {
		return nil
	}

	alerts := append([]string(nil), res.Alerts...)
	for _, d := range dropped {
		label := "CIE-10"
		if d.Kind == kindProcedure {
			label = "CUPS"
		}
		alerts = append(alerts, fmt.Sprintf("%s code %s is %s and was removed", label, d.Code, d.Reason))
	}

	res.Diagnostics = keptDx
	res.Procedures = keptPx
	res.Alerts = alerts
	return dropped
}

// checkSchema walks a decoded JSON value against s. Required properties must
// be present and non-null; optional properties may be absent or null.
func checkSchema(path string, v interface{}, s *llm.Schema) error {
	switch s.Type {
	case llm.TypeObject:
		obj, ok := v.(map[string]interface{})
		if !ok {
			return fmt.Errorf("%s: expected object", path)
		}
		for _, name := range s.Required {
			if val, ok := obj[name]; !ok || val == nil {
				return fmt.Errorf("%s.%s: missing required field", path, name)
			}
		}
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			val, ok := obj[name]
			if !ok || val == nil {
				continue
			}
			if err := checkSchema(path+"."+name, val, s.Properties[name]); err != nil {
				return err
			}
		}
	case llm.TypeArray:
		arr, ok := v.([]interface{})
		if !ok {
			return fmt.Errorf("%s: expected array", path)
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range arr {
			if err := checkSchema(fmt.Sprintf("%s[%d]", path, i), item, s.Items); err != nil {
				return err
			}
		}
	case llm.TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		if len(s.Enum) > 0 && !contains(s.Enum, str) {
			return fmt.Errorf("%s: %q is not an allowed value", path, str)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
