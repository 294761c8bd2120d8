package vocabulary

// Snapshot is a frozen copy of the active codes of both vocabularies. The
// prompt for an analysis and the validation of its response use the same
// Snapshot, so later vocabulary edits cannot affect either.
type Snapshot struct {
	diagnostics []Code
	procedures  []Code
	diagIndex   map[string]int
	procIndex   map[string]int
}

// NewSnapshot copies the active entries of v.
func NewSnapshot(v Vocabulary) *Snapshot {
	s := &Snapshot{
		diagIndex: make(map[string]int),
		procIndex: make(map[string]int),
	}
	for _, c := range v.Diagnostics {
		if c.Active {
			s.diagIndex[c.Code] = len(s.diagnostics)
			s.diagnostics = append(s.diagnostics, c)
		}
	}
	for _, c := range v.Procedures {
		if c.Active {
			s.procIndex[c.Code] = len(s.procedures)
			s.procedures = append(s.procedures, c)
		}
	}
	return s
}

// Diagnostics returns the active CIE-10 codes in vocabulary order.
func (s *Snapshot) Diagnostics() []Code {
	return append([]Code(nil), s.diagnostics...)
}

// Procedures returns the active CUPS codes in vocabulary order.
func (s *Snapshot) Procedures() []Code {
	return append([]Code(nil), s.procedures...)
}

// HasDiagnostic reports whether code is an active CIE-10 code.
func (s *Snapshot) HasDiagnostic(code string) bool {
	_, ok := s.diagIndex[code]
	return ok
}

// HasProcedure reports whether code is an active CUPS code.
func (s *Snapshot) HasProcedure(code string) bool {
	_, ok := s.procIndex[code]
	return ok
}

// Lookup returns the active entry for code in kind.
func (s *Snapshot) Lookup(kind Kind, code string) (Code, bool) {
	if kind == Procedural {
		i, ok := s.procIndex[code]
		if !ok {
			return Code{}, false
		}
		return s.procedures[i], true
	}
	i, ok := s.diagIndex[code]
	if !ok {
		return Code{}, false
	}
	return s.diagnostics[i], true
}
