package analysis

// Verdict is the outcome of validating one generated payload. It is one of
// Accepted, PartiallyRejected or SchemaRejected.
type Verdict interface {
	isVerdict()
}

// Accepted means every suggested code was in the active vocabulary. Result
// is the payload unchanged.
type Accepted struct {
	Result Result
}

// PartiallyRejected means some suggestions referenced codes outside the
// active vocabulary. They were removed from Result and an alert was appended
// for each one.
type PartiallyRejected struct {
	Result  Result
	Dropped []DroppedCode
}

// SchemaRejected means the payload did not match the output schema. Nothing
// may be committed.
type SchemaRejected struct {
	Reason string
}

func (Accepted) isVerdict()          {}
func (PartiallyRejected) isVerdict() {}
func (SchemaRejected) isVerdict()    {}

// DroppedCode identifies a suggestion removed during validation.
type DroppedCode struct {
	Kind   string `json:"kind"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Committable returns the result a verdict allows to be committed.
func Committable(v Verdict) (Result, bool) {
	switch v := v.(type) {
	case Accepted:
		return v.Result, true
	case PartiallyRejected:
		return v.Result, true
	}
	return Result{}, false
}
