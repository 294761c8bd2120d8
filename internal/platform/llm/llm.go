// Package llm is the contract with the generative-text provider: a prompt and
// optional output schema in, raw text out.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the provider produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is one generation call.
type Request struct {
	Prompt            string
	SystemInstruction string
	Temperature       float32
	// Schema, when set, constrains the response to JSON of this shape.
	Schema *Schema
}

// Provider generates text for a request. Implementations must be safe for
// one call at a time; the engine never issues concurrent calls per case.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// SchemaType is the JSON type of a schema node.
type SchemaType string

const (
	TypeObject SchemaType = "object"
	TypeArray  SchemaType = "array"
	TypeString SchemaType = "string"
)

// Schema is a provider-neutral description of the expected JSON response.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	// Order lists Properties in the order they should be generated.
	Order    []string
	Items    *Schema
	Required []string
	Enum     []string
}

// Unavailable is a Provider that always fails with Err. It stands in when no
// credential is configured so that offline commands still work.
type Unavailable struct {
	Err error
}

func (u Unavailable) Generate(_ context.Context, _ Request) (string, error) {
	return "", u.Err
}
