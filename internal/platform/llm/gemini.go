package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/medicinia/medicinia/internal/platform/apperr"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-3-flash-preview"

// Gemini calls the Gemini API through the official Go SDK.
type Gemini struct {
	models *genai.Models
	model  string
	logger zerolog.Logger
}

// NewGemini builds a Gemini provider. A missing API key is a fatal
// configuration error.
func NewGemini(ctx context.Context, apiKey, model string, logger zerolog.Logger) (*Gemini, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperr.Config("GEMINI_API_KEY", "is required to reach the generation provider")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Gemini{
		models: client.Models,
		model:  model,
		logger: logger.With().Str("component", "gemini").Str("model", model).Logger(),
	}, nil
}

// Generate sends req and returns the concatenated text parts of the first
// candidate.
func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.SystemInstruction}}}
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenaiSchema(req.Schema)
	}

	contents := []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: req.Prompt}},
	}}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		g.logger.Error().Err(err).Msg("generate content")
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	g.logger.Debug().Int("response_bytes", len(text)).Bool("schema", req.Schema != nil).Msg("generated")
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

var genaiTypes = map[SchemaType]genai.Type{
	TypeObject: genai.TypeObject,
	TypeArray:  genai.TypeArray,
	TypeString: genai.TypeString,
}

func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             genaiTypes[s.Type],
		Description:      s.Description,
		Required:         s.Required,
		Enum:             s.Enum,
		PropertyOrdering: s.Order,
		Items:            toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}
