// Package engine ties the vocabulary, case book, prompt assembly, generation
// provider and validator into the analyze / commit / consult workflow.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/domain/analysis"
	"github.com/medicinia/medicinia/internal/domain/casebook"
	"github.com/medicinia/medicinia/internal/domain/consultation"
	"github.com/medicinia/medicinia/internal/domain/profile"
	"github.com/medicinia/medicinia/internal/domain/prompt"
	"github.com/medicinia/medicinia/internal/domain/vocabulary"
	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/idgen"
	"github.com/medicinia/medicinia/internal/platform/kv"
	"github.com/medicinia/medicinia/internal/platform/llm"
)

// noAnswer is recorded when the provider returns an empty consultation reply.
const noAnswer = "No pude procesar tu solicitud."

// Deps are the collaborators of an Engine. Store and Provider are required.
type Deps struct {
	Store    kv.Store
	Provider llm.Provider
	// IDs defaults to idgen.UUID.
	IDs idgen.Generator
	// Clock defaults to time.Now.
	Clock  func() time.Time
	Logger zerolog.Logger
	// Seed is the vocabulary used until one is stored. Defaults to the
	// embedded seed.
	Seed        *vocabulary.Vocabulary
	Temperature float32
}

// Engine is the single entry point for clinical workflows. Its lifecycle is
// New, any number of calls, then Close.
type Engine struct {
	Vocabulary    *vocabulary.Service
	Cases         *casebook.Service
	Consultations *consultation.Service
	Profiles      *profile.Service

	store       kv.Store
	provider    llm.Provider
	validator   *analysis.Validator
	ids         idgen.Generator
	temperature float32
	logger      zerolog.Logger
}

// Draft is a validated but uncommitted analysis. Dropping it has no side
// effects; passing it to Commit more than once appends one evolution.
type Draft struct {
	EvolutionID string
	CaseID      string
	PatientID   string
	Note        string
	Verdict     analysis.Verdict
	Prompt      llm.Request
	Profile     profile.Profile
}

// Result returns the committable analysis.
func (d *Draft) Result() analysis.Result {
	r, _ := analysis.Committable(d.Verdict)
	return r
}

// Dropped lists suggestions removed because their code was not authorized.
func (d *Draft) Dropped() []analysis.DroppedCode {
	if pr, ok := d.Verdict.(analysis.PartiallyRejected); ok {
		return pr.Dropped
	}
	return nil
}

// New builds an engine over deps.
func New(deps Deps) (*Engine, error) {
	if deps.Provider == nil {
		return nil, apperr.Config("provider", "a generation provider is required")
	}
	if deps.Store == nil {
		return nil, apperr.Config("store", "a store is required")
	}
	if deps.IDs == nil {
		deps.IDs = idgen.UUID{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	seed := vocabulary.DefaultSeed()
	if deps.Seed != nil {
		seed = *deps.Seed
	}

	log := deps.Logger
	return &Engine{
		Vocabulary: vocabulary.NewService(vocabulary.NewKVRepository(deps.Store, seed, log), log),
		Cases: casebook.NewService(
			casebook.NewPatientRepoKV(deps.Store, log),
			casebook.NewCaseRepoKV(deps.Store, log),
			deps.IDs, deps.Clock, log,
		),
		Consultations: consultation.NewService(consultation.NewKVRepository(deps.Store, log), deps.IDs, deps.Clock, log),
		Profiles:      profile.NewService(profile.NewKVRepository(deps.Store, log), log),

		store:       deps.Store,
		provider:    deps.Provider,
		validator:   analysis.NewValidator(log),
		ids:         deps.IDs,
		temperature: deps.Temperature,
		logger:      log.With().Str("component", "engine").Logger(),
	}, nil
}

// Analyze generates and validates an analysis of note for the patient's
// case. The vocabulary snapshot used for the prompt is the one validated
// against. Provider failures and schema rejections are RetryableErrors and
// leave the case untouched.
func (e *Engine) Analyze(ctx context.Context, patientID, note string) (*Draft, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperr.Validation("note", "is required")
	}

	patient, err := e.Cases.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	c, err := e.Cases.GetCaseForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if c.Status != casebook.StatusActive {
		return nil, apperr.Validation("case", "case %s is %s", c.ID, c.Status)
	}
	snap, err := e.Vocabulary.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("vocabulary snapshot: %w", err)
	}
	prof, err := e.Profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	req := prompt.AssembleAnalysis(prompt.AnalysisInput{
		Note:        note,
		Patient:     patient,
		Evolutions:  c.Evolutions,
		Snapshot:    snap,
		Profile:     prof,
		Temperature: e.temperature,
	})

	log := e.logger.With().Str("case_id", c.ID).Logger()
	start := time.Now()
	raw, err := e.provider.Generate(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("analysis generation failed")
		return nil, apperr.Retryable("generate analysis", err)
	}
	if !json.Valid([]byte(raw)) {
		log.Error().Int("response_bytes", len(raw)).Msg("analysis response is not JSON")
		return nil, apperr.Retryable("generate analysis", errors.New("response is not valid JSON"))
	}

	verdict := e.validator.Validate([]byte(raw), snap)
	if rej, ok := verdict.(analysis.SchemaRejected); ok {
		log.Warn().Str("reason", rej.Reason).Msg("analysis rejected")
		return nil, apperr.Retryable("validate analysis", errors.New(rej.Reason))
	}

	d := &Draft{
		EvolutionID: e.ids.NewID(),
		CaseID:      c.ID,
		PatientID:   patientID,
		Note:        note,
		Verdict:     verdict,
		Prompt:      req,
		Profile:     prof,
	}
	res := d.Result()
	log.Info().
		Str("evolution_id", d.EvolutionID).
		Int("diagnostics", len(res.Diagnostics)).
		Int("procedures", len(res.Procedures)).
		Int("dropped", len(d.Dropped())).
		Dur("elapsed", time.Since(start)).
		Msg("analysis drafted")
	return d, nil
}

// Commit appends the draft as a new evolution. The evolution date is the
// commit time.
func (e *Engine) Commit(ctx context.Context, d *Draft) (*casebook.Case, error) {
	if d == nil {
		return nil, apperr.Validation("draft", "is required")
	}
	res, ok := analysis.Committable(d.Verdict)
	if !ok {
		return nil, apperr.Validation("draft", "analysis was rejected and cannot be committed")
	}
	return e.Cases.CommitEvolution(ctx, d.CaseID, casebook.ClinicalEvolution{
		ID:                    d.EvolutionID,
		ProfessionalName:      d.Profile.Name,
		ProfessionalSpecialty: d.Profile.Specialty,
		OriginalText:          d.Note,
		Analysis:              res,
	})
}

// Consult answers a free-form question from the active vocabulary and
// records the exchange.
func (e *Engine) Consult(ctx context.Context, query, category string) (*consultation.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query", "is required")
	}
	snap, err := e.Vocabulary.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("vocabulary snapshot: %w", err)
	}
	prof, err := e.Profiles.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	answer, err := e.provider.Generate(ctx, prompt.AssembleConsultation(query, snap, prof))
	switch {
	case errors.Is(err, llm.ErrEmptyResponse):
		answer = noAnswer
	case err != nil:
		e.logger.Error().Err(err).Msg("consultation generation failed")
		return nil, apperr.Retryable("generate consultation", err)
	}

	entries, err := e.Consultations.RecordCategory(ctx, query, answer, category)
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// Ping checks the store.
func (e *Engine) Ping(ctx context.Context) error {
	return e.store.Ping(ctx)
}

// Close flushes and closes the store.
func (e *Engine) Close() error {
	return e.store.Close()
}
