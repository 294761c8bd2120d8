package casebook

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/idgen"
)

// topDiagnosesLimit bounds Stats.TopDiagnoses.
const topDiagnosesLimit = 5

// Service owns patients, their cases and the case timelines.
type Service struct {
	patients PatientRepository
	cases    CaseRepository
	ids      idgen.Generator
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService creates a case book service. now defaults to time.Now.
func NewService(patients PatientRepository, cases CaseRepository, ids idgen.Generator, now func() time.Time, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		patients: patients,
		cases:    cases,
		ids:      ids,
		now:      now,
		logger:   logger.With().Str("component", "casebook").Logger(),
	}
}

// CreatePatient stores a new patient and opens its single Active case.
func (s *Service) CreatePatient(ctx context.Context, in PatientInput) (*Patient, *Case, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, nil, apperr.Validation("name", "is required")
	}
	if in.Age <= 0 {
		return nil, nil, apperr.Validation("age", "is required")
	}
	if in.Age > 150 {
		return nil, nil, apperr.Validation("age", "must be at most 150, got %d", in.Age)
	}
	gender := in.Gender
	if gender == "" {
		gender = GenderFemale
	}
	if gender != GenderMale && gender != GenderFemale {
		return nil, nil, apperr.Validation("gender", "must be M or F, got %q", gender)
	}

	now := s.now().UTC()
	p := &Patient{
		ID:              s.ids.NewID(),
		Name:            name,
		Age:             in.Age,
		Gender:          gender,
		Weight:          strings.TrimSpace(in.Weight),
		Height:          strings.TrimSpace(in.Height),
		PersonalHistory: strings.TrimSpace(in.PersonalHistory),
		FamilyHistory:   strings.TrimSpace(in.FamilyHistory),
		OtherInfo:       strings.TrimSpace(in.OtherInfo),
		CreatedAt:       now,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("create patient: %w", err)
	}

	c := &Case{
		ID:         s.ids.NewID(),
		PatientID:  p.ID,
		Status:     StatusActive,
		CreatedAt:  now,
		Evolutions: []ClinicalEvolution{},
	}
	if err := s.cases.Create(ctx, c); err != nil {
		s.logger.Error().Err(err).Str("patient_id", p.ID).Msg("patient stored without case")
		return nil, nil, fmt.Errorf("create case: %w", err)
	}

	s.logger.Info().Str("patient_id", p.ID).Str("case_id", c.ID).Msg("patient created")
	return p, c, nil
}

// GetPatient returns the patient with id.
func (s *Service) GetPatient(ctx context.Context, id string) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

// ListPatients returns all patients in creation order.
func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

// GetCaseForPatient returns the case of patientID.
func (s *Service) GetCaseForPatient(ctx context.Context, patientID string) (*Case, error) {
	return s.cases.GetByPatient(ctx, patientID)
}

// CommitEvolution appends e to the tail of the case timeline. It is the only
// write path into case history. The commit time becomes e.Date; an empty ID
// is assigned. Committing an evolution ID that is already present returns the
// case unchanged.
func (s *Service) CommitEvolution(ctx context.Context, caseID string, e ClinicalEvolution) (*Case, error) {
	if strings.TrimSpace(e.OriginalText) == "" {
		return nil, apperr.Validation("original_text", "is required")
	}

	c, err := s.cases.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive {
		return nil, apperr.Validation("case", "case %s is %s", caseID, c.Status)
	}

	if e.ID == "" {
		e.ID = s.ids.NewID()
	}
	e.Date = s.now().UTC()

	updated, err := s.cases.AppendEvolution(ctx, caseID, e)
	if err != nil {
		return nil, fmt.Errorf("commit evolution: %w", err)
	}

	s.logger.Info().
		Str("case_id", caseID).
		Str("evolution_id", e.ID).
		Int("evolutions", len(updated.Evolutions)).
		Int("diagnostics", len(e.Analysis.Diagnostics)).
		Msg("evolution committed")
	return updated, nil
}

// Stats returns totals and the most cited diagnosis codes.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	cases, err := s.cases.List(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{TotalPatients: len(patients), TopDiagnoses: []DiagnosisCount{}}
	counts := make(map[string]int)
	for _, c := range cases {
		if c.Status == StatusActive {
			st.ActiveCases++
		}
		for _, e := range c.Evolutions {
			st.TotalEvolutions++
			for _, d := range e.Analysis.Diagnostics {
				counts[d.Code]++
			}
		}
	}

	for code, n := range counts {
		st.TopDiagnoses = append(st.TopDiagnoses, DiagnosisCount{Code: code, Count: n})
	}
	sort.Slice(st.TopDiagnoses, func(i, j int) bool {
		a, b := st.TopDiagnoses[i], st.TopDiagnoses[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Code < b.Code
	})
	if len(st.TopDiagnoses) > topDiagnosesLimit {
		st.TopDiagnoses = st.TopDiagnoses[:topDiagnosesLimit]
	}
	return st, nil
}
