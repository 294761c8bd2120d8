package vocabulary

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
)

// Service owns both code vocabularies. Codes are never deleted, only
// deactivated.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new vocabulary service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "vocabulary").Logger()}
}

// List returns every code of kind, active or not, in insertion order.
func (s *Service) List(ctx context.Context, kind Kind) ([]Code, error) {
	v, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return append([]Code(nil), v.Codes(kind)...), nil
}

// ListActive returns the active codes of kind in insertion order.
func (s *Service) ListActive(ctx context.Context, kind Kind) ([]Code, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if kind == Procedural {
		return snap.Procedures(), nil
	}
	return snap.Diagnostics(), nil
}

// Snapshot freezes the active subsets of both vocabularies.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	v, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	return NewSnapshot(*v), nil
}

// Add appends a new active code. extra is only read for procedures.
func (s *Service) Add(ctx context.Context, kind Kind, code, description string, extra *ProcedureExtra) (*Code, error) {
	code = normalizeCode(kind, code)
	description = strings.TrimSpace(description)
	if code == "" {
		return nil, apperr.Validation("code", "is required")
	}
	if description == "" {
		return nil, apperr.Validation("description", "is required")
	}

	entry := Code{Code: code, Description: description, Active: true}
	if kind == Procedural {
		entry.Category = CategoryDiagnostic
		if extra != nil {
			if extra.Category != "" {
				if !validCategories[extra.Category] {
					return nil, apperr.Validation("category", "invalid procedure category: %s", extra.Category)
				}
				entry.Category = extra.Category
			}
			entry.CrossReference = strings.TrimSpace(extra.CrossReference)
		}
	}

	_, err := s.repo.Update(ctx, func(v *Vocabulary) error {
		if v.indexOf(kind, code) >= 0 {
			return apperr.Validation("code", "%s %s already exists", kind.Label(), code)
		}
		codes := v.collection(kind)
		*codes = append(*codes, entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("kind", string(kind)).Str("code", code).Msg("code added")
	return &entry, nil
}

// ToggleActive flips the active flag of code.
func (s *Service) ToggleActive(ctx context.Context, kind Kind, code string) (*Code, error) {
	code = normalizeCode(kind, code)
	var toggled Code
	_, err := s.repo.Update(ctx, func(v *Vocabulary) error {
		i := v.indexOf(kind, code)
		if i < 0 {
			return apperr.NotFound(kind.Label()+" code", code)
		}
		codes := *v.collection(kind)
		codes[i].Active = !codes[i].Active
		toggled = codes[i]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("kind", string(kind)).Str("code", code).Bool("active", toggled.Active).Msg("code toggled")
	return &toggled, nil
}

// BulkImport parses text with ParseRows and inserts the new codes. Existing
// codes always win and duplicates within the batch resolve to their first
// occurrence. Skipped counts malformed rows and duplicates.
func (s *Service) BulkImport(ctx context.Context, kind Kind, text string) (ImportResult, error) {
	rows, malformed := ParseRows(kind, text)
	res := ImportResult{Skipped: malformed}

	_, err := s.repo.Update(ctx, func(v *Vocabulary) error {
		seen := make(map[string]bool)
		for _, c := range v.Codes(kind) {
			seen[c.Code] = true
		}

		codes := v.collection(kind)
		for _, row := range rows {
			if seen[row.Code] {
				res.Skipped++
				continue
			}
			seen[row.Code] = true

			entry := Code{Code: row.Code, Description: row.Description, Active: true}
			if kind == Procedural {
				entry.Category = CategoryDiagnostic
				entry.CrossReference = row.CrossReference
			}
			*codes = append(*codes, entry)
			res.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, fmt.Errorf("bulk import: %w", err)
	}

	s.logger.Info().Str("kind", string(kind)).Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("bulk import")
	return res, nil
}
