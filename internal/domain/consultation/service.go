package consultation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/idgen"
)

// Service records consultations. The log is append-only; entries are never
// edited or removed.
type Service struct {
	repo   Repository
	ids    idgen.Generator
	now    func() time.Time
	logger zerolog.Logger
}

// NewService creates a consultation log service. now defaults to time.Now.
func NewService(repo Repository, ids idgen.Generator, now func() time.Time, logger zerolog.Logger) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:   repo,
		ids:    ids,
		now:    now,
		logger: logger.With().Str("component", "consultation").Logger(),
	}
}

// Record stores a new uncategorized entry and returns the updated log.
func (s *Service) Record(ctx context.Context, query, response string) ([]Entry, error) {
	return s.RecordCategory(ctx, query, response, "")
}

// RecordCategory is Record with an optional category label.
func (s *Service) RecordCategory(ctx context.Context, query, response, category string) ([]Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("query", "is required")
	}

	e := Entry{
		ID:        s.ids.NewID(),
		Timestamp: s.now().UTC(),
		Query:     query,
		Response:  response,
		Category:  strings.TrimSpace(category),
	}
	entries, err := s.repo.Prepend(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("record consultation: %w", err)
	}

	s.logger.Info().Str("entry_id", e.ID).Int("entries", len(entries)).Msg("consultation recorded")
	return entries, nil
}

// List returns the log newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}
