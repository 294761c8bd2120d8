package profile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
)

// Service reads and updates the clinician profile.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger.With().Str("component", "profile").Logger()}
}

// Get returns the saved profile, or Default when none was saved.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	return s.repo.Get(ctx)
}

// Update applies the non-empty fields of patch to the current profile.
func (s *Service) Update(ctx context.Context, patch Profile) (Profile, error) {
	p, err := s.repo.Get(ctx)
	if err != nil {
		return Profile{}, err
	}
	if v := strings.TrimSpace(patch.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(patch.Role); v != "" {
		p.Role = v
	}
	if v := strings.TrimSpace(patch.Specialty); v != "" {
		p.Specialty = v
	}
	if err := s.Save(ctx, p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Save replaces the profile. Name and specialty are required.
func (s *Service) Save(ctx context.Context, p Profile) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Role = strings.TrimSpace(p.Role)
	p.Specialty = strings.TrimSpace(p.Specialty)
	if p.Name == "" {
		return apperr.Validation("name", "is required")
	}
	if p.Specialty == "" {
		return apperr.Validation("specialty", "is required")
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Str("specialty", p.Specialty).Msg("profile saved")
	return nil
}
