package profile

import "context"

// Repository persists the single clinician profile.
type Repository interface {
	Get(ctx context.Context) (Profile, error)
	Save(ctx context.Context, p Profile) error
}
