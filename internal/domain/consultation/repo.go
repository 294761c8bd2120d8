package consultation

import "context"

// Repository persists the consultation log, newest entry first.
type Repository interface {
	List(ctx context.Context) ([]Entry, error)
	Prepend(ctx context.Context, e Entry) ([]Entry, error)
}
