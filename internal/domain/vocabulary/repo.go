package vocabulary

import "context"

// Repository persists the vocabulary as one document.
type Repository interface {
	Get(ctx context.Context) (*Vocabulary, error)
	// Update applies fn to the stored vocabulary atomically. Nothing is
	// written when fn returns an error.
	Update(ctx context.Context, fn func(v *Vocabulary) error) (*Vocabulary, error)
}
