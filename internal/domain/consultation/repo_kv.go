package consultation

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/kv"
)

type kvRepo struct {
	docs *kv.Collection[[]Entry]
}

// NewKVRepository stores the log under kv.KeyConsultations.
func NewKVRepository(store kv.Store, logger zerolog.Logger) Repository {
	return &kvRepo{docs: kv.NewCollection(store, kv.KeyConsultations, func() []Entry { return []Entry{} }, logger)}
}

func (r *kvRepo) List(ctx context.Context) ([]Entry, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func (r *kvRepo) Prepend(ctx context.Context, e Entry) ([]Entry, error) {
	doc, err := r.docs.Mutate(ctx, func(all *[]Entry) error {
		next := make([]Entry, 0, len(*all)+1)
		next = append(next, e)
		*all = append(next, *all...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Data, nil
}
