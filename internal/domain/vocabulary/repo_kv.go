package vocabulary

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/kv"
)

type kvRepo struct {
	docs *kv.Collection[Vocabulary]
}

// NewKVRepository stores the vocabulary under kv.KeyVocabulary. When the key
// is absent or unreadable the vocabulary reads as a copy of seed.
func NewKVRepository(store kv.Store, seed Vocabulary, logger zerolog.Logger) Repository {
	return &kvRepo{
		docs: kv.NewCollection(store, kv.KeyVocabulary, seed.Clone, logger),
	}
}

func (r *kvRepo) Get(ctx context.Context) (*Vocabulary, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}

func (r *kvRepo) Update(ctx context.Context, fn func(v *Vocabulary) error) (*Vocabulary, error) {
	doc, err := r.docs.Mutate(ctx, fn)
	if err != nil {
		return nil, err
	}
	return &doc.Data, nil
}
