package profile

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/kv"
)

type kvRepo struct {
	docs *kv.Collection[Profile]
}

// NewKVRepository stores the profile under kv.KeyProfile.
func NewKVRepository(store kv.Store, logger zerolog.Logger) Repository {
	return &kvRepo{docs: kv.NewCollection(store, kv.KeyProfile, Default, logger)}
}

func (r *kvRepo) Get(ctx context.Context) (Profile, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return Profile{}, err
	}
	return doc.Data, nil
}

func (r *kvRepo) Save(ctx context.Context, p Profile) error {
	_, err := r.docs.Mutate(ctx, func(cur *Profile) error {
		*cur = p
		return nil
	})
	return err
}
