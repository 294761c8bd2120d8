package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Document is the stored envelope of a collection: the data plus a revision
// counter bumped on every write.
type Document[T any] struct {
	Revision int64 `json:"revision"`
	Data     T     `json:"data"`
}

// Collection is a typed, whole-value JSON document stored under one key.
// Absent and undecodable values both read as revision 0 holding empty().
type Collection[T any] struct {
	store Store
	key   string
	empty func() T
	log   zerolog.Logger
}

// NewCollection binds key in store to type T.
func NewCollection[T any](store Store, key string, empty func() T, log zerolog.Logger) *Collection[T] {
	return &Collection[T]{store: store, key: key, empty: empty, log: log}
}

// Key returns the store key.
func (c *Collection[T]) Key() string { return c.key }

// Load returns the current document. It only fails on store I/O errors.
func (c *Collection[T]) Load(ctx context.Context) (Document[T], error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrCorrupt) {
			c.log.Warn().Err(err).Str("key", c.key).Msg("unreadable value, using default")
		}
		if IsAbsent(err) {
			return Document[T]{Data: c.empty()}, nil
		}
		return Document[T]{}, err
	}
	return c.decode(raw), nil
}

// Save writes doc if the stored revision still equals doc.Revision and
// returns the stored document with its new revision.
func (c *Collection[T]) Save(ctx context.Context, doc Document[T]) (Document[T], error) {
	var saved Document[T]
	err := c.store.Update(ctx, c.key, func(old []byte) ([]byte, error) {
		current := c.decodeOrEmpty(old)
		if current.Revision != doc.Revision {
			return nil, fmt.Errorf("%w: %s at revision %d, write based on %d",
				ErrRevisionConflict, c.key, current.Revision, doc.Revision)
		}
		saved = Document[T]{Revision: doc.Revision + 1, Data: doc.Data}
		return json.Marshal(saved)
	})
	if err != nil {
		return Document[T]{}, err
	}
	return saved, nil
}

// Mutate applies fn to the current data and writes the result in one atomic
// read-modify-write. Nothing is written if fn fails.
func (c *Collection[T]) Mutate(ctx context.Context, fn func(data *T) error) (Document[T], error) {
	var saved Document[T]
	err := c.store.Update(ctx, c.key, func(old []byte) ([]byte, error) {
		current := c.decodeOrEmpty(old)
		if err := fn(&current.Data); err != nil {
			return nil, err
		}
		saved = Document[T]{Revision: current.Revision + 1, Data: current.Data}
		return json.Marshal(saved)
	})
	if err != nil {
		return Document[T]{}, err
	}
	return saved, nil
}

func (c *Collection[T]) decodeOrEmpty(raw []byte) Document[T] {
	if raw == nil {
		return Document[T]{Data: c.empty()}
	}
	return c.decode(raw)
}

func (c *Collection[T]) decode(raw []byte) Document[T] {
	var doc Document[T]
	if err := json.Unmarshal(raw, &doc); err != nil {
		c.log.Warn().Err(err).Str("key", c.key).Msg("corrupt value, using default")
		return Document[T]{Data: c.empty()}
	}
	return doc
}
