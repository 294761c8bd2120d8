// Package kv is the key-value persistence collaborator. Values are opaque
// bytes addressed by string keys; typed, revisioned JSON collections are built
// on top by Collection.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("kv: key not found")
	// ErrCorrupt is returned when a stored value cannot be decoded.
	ErrCorrupt = errors.New("kv: corrupt value")
	// ErrRevisionConflict is returned by Collection.Save when the stored
	// revision moved since the document was loaded.
	ErrRevisionConflict = errors.New("kv: revision conflict")
)

// Keys used by the engine.
const (
	KeyPatients      = "medicinia_patients"
	KeyCases         = "medicinia_cases"
	KeyVocabulary    = "medicinia_db"
	KeyProfile       = "medicinia_profile"
	KeyConsultations = "medicinia_consult_history"
)

// Store is a string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Update replaces the value at key with fn(old) atomically with respect to
	// other writers in this process. old is nil when the key is absent. When
	// fn returns an error nothing is written and the error is returned.
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
	Ping(ctx context.Context) error
	Close() error
}
