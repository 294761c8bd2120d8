package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// LevelStore is a Store backed by an embedded LevelDB database.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevel opens (or creates) a LevelDB database at path.
func OpenLevel(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb at %s: %w", path, err)
	}
	return &LevelStore{db: db}, nil
}

// OpenLevelMemory opens a LevelDB database held entirely in memory.
func OpenLevelMemory() (*LevelStore, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("open in-memory leveldb: %w", err)
	}
	return &LevelStore{db: db}, nil
}

func (s *LevelStore) Get(_ context.Context, key string) ([]byte, error) {
	v, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get %s: %w", key, err)
	}
	return v, nil
}

func (s *LevelStore) Set(_ context.Context, key string, value []byte) error {
	if err := s.db.Put([]byte(key), value, nil); err != nil {
		return fmt.Errorf("leveldb put %s: %w", key, err)
	}
	return nil
}

// Update runs fn inside a LevelDB transaction. Only one transaction may be
// open at a time, so concurrent updates serialize.
func (s *LevelStore) Update(_ context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	tx, err := s.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("leveldb open transaction: %w", err)
	}

	old, err := tx.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		old, err = nil, nil
	}
	if err != nil {
		tx.Discard()
		return fmt.Errorf("leveldb get %s: %w", key, err)
	}

	next, err := fn(old)
	if err != nil {
		tx.Discard()
		return err
	}

	if err := tx.Put([]byte(key), next, nil); err != nil {
		tx.Discard()
		return fmt.Errorf("leveldb put %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("leveldb commit %s: %w", key, err)
	}
	return nil
}

func (s *LevelStore) Ping(_ context.Context) error {
	if _, err := s.db.GetProperty("leveldb.stats"); err != nil {
		return fmt.Errorf("leveldb stats: %w", err)
	}
	return nil
}

func (s *LevelStore) Close() error {
	return s.db.Close()
}
