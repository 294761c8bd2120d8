package kv

import (
	"context"
	"errors"
	"fmt"
)

// Cipher seals and opens byte payloads.
type Cipher interface {
	EncryptBytes(data []byte) ([]byte, error)
	DecryptBytes(data []byte) ([]byte, error)
}

// EncryptedStore encrypts every value before it reaches the wrapped Store.
// A value that fails to decrypt is reported as ErrCorrupt.
type EncryptedStore struct {
	inner  Store
	cipher Cipher
}

// NewEncryptedStore wraps inner with c.
func NewEncryptedStore(inner Store, c Cipher) *EncryptedStore {
	return &EncryptedStore{inner: inner, cipher: c}
}

func (s *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := s.cipher.DecryptBytes(sealed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return plain, nil
}

func (s *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.cipher.EncryptBytes(value)
	if err != nil {
		return fmt.Errorf("encrypt %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *EncryptedStore) Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error {
	return s.inner.Update(ctx, key, func(sealed []byte) ([]byte, error) {
		var plain []byte
		if sealed != nil {
			p, err := s.cipher.DecryptBytes(sealed)
			// An unreadable value is replaced, same as an absent one.
			if err == nil {
				plain = p
			}
		}
		next, err := fn(plain)
		if err != nil {
			return nil, err
		}
		out, err := s.cipher.EncryptBytes(next)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", key, err)
		}
		return out, nil
	})
}

func (s *EncryptedStore) Ping(ctx context.Context) error { return s.inner.Ping(ctx) }

func (s *EncryptedStore) Close() error { return s.inner.Close() }

// IsAbsent reports whether err means the value should be treated as missing.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt)
}
