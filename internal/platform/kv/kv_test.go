package kv

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newMemStore(t *testing.T) *LevelStore {
	t.Helper()
	s, err := OpenLevelMemory()
	if err != nil {
		t.Fatalf("open memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLevelStore_GetSet(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, KeyProfile, []byte(`{"name":"Ana"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx, KeyProfile)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"name":"Ana"}` {
		t.Errorf("unexpected value %s", got)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestLevelStore_UpdateErrorWritesNothing(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	s.Set(ctx, "k", []byte("v1"))

	boom := errors.New("boom")
	err := s.Update(ctx, "k", func(old []byte) ([]byte, error) {
		if string(old) != "v1" {
			t.Errorf("expected old v1, got %s", old)
		}
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := s.Get(ctx, "k")
	if string(got) != "v1" {
		t.Errorf("expected value unchanged, got %s", got)
	}
}

func TestLevelStore_UpdateAbsentKey(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)

	err := s.Update(ctx, "new", func(old []byte) ([]byte, error) {
		if old != nil {
			t.Errorf("expected nil old value, got %s", old)
		}
		return []byte("created"), nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.Get(ctx, "new")
	if string(got) != "created" {
		t.Errorf("expected created, got %s", got)
	}
}

func TestCollection_AbsentAndCorruptReadAsEmpty(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	c := NewCollection(s, "items", func() []string { return []string{} }, zerolog.Nop())

	doc, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load absent: %v", err)
	}
	if doc.Revision != 0 || len(doc.Data) != 0 || doc.Data == nil {
		t.Errorf("expected empty revision-0 document, got %+v", doc)
	}

	s.Set(ctx, "items", []byte("{not json"))
	doc, err = c.Load(ctx)
	if err != nil {
		t.Fatalf("load corrupt: %v", err)
	}
	if doc.Revision != 0 || len(doc.Data) != 0 {
		t.Errorf("expected corrupt value to read as empty, got %+v", doc)
	}
}

func TestCollection_SaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	c := NewCollection(s, "items", func() []string { return nil }, zerolog.Nop())

	saved, err := c.Save(ctx, Document[[]string]{Data: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.Revision != 1 {
		t.Errorf("expected revision 1, got %d", saved.Revision)
	}

	loaded, err := c.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Revision != 1 || len(loaded.Data) != 2 || loaded.Data[0] != "a" || loaded.Data[1] != "b" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestCollection_SaveStaleRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	c := NewCollection(s, "items", func() []string { return nil }, zerolog.Nop())

	first, _ := c.Load(ctx)
	second, _ := c.Load(ctx)

	first.Data = []string{"tab one"}
	if _, err := c.Save(ctx, first); err != nil {
		t.Fatalf("first save: %v", err)
	}

	second.Data = []string{"tab two"}
	_, err := c.Save(ctx, second)
	if !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("expected ErrRevisionConflict, got %v", err)
	}

	loaded, _ := c.Load(ctx)
	if loaded.Data[0] != "tab one" {
		t.Errorf("expected first write to survive, got %v", loaded.Data)
	}
}

func TestCollection_MutateSerializes(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t)
	c := NewCollection(s, "counter", func() int { return 0 }, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Mutate(ctx, func(n *int) error { *n++; return nil }); err != nil {
				t.Errorf("mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	doc, _ := c.Load(ctx)
	if doc.Data != 20 {
		t.Errorf("expected 20 increments, got %d", doc.Data)
	}
	if doc.Revision != 20 {
		t.Errorf("expected revision 20, got %d", doc.Revision)
	}
}

type xorCipher struct{ fail bool }

func (x xorCipher) EncryptBytes(data []byte) ([]byte, error) {
	out := make([]byte, len(data)+1)
	out[0] = 0x7f
	for i, b := range data {
		out[i+1] = b ^ 0x5a
	}
	return out, nil
}

func (x xorCipher) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) == 0 || data[0] != 0x7f {
		return nil, errors.New("bad header")
	}
	out := make([]byte, len(data)-1)
	for i, b := range data[1:] {
		out[i] = b ^ 0x5a
	}
	return out, nil
}

func TestEncryptedStore_SealsValues(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore(t)
	s := NewEncryptedStore(inner, xorCipher{})

	if err := s.Set(ctx, KeyPatients, []byte("Ana")); err != nil {
		t.Fatalf("set: %v", err)
	}
	raw, _ := inner.Get(ctx, KeyPatients)
	if bytes.Contains(raw, []byte("Ana")) {
		t.Error("expected plaintext not to reach the inner store")
	}
	got, err := s.Get(ctx, KeyPatients)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "Ana" {
		t.Errorf("expected Ana, got %s", got)
	}
}

func TestEncryptedStore_UndecryptableIsCorrupt(t *testing.T) {
	ctx := context.Background()
	inner := newMemStore(t)
	inner.Set(ctx, KeyCases, []byte("written before encryption was enabled"))
	s := NewEncryptedStore(inner, xorCipher{})

	_, err := s.Get(ctx, KeyCases)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if !IsAbsent(err) {
		t.Error("expected corrupt value to count as absent")
	}

	c := NewCollection[[]string](s, KeyCases, func() []string { return nil }, zerolog.Nop())
	doc, err := c.Mutate(ctx, func(d *[]string) error {
		*d = append(*d, "fresh")
		return nil
	})
	if err != nil {
		t.Fatalf("mutate over corrupt value: %v", err)
	}
	if doc.Revision != 1 || len(doc.Data) != 1 {
		t.Errorf("expected fresh document, got %+v", doc)
	}
}

func TestValidateTableName(t *testing.T) {
	valid := []string{"kv_store", "_medicinia", "a1"}
	for _, name := range valid {
		if err := ValidateTableName(name); err != nil {
			t.Errorf("expected %q to be valid: %v", name, err)
		}
	}
	invalid := []string{"", "1abc", "kv;drop table x", "KV", "kv-store"}
	for _, name := range invalid {
		if err := ValidateTableName(name); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
