package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/kv"
)

func newTestService(t *testing.T) (*Service, kv.Store) {
	t.Helper()
	store, err := kv.OpenLevelMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(NewKVRepository(store, zerolog.Nop()), zerolog.Nop()), store
}

func TestGet_DefaultWhenUnset(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != Default() {
		t.Errorf("expected default profile, got %+v", p)
	}
}

func TestGet_CorruptValueReadsAsDefault(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if err := store.Set(ctx, kv.KeyProfile, []byte("{not json")); err != nil {
		t.Fatalf("set: %v", err)
	}
	p, err := svc.Get(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != Default() {
		t.Errorf("expected default profile, got %+v", p)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	want := Profile{Name: "Dra. Gómez", Role: "Médica", Specialty: "Pediatría"}
	if err := svc.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened := NewService(NewKVRepository(store, zerolog.Nop()), zerolog.Nop())
	got, err := reopened.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSave_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name  string
		p     Profile
		field string
	}{
		{"missing name", Profile{Specialty: "Pediatría"}, "name"},
		{"missing specialty", Profile{Name: "Dra. Gómez"}, "specialty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Save(context.Background(), tt.p)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("expected ValidationError on %s, got %v", tt.field, err)
			}
		})
	}
}

func TestUpdate_KeepsUnsetFields(t *testing.T) {
	svc, _ := newTestService(t)
	p, err := svc.Update(context.Background(), Profile{Specialty: "Cardiología"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Dr. Usuario" || p.Role != "Médico" || p.Specialty != "Cardiología" {
		t.Errorf("unexpected profile %+v", p)
	}
}
