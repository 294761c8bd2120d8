package vocabulary

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/kv"
)

// =========== Mock Repository ===========

type mockRepo struct {
	v      Vocabulary
	writes int
}

func newMockRepo() *mockRepo {
	return &mockRepo{v: Vocabulary{
		Diagnostics: []Code{
			{Code: "A09X", Description: "Diarrea y gastroenteritis", Active: true},
			{Code: "I10X", Description: "Hipertensión esencial", Active: false},
		},
		Procedures: []Code{
			{Code: "890201", Description: "Consulta de primera vez", Active: true, Category: CategoryDiagnostic, CrossReference: "39145"},
		},
	}}
}

func (m *mockRepo) Get(_ context.Context) (*Vocabulary, error) {
	v := m.v.Clone()
	return &v, nil
}

func (m *mockRepo) Update(_ context.Context, fn func(v *Vocabulary) error) (*Vocabulary, error) {
	next := m.v.Clone()
	if err := fn(&next); err != nil {
		return nil, err
	}
	m.v = next
	m.writes++
	v := m.v.Clone()
	return &v, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	return NewService(repo, zerolog.Nop()), repo
}

// =========== Tests ===========

func TestListActive_ExcludesInactive(t *testing.T) {
	svc, _ := newTestService()
	codes, err := svc.ListActive(context.Background(), Diagnostic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) != 1 || codes[0].Code != "A09X" {
		t.Errorf("expected only A09X, got %+v", codes)
	}

	all, _ := svc.List(context.Background(), Diagnostic)
	if len(all) != 2 {
		t.Errorf("expected List to include inactive codes, got %d", len(all))
	}
}

func TestAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to active and upper-cases CIE-10", func(t *testing.T) {
		svc, repo := newTestService()
		c, err := svc.Add(ctx, Diagnostic, " r51x ", "Cefalea", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Code != "R51X" || !c.Active {
			t.Errorf("unexpected code %+v", c)
		}
		if got := repo.v.Diagnostics[len(repo.v.Diagnostics)-1]; got.Code != "R51X" {
			t.Errorf("expected R51X appended, got %+v", got)
		}
	})

	t.Run("procedure defaults to Diagnostic category", func(t *testing.T) {
		svc, _ := newTestService()
		c, err := svc.Add(ctx, Procedural, "907106", "Uroanálisis", &ProcedureExtra{CrossReference: " 19303 "})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Category != CategoryDiagnostic || c.CrossReference != "19303" {
			t.Errorf("unexpected procedure %+v", c)
		}
	})

	t.Run("empty code or description is a validation error", func(t *testing.T) {
		svc, repo := newTestService()
		cases := []struct{ code, desc, field string }{
			{"", "Cefalea", "code"},
			{"R51X", "  ", "description"},
		}
		for _, tc := range cases {
			_, err := svc.Add(ctx, Diagnostic, tc.code, tc.desc, nil)
			var ve *apperr.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field {
				t.Errorf("expected field %s, got %s", tc.field, ve.Field)
			}
		}
		if repo.writes != 0 {
			t.Errorf("expected store unchanged, got %d writes", repo.writes)
		}
	})

	t.Run("duplicate code rejected", func(t *testing.T) {
		svc, repo := newTestService()
		_, err := svc.Add(ctx, Diagnostic, "a09x", "Otra", nil)
		var ve *apperr.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if len(repo.v.Diagnostics) != 2 {
			t.Errorf("expected vocabulary unchanged")
		}
	})

	t.Run("invalid category rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.Add(ctx, Procedural, "1", "x", &ProcedureExtra{Category: "Cosmetic"})
		if err == nil {
			t.Fatal("expected error for invalid category")
		}
	})
}

func TestToggleActive(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	c, err := svc.ToggleActive(ctx, Diagnostic, "I10X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Active || !repo.v.Diagnostics[1].Active {
		t.Error("expected I10X to become active")
	}

	c, _ = svc.ToggleActive(ctx, Diagnostic, "I10X")
	if c.Active {
		t.Error("expected second toggle to deactivate")
	}

	_, err = svc.ToggleActive(ctx, Diagnostic, "Z99Z")
	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestBulkImport_DuplicateOfExisting(t *testing.T) {
	svc, repo := newTestService()
	res, err := svc.BulkImport(context.Background(), Diagnostic, "A09X\tDuplicado\nK297\tGastritis, no especificada\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Imported != 1 || res.Skipped != 1 {
		t.Errorf("expected imported 1, skipped 1, got %+v", res)
	}
	if repo.v.Diagnostics[0].Description != "Diarrea y gastroenteritis" {
		t.Error("expected existing code to win")
	}
}

func TestBulkImport_FirstOccurrenceWins(t *testing.T) {
	svc, repo := newTestService()
	res, _ := svc.BulkImport(context.Background(), Procedural, "903841,Glucosa,111\n903841,Glucosa repetida,222\nsolo-codigo\n")
	if res.Imported != 1 || res.Skipped != 2 {
		t.Errorf("expected imported 1, skipped 2, got %+v", res)
	}
	last := repo.v.Procedures[len(repo.v.Procedures)-1]
	if last.Description != "Glucosa" || last.CrossReference != "111" {
		t.Errorf("expected first occurrence, got %+v", last)
	}
}

func TestBulkImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	batch := "R51X\tCefalea\nM545\tLumbago no especificado\nN390,Infección de vías urinarias, sitio no especificado\n"

	first, _ := svc.BulkImport(ctx, Diagnostic, batch)
	once := repo.v.Clone()

	second, _ := svc.BulkImport(ctx, Diagnostic, batch)
	if second.Imported != 0 || second.Skipped != first.Imported+first.Skipped {
		t.Errorf("expected second import to be entirely skipped, got %+v", second)
	}
	if !reflect.DeepEqual(once, repo.v) {
		t.Error("expected vocabulary unchanged by the second import")
	}
}

func TestService_KVRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := kv.OpenLevelMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	svc := NewService(NewKVRepository(store, Vocabulary{}, zerolog.Nop()), zerolog.Nop())
	if _, err := svc.Add(ctx, Diagnostic, "A09X", "Diarrea y gastroenteritis", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, Procedural, "890201", "Consulta", &ProcedureExtra{Category: CategorySurgical, CrossReference: "39145"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	reopened := NewService(NewKVRepository(store, DefaultSeed(), zerolog.Nop()), zerolog.Nop())
	procs, _ := reopened.List(ctx, Procedural)
	want := []Code{{Code: "890201", Description: "Consulta", Active: true, Category: CategorySurgical, CrossReference: "39145"}}
	if !reflect.DeepEqual(procs, want) {
		t.Errorf("round trip mismatch: got %+v", procs)
	}
}

func TestService_SeedsAbsentVocabulary(t *testing.T) {
	ctx := context.Background()
	store, _ := kv.OpenLevelMemory()
	defer store.Close()

	svc := NewService(NewKVRepository(store, DefaultSeed(), zerolog.Nop()), zerolog.Nop())
	codes, err := svc.ListActive(ctx, Diagnostic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(codes) == 0 {
		t.Fatal("expected seeded diagnostic codes")
	}
}
