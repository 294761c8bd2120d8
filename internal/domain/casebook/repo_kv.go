package casebook

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/medicinia/medicinia/internal/platform/apperr"
	"github.com/medicinia/medicinia/internal/platform/kv"
)

// =========== Patient Repository ===========

type patientRepoKV struct {
	docs *kv.Collection[[]Patient]
}

// NewPatientRepoKV stores all patients under kv.KeyPatients.
func NewPatientRepoKV(store kv.Store, logger zerolog.Logger) PatientRepository {
	return &patientRepoKV{docs: kv.NewCollection(store, kv.KeyPatients, func() []Patient { return []Patient{} }, logger)}
}

func (r *patientRepoKV) Create(ctx context.Context, p *Patient) error {
	_, err := r.docs.Mutate(ctx, func(all *[]Patient) error {
		for _, existing := range *all {
			if existing.ID == p.ID {
				return apperr.Validation("id", "patient %s already exists", p.ID)
			}
		}
		*all = append(*all, *p)
		return nil
	})
	return err
}

func (r *patientRepoKV) GetByID(ctx context.Context, id string) (*Patient, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range doc.Data {
		if doc.Data[i].ID == id {
			p := doc.Data[i]
			return &p, nil
		}
	}
	return nil, apperr.NotFound("patient", id)
}

func (r *patientRepoKV) List(ctx context.Context) ([]*Patient, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Patient, 0, len(doc.Data))
	for i := range doc.Data {
		p := doc.Data[i]
		out = append(out, &p)
	}
	return out, nil
}

// =========== Case Repository ===========

type caseRepoKV struct {
	docs *kv.Collection[[]Case]
}

// NewCaseRepoKV stores all cases under kv.KeyCases.
func NewCaseRepoKV(store kv.Store, logger zerolog.Logger) CaseRepository {
	return &caseRepoKV{docs: kv.NewCollection(store, kv.KeyCases, func() []Case { return []Case{} }, logger)}
}

func (r *caseRepoKV) Create(ctx context.Context, c *Case) error {
	_, err := r.docs.Mutate(ctx, func(all *[]Case) error {
		for _, existing := range *all {
			if existing.PatientID == c.PatientID {
				return apperr.Validation("patient_id", "patient %s already has case %s", c.PatientID, existing.ID)
			}
		}
		*all = append(*all, c.clone())
		return nil
	})
	return err
}

func (r *caseRepoKV) find(ctx context.Context, match func(*Case) bool) (*Case, bool, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range doc.Data {
		if match(&doc.Data[i]) {
			c := doc.Data[i].clone()
			return &c, true, nil
		}
	}
	return nil, false, nil
}

func (r *caseRepoKV) GetByID(ctx context.Context, id string) (*Case, error) {
	c, ok, err := r.find(ctx, func(c *Case) bool { return c.ID == id })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("case", id)
	}
	return c, nil
}

func (r *caseRepoKV) GetByPatient(ctx context.Context, patientID string) (*Case, error) {
	c, ok, err := r.find(ctx, func(c *Case) bool { return c.PatientID == patientID })
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("case for patient", patientID)
	}
	return c, nil
}

func (r *caseRepoKV) List(ctx context.Context) ([]*Case, error) {
	doc, err := r.docs.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Case, 0, len(doc.Data))
	for i := range doc.Data {
		c := doc.Data[i].clone()
		out = append(out, &c)
	}
	return out, nil
}

func (r *caseRepoKV) AppendEvolution(ctx context.Context, caseID string, e ClinicalEvolution) (*Case, error) {
	var updated Case
	_, err := r.docs.Mutate(ctx, func(all *[]Case) error {
		for i := range *all {
			c := &(*all)[i]
			if c.ID != caseID {
				continue
			}
			if !c.hasEvolution(e.ID) {
				c.Evolutions = append(c.Evolutions, e)
			}
			updated = c.clone()
			return nil
		}
		return apperr.NotFound("case", caseID)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
