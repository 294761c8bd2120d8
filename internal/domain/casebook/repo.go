package casebook

import "context"

// PatientRepository stores patients. There is no update or delete.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
}

// CaseRepository stores cases. AppendEvolution is the only way to change a
// stored case.
type CaseRepository interface {
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id string) (*Case, error)
	GetByPatient(ctx context.Context, patientID string) (*Case, error)
	List(ctx context.Context) ([]*Case, error)
	// AppendEvolution adds e to the tail of the case. Appending an evolution
	// whose ID is already present leaves the case unchanged.
	AppendEvolution(ctx context.Context, caseID string, e ClinicalEvolution) (*Case, error)
}
