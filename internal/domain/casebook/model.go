package casebook

import (
	"time"

	"github.com/medicinia/medicinia/internal/domain/analysis"
)

// Gender is the patient's recorded sex.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// CaseStatus is the lifecycle state of a case.
type CaseStatus string

const (
	StatusActive CaseStatus = "Active"
	StatusClosed CaseStatus = "Closed"
)

// Patient is an immutable demographic record.
type Patient struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Age             int       `json:"age"`
	Gender          Gender    `json:"gender"`
	Weight          string    `json:"weight,omitempty"`
	Height          string    `json:"height,omitempty"`
	PersonalHistory string    `json:"personalHistory,omitempty"`
	FamilyHistory   string    `json:"familyHistory,omitempty"`
	OtherInfo       string    `json:"otherInfo,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PatientInput is the data accepted by CreatePatient.
type PatientInput struct {
	Name            string
	Age             int
	Gender          Gender
	Weight          string
	Height          string
	PersonalHistory string
	FamilyHistory   string
	OtherInfo       string
}

// ClinicalEvolution is one committed note in a case timeline.
type ClinicalEvolution struct {
	ID                    string          `json:"id"`
	Date                  time.Time       `json:"date"`
	ProfessionalName      string          `json:"professionalName"`
	ProfessionalSpecialty string          `json:"professionalSpecialty"`
	OriginalText          string          `json:"originalText"`
	Analysis              analysis.Result `json:"analysis"`
}

// Case is the single clinical case of a patient. Evolutions only grow.
type Case struct {
	ID         string              `json:"id"`
	PatientID  string              `json:"patientId"`
	Status     CaseStatus          `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	Evolutions []ClinicalEvolution `json:"evolutions"`
}

func (c Case) clone() Case {
	evs := make([]ClinicalEvolution, len(c.Evolutions))
	copy(evs, c.Evolutions)
	c.Evolutions = evs
	return c
}

func (c Case) hasEvolution(id string) bool {
	for _, e := range c.Evolutions {
		if e.ID == id {
			return true
		}
	}
	return false
}

// DiagnosisCount is a diagnosis code and how many evolutions cite it.
type DiagnosisCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// Stats summarizes the case book.
type Stats struct {
	TotalPatients   int              `json:"totalPatients"`
	ActiveCases     int              `json:"activeCases"`
	TotalEvolutions int              `json:"totalEvolutions"`
	TopDiagnoses    []DiagnosisCount `json:"topDiagnoses"`
}
