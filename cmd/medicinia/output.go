package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/medicinia/medicinia/internal/domain/casebook"
	"github.com/medicinia/medicinia/internal/domain/consultation"
	"github.com/medicinia/medicinia/internal/domain/profile"
	"github.com/medicinia/medicinia/internal/domain/vocabulary"
)

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func printCodes(w io.Writer, kind vocabulary.Kind, codes []vocabulary.Code) {
	if kind == vocabulary.Procedural {
		fmt.Fprintf(w, "%-10s %-8s %-12s %-8s %s\n", "CODE", "ACTIVE", "CATEGORY", "SOAT", "DESCRIPTION")
		fmt.Fprintln(w, "---------- -------- ------------ -------- --------------------")
		for _, c := range codes {
			fmt.Fprintf(w, "%-10s %-8t %-12s %-8s %s\n", c.Code, c.Active, c.Category, orDash(c.CrossReference), c.Description)
		}
	} else {
		fmt.Fprintf(w, "%-10s %-8s %s\n", "CODE", "ACTIVE", "DESCRIPTION")
		fmt.Fprintln(w, "---------- -------- --------------------")
		for _, c := range codes {
			fmt.Fprintf(w, "%-10s %-8t %s\n", c.Code, c.Active, c.Description)
		}
	}
	fmt.Fprintf(w, "%d %s code(s)\n", len(codes), kind.Label())
}

func printPatients(w io.Writer, patients []*casebook.Patient) {
	fmt.Fprintf(w, "%-36s %-30s %-4s %-6s %s\n", "ID", "NAME", "AGE", "GENDER", "CREATED AT")
	fmt.Fprintln(w, strings.Repeat("-", 36)+" "+strings.Repeat("-", 30)+" ---- ------ --------------------")
	for _, p := range patients {
		fmt.Fprintf(w, "%-36s %-30s %-4d %-6s %s\n", p.ID, p.Name, p.Age, p.Gender, p.CreatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printCase(w io.Writer, c *casebook.Case) {
	fmt.Fprintf(w, "Case %s (%s), patient %s, opened %s\n", c.ID, c.Status, c.PatientID, c.CreatedAt.Format("2006-01-02"))
	if len(c.Evolutions) == 0 {
		fmt.Fprintln(w, "No evolutions yet.")
		return
	}
	for i, e := range c.Evolutions {
		fmt.Fprintf(w, "\n#%d %s  %s (%s)\n", i+1, e.Date.Format("2006-01-02 15:04"), e.ProfessionalName, e.ProfessionalSpecialty)
		fmt.Fprintf(w, "  Resumen: %s\n", e.Analysis.Summary)
		for _, d := range e.Analysis.Diagnostics {
			fmt.Fprintf(w, "  CIE-10 %s [%s] %s\n", d.Code, d.Probability, d.Description)
		}
		for _, p := range e.Analysis.Procedures {
			fmt.Fprintf(w, "  CUPS %s (SOAT: %s) %s\n", p.CupsCode, orDash(p.SoatCode), p.Description)
		}
		if e.Analysis.Plan != "" {
			fmt.Fprintf(w, "  Plan: %s\n", e.Analysis.Plan)
		}
		for _, a := range e.Analysis.Alerts {
			fmt.Fprintf(w, "  ! %s\n", a)
		}
	}
}

func printHistory(w io.Writer, entries []consultation.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No consultations recorded.")
		return
	}
	for _, e := range entries {
		label := ""
		if e.Category != "" {
			label = " [" + e.Category + "]"
		}
		fmt.Fprintf(w, "%s%s\n  Q: %s\n  A: %s\n", e.Timestamp.Format("2006-01-02 15:04"), label, e.Query, e.Response)
	}
}

func printProfile(w io.Writer, p profile.Profile) {
	fmt.Fprintf(w, "Name:      %s\nRole:      %s\nSpecialty: %s\n", p.Name, p.Role, p.Specialty)
}

func printStats(w io.Writer, st casebook.Stats) {
	fmt.Fprintf(w, "Patients:      %d\n", st.TotalPatients)
	fmt.Fprintf(w, "Active cases:  %d\n", st.ActiveCases)
	fmt.Fprintf(w, "Evolutions:    %d\n", st.TotalEvolutions)
	if len(st.TopDiagnoses) == 0 {
		return
	}
	fmt.Fprintln(w, "Top diagnoses:")
	for _, d := range st.TopDiagnoses {
		fmt.Fprintf(w, "  %-8s %d\n", d.Code, d.Count)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
