// Package prompt renders the text sent to the generation provider. Every
// function here is pure: the same inputs always produce the same request.
package prompt

import (
	"fmt"
	"strings"

	"github.com/medicinia/medicinia/internal/domain/analysis"
	"github.com/medicinia/medicinia/internal/domain/casebook"
	"github.com/medicinia/medicinia/internal/domain/profile"
	"github.com/medicinia/medicinia/internal/domain/vocabulary"
	"github.com/medicinia/medicinia/internal/platform/llm"
)

const (
	// DefaultTemperature is used when AnalysisInput.Temperature is zero.
	DefaultTemperature float32 = 0.2

	// MaxDigestEvolutions bounds how many prior evolutions enter a prompt.
	MaxDigestEvolutions = 20

	firstVisit = "Primera atención."

	// NotFoundAnswer is the reply the consultation prompt demands when a
	// concept is absent from the vocabulary.
	NotFoundAnswer = "No se encontró información en la base de datos controlada."
)

// AnalysisInput is everything one analysis prompt is built from.
type AnalysisInput struct {
	Note       string
	Patient    *casebook.Patient
	Evolutions []casebook.ClinicalEvolution
	Snapshot   *vocabulary.Snapshot
	Profile    profile.Profile
	// Temperature overrides DefaultTemperature when non-zero.
	Temperature float32
}

// PatientContext renders demographics and personal history.
func PatientContext(p *casebook.Patient) string {
	return fmt.Sprintf("Paciente: %s, %d años, Sexo: %s.\nAntecedentes: %s.\nPeso: %s.",
		p.Name, p.Age, p.Gender, orDefault(p.PersonalHistory, "Niega"), orDefault(p.Weight, "N/A"))
}

// EvolutionDigest renders prior evolutions oldest first, each tagged with
// its commit date. Only the most recent MaxDigestEvolutions are kept.
func EvolutionDigest(evs []casebook.ClinicalEvolution) string {
	if len(evs) == 0 {
		return firstVisit
	}
	if len(evs) > MaxDigestEvolutions {
		evs = evs[len(evs)-MaxDigestEvolutions:]
	}
	blocks := make([]string, 0, len(evs))
	for _, e := range evs {
		blocks = append(blocks, fmt.Sprintf("[%s] %s", e.Date.UTC().Format("2006-01-02"), e.OriginalText))
	}
	return strings.Join(blocks, "\n\n")
}

// DiagnosticList renders the snapshot's diagnostic codes, one per line.
func DiagnosticList(s *vocabulary.Snapshot) string {
	codes := s.Diagnostics()
	lines := make([]string, 0, len(codes))
	for _, c := range codes {
		lines = append(lines, c.Code+": "+c.Description)
	}
	return strings.Join(lines, "\n")
}

// ProcedureList renders the snapshot's procedure codes with their SOAT
// cross-reference, one per line.
func ProcedureList(s *vocabulary.Snapshot) string {
	codes := s.Procedures()
	lines := make([]string, 0, len(codes))
	for _, c := range codes {
		lines = append(lines, fmt.Sprintf("%s (SOAT: %s): %s", c.Code, orDefault(c.CrossReference, "N/A"), c.Description))
	}
	return strings.Join(lines, "\n")
}

// AssembleAnalysis builds the structured-analysis request. Only codes in
// in.Snapshot are listed, so inactive codes never reach the provider.
func AssembleAnalysis(in AnalysisInput) llm.Request {
	role := orDefault(in.Profile.Role, profile.Default().Role)
	specialty := orDefault(in.Profile.Specialty, profile.Default().Specialty)

	var b strings.Builder
	fmt.Fprintf(&b, "ROL: Actúa como un Asistente Médico Experto para un profesional con el rol de \"%s\" y especialidad en \"%s\".\n\n", role, specialty)
	b.WriteString("TAREA: Analizar una nueva evolución clínica y estructurar la salida.\n\n")
	b.WriteString("CONTEXTO DEL PACIENTE:\n")
	if in.Patient != nil {
		b.WriteString(PatientContext(in.Patient))
	}
	b.WriteString("\n\nHISTORIA PREVIA (RESUMEN):\n")
	b.WriteString(EvolutionDigest(in.Evolutions))
	b.WriteString("\n\nNUEVA NOTA CLÍNICA (TEXTO LIBRE):\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", in.Note)
	b.WriteString("REGLAS DE SEGURIDAD (ANTI-ALUCINACIÓN):\n")
	b.WriteString("1. DIAGNÓSTICOS: Solo sugiere códigos CIE-10 que estén en la LISTA AUTORIZADA abajo. Si el paciente tiene algo que no está en la lista, menciónalo en \"alerts\" pero no inventes el código.\n")
	b.WriteString("2. PROCEDIMIENTOS: Solo sugiere códigos CUPS que estén en la LISTA AUTORIZADA abajo.\n")
	fmt.Fprintf(&b, "3. TONO: Usa terminología médica formal, adaptada a la especialidad de %s.\n", specialty)
	b.WriteString("4. NO INVENTAR: Si falta información, indícalo.\n\n")
	b.WriteString("LISTA CIE-10 AUTORIZADA:\n")
	b.WriteString(DiagnosticList(in.Snapshot))
	b.WriteString("\n\nLISTA CUPS AUTORIZADA:\n")
	b.WriteString(ProcedureList(in.Snapshot))
	b.WriteString("\n")

	temp := in.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}
	return llm.Request{
		Prompt:            b.String(),
		SystemInstruction: SystemInstruction(specialty),
		Temperature:       temp,
		Schema:            analysis.OutputSchema(),
	}
}

// SystemInstruction is the provider system prompt for a specialty.
func SystemInstruction(specialty string) string {
	return "Eres un asistente clínico estricto. Tu prioridad es la seguridad del paciente y la trazabilidad documental bajo normativa colombiana. Eres especialista en " + specialty + "."
}

// AssembleConsultation builds a free-form question request answered only
// from the snapshot. The response is plain text, so no schema is attached.
func AssembleConsultation(query string, s *vocabulary.Snapshot, p profile.Profile) llm.Request {
	cups := make([]string, 0, len(s.Procedures()))
	for _, c := range s.Procedures() {
		cups = append(cups, c.Code+": "+c.Description)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pregunta del médico (%s): \"%s\"\n\n", orDefault(p.Specialty, profile.Default().Specialty), query)
	b.WriteString("Responde basándote EXCLUSIVAMENTE en las siguientes bases de datos autorizadas:\n\n")
	b.WriteString("CIE-10:\n")
	b.WriteString(DiagnosticList(s))
	b.WriteString("\n\nCUPS:\n")
	b.WriteString(strings.Join(cups, "\n"))
	b.WriteString("\n\nInstrucciones:\n")
	b.WriteString("1. Si la respuesta implica un código, debe estar en la lista.\n")
	b.WriteString("2. Provee una explicación clínica breve si es relevante.\n")
	fmt.Fprintf(&b, "3. Si no encuentras el concepto en la lista, di: \"%s\"\n", NotFoundAnswer)

	return llm.Request{Prompt: b.String(), Temperature: DefaultTemperature}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
