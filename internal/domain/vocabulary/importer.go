package vocabulary

import "strings"

// Row is one parsed line of a bulk import.
type Row struct {
	Code           string
	Description    string
	CrossReference string
}

// ParseRows parses newline-separated import text. Each line is split on tabs
// when it contains one, otherwise on commas. Column 1 is the code, column 2
// the description and, for procedures, column 3 the SOAT cross reference.
// In comma mode a diagnostic description keeps any further commas.
//
// Blank lines are ignored. Lines without both a code and a description are
// counted in malformed and dropped.
func ParseRows(kind Kind, text string) (rows []Row, malformed int) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var cols []string
		if strings.Contains(line, "\t") {
			cols = strings.Split(line, "\t")
		} else {
			cols = strings.Split(line, ",")
			if kind == Diagnostic && len(cols) > 2 {
				cols = []string{cols[0], strings.Join(cols[1:], ",")}
			}
		}

		row := Row{Code: normalizeCode(kind, cols[0])}
		if len(cols) > 1 {
			row.Description = strings.TrimSpace(cols[1])
		}
		if kind == Procedural && len(cols) > 2 {
			row.CrossReference = strings.TrimSpace(cols[2])
		}

		if row.Code == "" || row.Description == "" {
			malformed++
			continue
		}
		rows = append(rows, row)
	}
	return rows, malformed
}
