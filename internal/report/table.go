package report

import (
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
)

// Table is the renderer-neutral shape of a report.
type Table struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Landscape   bool

	Headers []string
	Rows    [][]string

	// StatusColumn is the index of the status column, or -1.
	StatusColumn int
	// Severities holds the per-row status severity used for cell coloring.
	Severities []domain.Severity
}

// BuildTable maps records onto the selected fields.
func BuildTable(records []domain.Complaint, fields []Field, today time.Time) *Table {
	t := &Table{
		Headers:      Headers(fields),
		Rows:         make([][]string, 0, len(records)),
		Severities:   make([]domain.Severity, 0, len(records)),
		StatusColumn: -1,
	}
	for i, f := range fields {
		if f.Computed && f.Key == "status" {
			t.StatusColumn = i
		}
	}

	for i := range records {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = FormatValue(&records[i], f, today)
		}
		t.Rows = append(t.Rows, row)
		t.Severities = append(t.Severities, lifecycle.ComputeStatus(&records[i], today).Severity)
	}
	return t
}
