package report

import (
	"fmt"
	"unicode/utf8"

	"github.com/boddenberg/denuncias-bfa/internal/domain"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of the spreadsheet export.
const SheetName = "Relatório"

// maxColumnWidth is Excel's hard limit for a column width, in characters.
const maxColumnWidth = 255

// RenderSpreadsheet writes the table as a one-sheet workbook: a header row
// followed by one row per record. Each column is as wide as its widest value.
func RenderSpreadsheet(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, t.Headers); err != nil {
		return nil, err
	}
	for i, row := range t.Rows {
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return nil, fmt.Errorf("apply header style: %w", err)
	}

	if err := colorStatusCells(f, t); err != nil {
		return nil, err
	}

	for col, width := range columnWidths(t) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, float64(width)); err != nil {
			return nil, fmt.Errorf("set width of %s: %w", name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// colorStatusCells fills the status column with the same severity palette
// as the printable report.
func colorStatusCells(f *excelize.File, t *Table) error {
	if t.StatusColumn < 0 {
		return nil
	}
	styles := make(map[domain.Severity]int, len(severityFill))
	for sev, fill := range severityFill {
		text := black
		if sev == domain.SeverityDanger {
			text = white
		}
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill.hex()}},
			Font: &excelize.Font{Bold: true, Color: text.hex()},
		})
		if err != nil {
			return fmt.Errorf("status style: %w", err)
		}
		styles[sev] = id
	}

	for i := range t.Rows {
		if i >= len(t.Severities) {
			break
		}
		id, ok := styles[t.Severities[i]]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(t.StatusColumn+1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetName, cell, cell, id); err != nil {
			return fmt.Errorf("style %s: %w", cell, err)
		}
	}
	return nil
}

func writeRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// columnWidths returns, per column, the rune length of its widest value plus padding.
func columnWidths(t *Table) []int {
	widths := make([]int, len(t.Headers))
	measure := func(row []string) {
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(v); n > widths[i] {
				widths[i] = n
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}
	for i := range widths {
		widths[i] = min(widths[i]+2, maxColumnWidth)
	}
	return widths
}
