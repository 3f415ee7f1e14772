package report

import (
	"bytes"
	"fmt"

	"github.com/boddenberg/denuncias-bfa/internal/domain"

	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	headerFill = rgb{79, 70, 229}
	zebraFill  = rgb{243, 244, 246}
	white      = rgb{255, 255, 255}
	black      = rgb{17, 24, 39}

	// status cell backgrounds; danger uses white text
	severityFill = map[domain.Severity]rgb{
		domain.SeveritySuccess: {220, 252, 231},
		domain.SeverityWarning: {255, 237, 213},
		domain.SeverityDanger:  {220, 38, 38},
	}
)

const (
	fontFamily = "Helvetica"
	bodySize   = 7
	rowHeight  = 5.0
	minColW    = 8.0
)

// RenderPrintable writes the table as a paginated PDF: title band on the first
// page, a repeated column header on every page, zebra rows, a status cell
// colored by severity and "Página N de M" footers.
func RenderPrintable(t *Table) ([]byte, error) {
	orientation := "L"
	if !t.Landscape {
		orientation = "P"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 12)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont(fontFamily, "I", 8)
		setText(pdf, black)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(0, 6, tr("Gerado em: "+t.GeneratedAt.Format("02/01/2006 15:04")), "", 1, "L", false, 0, "")
	if t.Subtitle != "" {
		pdf.CellFormat(0, 6, tr(t.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := fitColumns(pdf, tr, t, pageW-left-right)

	drawHeader(pdf, tr, t.Headers, widths)
	for i, row := range t.Rows {
		if pdf.GetY()+rowHeight > pageH-bottom-2 {
			pdf.AddPage()
			drawHeader(pdf, tr, t.Headers, widths)
		}
		drawRow(pdf, tr, t, i, row, widths)
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, headers []string, widths []float64) {
	pdf.SetFont(fontFamily, "B", bodySize)
	setFill(pdf, headerFill)
	setText(pdf, white)
	for i, h := range headers {
		pdf.CellFormat(widths[i], rowHeight+1, fitText(pdf, tr(h), widths[i]), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
}

func drawRow(pdf *fpdf.Fpdf, tr func(string) string, t *Table, idx int, row []string, widths []float64) {
	pdf.SetFont(fontFamily, "", bodySize)
	base := white
	if idx%2 == 1 {
		base = zebraFill
	}

	for j, v := range row {
		fill, text := base, black
		if j == t.StatusColumn && idx < len(t.Severities) {
			if c, ok := severityFill[t.Severities[idx]]; ok {
				fill = c
				if t.Severities[idx] == domain.SeverityDanger {
					text = white
				}
			}
		}
		setFill(pdf, fill)
		setText(pdf, text)
		pdf.CellFormat(widths[j], rowHeight, fitText(pdf, tr(v), widths[j]), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

// fitColumns sizes columns by their widest content, scaled to the usable width.
func fitColumns(pdf *fpdf.Fpdf, tr func(string) string, t *Table, usable float64) []float64 {
	pdf.SetFont(fontFamily, "", bodySize)
	widths := make([]float64, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = pdf.GetStringWidth(tr(h)) + 3
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], pdf.GetStringWidth(tr(v))+3)
			}
		}
	}

	var total float64
	for i := range widths {
		widths[i] = max(widths[i], minColW)
		total += widths[i]
	}
	if total == 0 {
		return widths
	}
	scale := usable / total
	for i := range widths {
		widths[i] *= scale
	}
	return widths
}

// fitText truncates s with "..." so it fits inside width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	b := []byte(s)
	for len(b) > 0 && pdf.GetStringWidth(string(b)+"...") > limit {
		b = b[:len(b)-1]
	}
	return string(b) + "..."
}

// hex renders c as the RRGGBB form excelize expects.
func (c rgb) hex() string { return fmt.Sprintf("%02X%02X%02X", c.r, c.g, c.b) }

func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }
func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
