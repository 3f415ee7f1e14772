package report

import (
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
)

// Title heads every printable report.
const Title = "Relatório de Denúncias"

const (
	spreadsheetType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	printableType   = "application/pdf"
)

// Exporter renders filtered, sorted complaint sets into documents.
type Exporter struct {
	now func() time.Time
}

// NewExporter returns an Exporter. A nil clock defaults to time.Now.
func NewExporter(now func() time.Time) *Exporter {
	if now == nil {
		now = time.Now
	}
	return &Exporter{now: now}
}

// Export scopes records by date, maps them onto the selected sections and
// renders the requested format. An empty scoped set aborts with
// ErrNothingToExport before anything is rendered.
func (e *Exporter) Export(records []domain.Complaint, req domain.ExportRequest) (*domain.Document, error) {
	format := req.Format
	if format == "" {
		format = domain.ExportSpreadsheet
	}
	if format != domain.ExportSpreadsheet && format != domain.ExportPrintable {
		return nil, &domain.ErrValidation{Field: "format", Message: "must be xlsx or pdf"}
	}

	scoped := ApplyScope(records, req.Scope)
	if len(scoped) == 0 {
		return nil, &domain.ErrNothingToExport{}
	}

	selection := req.Sections
	if len(selection) == 0 {
		selection = DefaultSelection()
	}
	fields := SelectFields(selection)
	if len(fields) == 0 {
		return nil, &domain.ErrValidation{Field: "sections", Message: "select at least one section"}
	}

	now := e.now()
	table := BuildTable(scoped, fields, lifecycle.DateOf(now))
	table.Title = Title
	table.Subtitle = req.Subtitle
	if table.Subtitle == "" {
		table.Subtitle = ScopeSubtitle(req.Scope)
	}
	table.GeneratedAt = now
	table.Landscape = req.Orientation != "portrait"

	doc := &domain.Document{Rows: len(table.Rows)}
	var err error
	switch format {
	case domain.ExportPrintable:
		doc.Filename = "relatorio_completo.pdf"
		doc.ContentType = printableType
		doc.Body, err = RenderPrintable(table)
	default:
		doc.Filename = "relatorio_completo.xlsx"
		doc.ContentType = spreadsheetType
		doc.Body, err = RenderSpreadsheet(table)
	}
	if err != nil {
		return nil, &domain.ErrExport{Format: format, Err: err}
	}
	return doc, nil
}
