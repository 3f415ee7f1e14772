package report_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/report"
)

func ptr(s string) *string { return &s }

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sample() []domain.Complaint {
	return []domain.Complaint{
		{
			ID:            "a",
			ComplaintDate: ptr("2024-03-05"),
			Description:   "Obra sem alvará",
			StreetName:    "Rua das Flores",
			Neighborhood:  "Centro",
			CitedParty:    "João Silva",
			TaxID:         "123.456.789-01",
			DeadlineDays:  30,
			StartDate:     ptr("2024-03-05"),
			EndDate:       ptr("2024-04-04"),
		},
		{
			ID:            "b",
			ComplaintDate: ptr("2024-02-10"),
			Description:   "Descarte irregular",
			StreetName:    "Av. Brasil",
			Neighborhood:  "Jardim",
			EndDate:       ptr("2024-03-01"),
		},
		{ID: "c"},
	}
}

func TestExport_SpreadsheetRoundTrip(t *testing.T) {
	exp := report.NewExporter(clock)
	doc, err := exp.Export(sample(), domain.ExportRequest{
		Format:   domain.ExportSpreadsheet,
		Sections: map[string]bool{"dados": true},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Filename != "relatorio_completo.xlsx" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if doc.Rows != 3 {
		t.Errorf("rows = %d, want 3", doc.Rows)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	wantHeader := []string{"Data", "Diligência", "Atendimento", "Nº Atend.", "Descrição"}
	if diff := cmp.Diff(wantHeader, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if rows[1][0] != "05/03/2024" {
		t.Errorf("date cell = %q, want 05/03/2024", rows[1][0])
	}
	if rows[1][4] != "Obra sem alvará" {
		t.Errorf("description cell = %q", rows[1][4])
	}
}

func TestExport_PrintableIsPDF(t *testing.T) {
	exp := report.NewExporter(clock)
	doc, err := exp.Export(sample(), domain.ExportRequest{Format: domain.ExportPrintable, Subtitle: "Março"})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.HasPrefix(doc.Body, []byte("%PDF")) {
		t.Errorf("body does not start with %%PDF")
	}
	if doc.ContentType != "application/pdf" {
		t.Errorf("content type = %q", doc.ContentType)
	}
}

func TestExport_PrintableManyPages(t *testing.T) {
	records := make([]domain.Complaint, 0, 120)
	for i := 0; i < 120; i++ {
		records = append(records, sample()[0])
	}
	doc, err := report.NewExporter(clock).Export(records, domain.ExportRequest{
		Format:      domain.ExportPrintable,
		Orientation: "portrait",
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if doc.Rows != 120 {
		t.Errorf("rows = %d", doc.Rows)
	}
}

func TestExport_EmptyAbortsBeforeRendering(t *testing.T) {
	exp := report.NewExporter(clock)
	_, err := exp.Export(sample(), domain.ExportRequest{
		Format: domain.ExportSpreadsheet,
		Scope:  domain.ExportScope{Type: domain.ScopeDate, Date: "2023-01-01"},
	})
	var nothing *domain.ErrNothingToExport
	if !errors.As(err, &nothing) {
		t.Fatalf("err = %v, want ErrNothingToExport", err)
	}

	_, err = exp.Export(nil, domain.ExportRequest{})
	if !errors.As(err, &nothing) {
		t.Fatalf("empty input: err = %v, want ErrNothingToExport", err)
	}
}

func TestExport_RejectsUnknownFormatAndEmptySelection(t *testing.T) {
	exp := report.NewExporter(clock)
	var verr *domain.ErrValidation

	_, err := exp.Export(sample(), domain.ExportRequest{Format: "csv"})
	if !errors.As(err, &verr) || verr.Field != "format" {
		t.Errorf("err = %v, want format validation", err)
	}

	_, err = exp.Export(sample(), domain.ExportRequest{Sections: map[string]bool{"dados": false, "bogus": true}})
	if !errors.As(err, &verr) || verr.Field != "sections" {
		t.Errorf("err = %v, want sections validation", err)
	}
}

func TestApplyScope(t *testing.T) {
	records := sample()
	tests := []struct {
		name  string
		scope domain.ExportScope
		want  []string
	}{
		{"all", domain.ExportScope{Type: domain.ScopeAll}, []string{"a", "b", "c"}},
		{"empty type", domain.ExportScope{}, []string{"a", "b", "c"}},
		{"single date", domain.ExportScope{Type: domain.ScopeDate, Date: "2024-03-05"}, []string{"a"}},
		{"month", domain.ExportScope{Type: domain.ScopeMonth, Month: "2024-02"}, []string{"b"}},
		{"inclusive range", domain.ExportScope{Type: domain.ScopeRange, StartDate: "2024-02-10", EndDate: "2024-03-05"}, []string{"a", "b"}},
		{"incomplete range keeps dated", domain.ExportScope{Type: domain.ScopeRange, StartDate: "2024-02-10"}, []string{"a", "b"}},
		{"bad month keeps dated", domain.ExportScope{Type: domain.ScopeMonth, Month: "2024-13"}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := report.ApplyScope(records, tt.scope)
			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScopeSubtitle(t *testing.T) {
	tests := []struct {
		scope domain.ExportScope
		want  string
	}{
		{domain.ExportScope{Type: domain.ScopeDate, Date: "2024-03-05"}, "Data: 05/03/2024"},
		{domain.ExportScope{Type: domain.ScopeMonth, Month: "2024-02"}, "Mês: 2024-02"},
		{domain.ExportScope{Type: domain.ScopeRange, StartDate: "2024-02-10", EndDate: "2024-03-05"}, "Período: 10/02/2024 a 05/03/2024"},
		{domain.ExportScope{Type: domain.ScopeAll}, "Relatório Completo (Todos os registros)"},
		{domain.ExportScope{}, "Relatório Completo (Todos os registros)"},
	}
	for _, tt := range tests {
		if got := report.ScopeSubtitle(tt.scope); got != tt.want {
			t.Errorf("ScopeSubtitle(%+v) = %q, want %q", tt.scope, got, tt.want)
		}
	}
}

func TestExport_SpreadsheetColorsStatusCells(t *testing.T) {
	exp := report.NewExporter(clock)
	doc, err := exp.Export(sample(), domain.ExportRequest{
		Format:   domain.ExportSpreadsheet,
		Sections: map[string]bool{"prazos": true},
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	fillOf := func(cell string) string {
		t.Helper()
		id, err := f.GetCellStyle(report.SheetName, cell)
		if err != nil {
			t.Fatalf("GetCellStyle(%s): %v", cell, err)
		}
		if id == 0 {
			return ""
		}
		style, err := f.GetStyle(id)
		if err != nil {
			t.Fatalf("GetStyle(%d): %v", id, err)
		}
		if len(style.Fill.Color) == 0 {
			return ""
		}
		return strings.ToUpper(style.Fill.Color[0])
	}

	// F is the status column of the deadline section; rows 2..4 hold
	// AGUARDAR, VENCIDO and PENDENTE.
	if got := fillOf("F2"); !strings.HasSuffix(got, "DCFCE7") {
		t.Errorf("AGUARDAR fill = %q", got)
	}
	if got := fillOf("F3"); !strings.HasSuffix(got, "DC2626") {
		t.Errorf("VENCIDO fill = %q", got)
	}
	if got := fillOf("F4"); got != "" {
		t.Errorf("PENDENTE fill = %q, want none", got)
	}
	if got := fillOf("E3"); got != "" {
		t.Errorf("non-status cell fill = %q, want none", got)
	}
}

func TestBuildTable_StatusAndFormatting(t *testing.T) {
	fields := report.SelectFields(map[string]bool{"prazos": true})
	table := report.BuildTable(sample(), fields, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	if table.StatusColumn != len(fields)-1 {
		t.Fatalf("status column = %d", table.StatusColumn)
	}
	want := []string{"30", "05/03/2024", "04/04/2024", "", "", "AGUARDAR"}
	if diff := cmp.Diff(want, table.Rows[0]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	if table.Rows[1][5] != "VENCIDO" || table.Severities[1] != domain.SeverityDanger {
		t.Errorf("row 1 status = %q / %q", table.Rows[1][5], table.Severities[1])
	}
	if table.Rows[2][5] != "PENDENTE" {
		t.Errorf("row 2 status = %q", table.Rows[2][5])
	}
}

func TestBuildTable_NoStatusColumn(t *testing.T) {
	table := report.BuildTable(sample(), report.SelectFields(map[string]bool{"endereco": true}), fixedNow)
	if table.StatusColumn != -1 {
		t.Errorf("status column = %d, want -1", table.StatusColumn)
	}
}

func TestFormatValue_MalformedDatePassesThrough(t *testing.T) {
	c := domain.Complaint{ComplaintDate: ptr("ontem")}
	got := report.FormatValue(&c, report.Field{Key: "data_denuncia", Date: true}, fixedNow)
	if got != "ontem" {
		t.Errorf("got %q", got)
	}
}
