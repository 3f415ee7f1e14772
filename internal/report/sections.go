// Package report maps complaints onto columnar documents: a one-sheet
// spreadsheet and a paginated printable table.
package report

import (
	"strconv"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
)

// Field is one exported column.
type Field struct {
	Header   string
	Key      string
	Date     bool
	Computed bool
}

// Section is a named group of fields selectable as a unit.
type Section struct {
	Key    string
	Label  string
	Fields []Field
}

// Sections in export order. Field order within a section is fixed.
var Sections = []Section{
	{
		Key:   "dados",
		Label: "Dados da Denúncia",
		Fields: []Field{
			{Header: "Data", Key: "data_denuncia", Date: true},
			{Header: "Diligência", Key: "diligencia"},
			{Header: "Atendimento", Key: "atendimento"},
			{Header: "Nº Atend.", Key: "numero_atendimento"},
			{Header: "Descrição", Key: "descricao"},
		},
	},
	{
		Key:   "endereco",
		Label: "Endereço",
		Fields: []Field{
			{Header: "Tipo", Key: "rua_tipo"},
			{Header: "Logradouro", Key: "logradouro"},
			{Header: "Número", Key: "numero"},
			{Header: "Bairro", Key: "bairro"},
			{Header: "Comp.", Key: "complemento"},
		},
	},
	{
		Key:   "acao",
		Label: "Ação Fiscal",
		Fields: []Field{
			{Header: "No Local", Key: "no_local"},
			{Header: "Ação", Key: "acao_tomada"},
			{Header: "Autuado", Key: "autuado"},
			{Header: "CPF/CNPJ", Key: "cpf_cnpj"},
			{Header: "Nº Auto", Key: "numero_autuacao"},
			{Header: "Recebido Por", Key: "recebido_por"},
		},
	},
	{
		Key:   "prazos",
		Label: "Prazos & Situação",
		Fields: []Field{
			{Header: "Prazo (Dias)", Key: "prazo_inicial"},
			{Header: "Data Inicial", Key: "data_inicial", Date: true},
			{Header: "Data Final", Key: "data_final", Date: true},
			{Header: "Prorr. (Dias)", Key: "prorrogacao"},
			{Header: "Prorrogado Até", Key: "prorrogado_ate", Date: true},
			{Header: "Status", Key: "status", Computed: true},
		},
	},
	{
		Key:   "identificacao",
		Label: "Identificação & Multa",
		Fields: []Field{
			{Header: "Categoria", Key: "categoria"},
			{Header: "Fiscais", Key: "fiscais_atuantes"},
			{Header: "Nº ACI", Key: "numero_aci"},
			{Header: "Data ACI", Key: "data_aci", Date: true},
			{Header: "Obs", Key: "observacao"},
		},
	},
}

// DefaultSelection selects every section.
func DefaultSelection() map[string]bool {
	out := make(map[string]bool, len(Sections))
	for _, s := range Sections {
		out[s.Key] = true
	}
	return out
}

// SelectFields concatenates the fields of every selected section in declared order.
func SelectFields(selection map[string]bool) []Field {
	var out []Field
	for _, s := range Sections {
		if selection[s.Key] {
			out = append(out, s.Fields...)
		}
	}
	return out
}

// Headers returns the column labels of fields.
func Headers(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Header
	}
	return out
}

var rawValues = map[string]func(c *domain.Complaint) string{
	"data_denuncia":      func(c *domain.Complaint) string { return domain.Deref(c.ComplaintDate) },
	"diligencia":         func(c *domain.Complaint) string { return c.DiligenceSequence },
	"atendimento":        func(c *domain.Complaint) string { return c.IntakeChannel },
	"numero_atendimento": func(c *domain.Complaint) string { return c.TicketNumber },
	"descricao":          func(c *domain.Complaint) string { return c.Description },
	"rua_tipo":           func(c *domain.Complaint) string { return c.StreetType },
	"logradouro":         func(c *domain.Complaint) string { return c.StreetName },
	"numero":             func(c *domain.Complaint) string { return c.StreetNumber },
	"bairro":             func(c *domain.Complaint) string { return c.Neighborhood },
	"complemento":        func(c *domain.Complaint) string { return c.Complement },
	"no_local":           func(c *domain.Complaint) string { return c.OnSitePresence },
	"acao_tomada":        func(c *domain.Complaint) string { return c.ActionTaken },
	"autuado":            func(c *domain.Complaint) string { return c.CitedParty },
	"cpf_cnpj":           func(c *domain.Complaint) string { return c.TaxID },
	"numero_autuacao":    func(c *domain.Complaint) string { return c.CitationNumber },
	"recebido_por":       func(c *domain.Complaint) string { return c.ReceivedBy },
	"prazo_inicial":      func(c *domain.Complaint) string { return intValue(int(c.DeadlineDays)) },
	"data_inicial":       func(c *domain.Complaint) string { return domain.Deref(c.StartDate) },
	"data_final":         func(c *domain.Complaint) string { return domain.Deref(c.EndDate) },
	"prorrogacao":        func(c *domain.Complaint) string { return intValue(int(c.ExtensionDays)) },
	"prorrogado_ate":     func(c *domain.Complaint) string { return domain.Deref(c.ExtendedUntil) },
	"categoria":          func(c *domain.Complaint) string { return c.Category },
	"fiscais_atuantes":   func(c *domain.Complaint) string { return c.ActiveInspectors },
	"numero_aci":         func(c *domain.Complaint) string { return c.FineNumber },
	"data_aci":           func(c *domain.Complaint) string { return domain.Deref(c.FineDate) },
	"observacao":         func(c *domain.Complaint) string { return c.Notes },
}

// zero counts render blank, like any other falsy value
func intValue(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

// FormatValue renders one cell. The status column is recomputed from the
// record as of today; date columns render as dd/mm/yyyy.
func FormatValue(c *domain.Complaint, f Field, today time.Time) string {
	if f.Computed && f.Key == "status" {
		return string(lifecycle.ComputeStatus(c, today).Label)
	}
	get, ok := rawValues[f.Key]
	if !ok {
		return ""
	}
	v := get(c)
	if v == "" {
		return ""
	}
	if f.Date {
		return lifecycle.FormatDisplay(v)
	}
	return v
}
