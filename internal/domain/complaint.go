package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Complaints — rows of the Supabase "complaints" table
// ============================================================

// Complaint is a single code-enforcement case ("denúncia").
// Column names follow the hosted table; dates are ISO yyyy-mm-dd strings
// and stay nullable so malformed values survive a round-trip untouched.
type Complaint struct {
	ID        string     `json:"id,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Intake
	ComplaintDate     *string `json:"data_denuncia"`
	DiligenceSequence string  `json:"diligencia"`
	Description       string  `json:"descricao"`
	IntakeChannel     string  `json:"atendimento"`
	TicketNumber      string  `json:"numero_atendimento"`

	// Location
	StreetType   string `json:"rua_tipo"`
	StreetName   string `json:"logradouro"`
	StreetNumber string `json:"numero"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`

	// Enforcement action
	OnSitePresence string `json:"no_local"`
	ActionTaken    string `json:"acao_tomada"`
	CitationNumber string `json:"numero_autuacao"`
	CitedParty     string `json:"autuado"`
	TaxID          string `json:"cpf_cnpj"`
	ReceivedBy     string `json:"recebido_por"`

	// Deadlines
	DeadlineDays  FlexInt `json:"prazo_inicial"`
	StartDate     *string `json:"data_inicial"`
	EndDate       *string `json:"data_final"`
	ExtensionDays FlexInt `json:"prorrogacao"`
	ExtendedUntil *string `json:"prorrogado_ate"`

	// Classification & fine
	Category         string  `json:"categoria"`
	ActiveInspectors string  `json:"fiscais_atuantes"`
	Notes            string  `json:"observacao"`
	FineNumber       string  `json:"numero_aci"`
	FineDate         *string `json:"data_aci"`

	OwnerID string `json:"user_id,omitempty"`
}

// ComplaintView is a complaint enriched with its derived status,
// as returned by list and detail endpoints.
type ComplaintView struct {
	Complaint
	Status Status `json:"status"`
}

// ============================================================
// FlexInt — tolerant integer for form-sourced numeric columns
// ============================================================

// FlexInt decodes JSON numbers and numeric strings alike.
// Blank or unparsable input decodes to 0; null decodes to 0.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	var raw string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			*f = 0
			return nil
		}
	} else {
		raw = string(data)
	}

	*f = FlexInt(ParseIntOrZero(raw))
	return nil
}

// ParseIntOrZero parses a decimal integer, tolerating surrounding blanks
// and a fractional part ("30.0"). Anything else yields 0.
func ParseIntOrZero(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return int(fl)
	}
	return 0
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
