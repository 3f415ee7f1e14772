package domain

// StatusLabel is the derived deadline label of a complaint. It is never stored.
type StatusLabel string

const (
	StatusAguardar   StatusLabel = "AGUARDAR"
	StatusProrrogado StatusLabel = "PRORROGADO"
	StatusVencido    StatusLabel = "VENCIDO"
	StatusPendente   StatusLabel = "PENDENTE"

	// StatusAll is the filter sentinel meaning "any status".
	StatusAll StatusLabel = "ALL"
)

// Severity drives badge and report cell coloring.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
	SeverityNeutral Severity = "neutral"
)

// Status is the computed label + severity pair.
type Status struct {
	Label    StatusLabel `json:"label"`
	Severity Severity    `json:"severity"`
	Color    string      `json:"color"`
}

// AllStatusLabels lists every concrete label in display order.
var AllStatusLabels = []StatusLabel{StatusAguardar, StatusProrrogado, StatusVencido, StatusPendente}

// Valid reports whether l is a concrete label or the ALL sentinel.
func (l StatusLabel) Valid() bool {
	switch l {
	case StatusAguardar, StatusProrrogado, StatusVencido, StatusPendente, StatusAll:
		return true
	}
	return false
}
