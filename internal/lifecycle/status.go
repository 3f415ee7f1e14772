package lifecycle

import (
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

var (
	statusProrrogado = domain.Status{Label: domain.StatusProrrogado, Severity: domain.SeverityWarning, Color: "orange"}
	statusAguardar   = domain.Status{Label: domain.StatusAguardar, Severity: domain.SeveritySuccess, Color: "green"}
	statusVencido    = domain.Status{Label: domain.StatusVencido, Severity: domain.SeverityDanger, Color: "red"}
	statusPendente   = domain.Status{Label: domain.StatusPendente, Severity: domain.SeverityNeutral, Color: "gray"}
)

// ComputeStatus derives the deadline status of c as of today.
//
// Rules, first match wins:
//  1. extendedUntil present and >= today -> PRORROGADO
//  2. endDate present and >= today       -> AGUARDAR
//  3. endDate present                    -> VENCIDO
//  4. otherwise                          -> PENDENTE
//
// A lapsed extension falls through to the endDate rules. Malformed dates count as absent.
func ComputeStatus(c *domain.Complaint, today time.Time) domain.Status {
	day := DateOf(today)

	if ext, ok := ParseDate(c.ExtendedUntil); ok && !ext.Before(day) {
		return statusProrrogado
	}

	end, ok := ParseDate(c.EndDate)
	switch {
	case ok && !end.Before(day):
		return statusAguardar
	case ok:
		return statusVencido
	default:
		return statusPendente
	}
}

// View pairs c with its status.
func View(c domain.Complaint, today time.Time) domain.ComplaintView {
	return domain.ComplaintView{Complaint: c, Status: ComputeStatus(&c, today)}
}

// StatusFor returns the canonical Status for a label; unknown labels map to PENDENTE.
func StatusFor(label domain.StatusLabel) domain.Status {
	switch label {
	case domain.StatusProrrogado:
		return statusProrrogado
	case domain.StatusAguardar:
		return statusAguardar
	case domain.StatusVencido:
		return statusVencido
	default:
		return statusPendente
	}
}
