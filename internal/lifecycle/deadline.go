package lifecycle

import (
	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// Form fields whose edits trigger a deadline recomputation.
const (
	FieldStartDate     = "data_inicial"
	FieldDeadlineDays  = "prazo_inicial"
	FieldEndDate       = "data_final"
	FieldExtensionDays = "prorrogacao"
)

// AddDays adds a number of calendar days to a stored date.
// It returns nil when the date is missing or malformed, or when days is not positive.
func AddDays(date *string, days int) *string {
	if days <= 0 {
		return nil
	}
	t, ok := ParseDate(date)
	if !ok {
		return nil
	}
	out := FormatISO(t.AddDate(0, 0, days))
	return &out
}

// ComputeEndDate returns startDate + days.
func ComputeEndDate(startDate *string, days int) *string {
	return AddDays(startDate, days)
}

// ComputeExtendedUntil returns endDate + extensionDays.
func ComputeExtendedUntil(endDate *string, extensionDays int) *string {
	return AddDays(endDate, extensionDays)
}

// Recompute cascades derived deadline dates after changedField was edited.
// An empty changedField recomputes everything. A calculation that yields nil
// leaves the previous derived value in place. c itself is never modified.
func Recompute(c domain.Complaint, changedField string) domain.Complaint {
	out := c

	switch changedField {
	case FieldEndDate, FieldExtensionDays:
		// extendedUntil only
	default:
		if end := ComputeEndDate(out.StartDate, int(out.DeadlineDays)); end != nil {
			out.EndDate = end
		}
	}

	if ext := ComputeExtendedUntil(out.EndDate, int(out.ExtensionDays)); ext != nil {
		out.ExtendedUntil = ext
	}

	return out
}
