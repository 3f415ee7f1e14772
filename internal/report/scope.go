package report

import (
	"strconv"
	"strings"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"
)

// ScopeSubtitle describes the date scope of a report, for its subtitle.
func ScopeSubtitle(scope domain.ExportScope) string {
	switch scope.Type {
	case domain.ScopeDate:
		return "Data: " + lifecycle.FormatDisplay(scope.Date)
	case domain.ScopeMonth:
		return "Mês: " + scope.Month
	case domain.ScopeRange:
		return "Período: " + lifecycle.FormatDisplay(scope.StartDate) + " a " + lifecycle.FormatDisplay(scope.EndDate)
	default:
		return "Relatório Completo (Todos os registros)"
	}
}

// ApplyScope restricts records by complaint date before column mapping.
// ScopeAll (or an empty type) returns records untouched. Records without a
// parseable complaint date are dropped by every other scope. A scope whose
// bounds are incomplete keeps every dated record.
func ApplyScope(records []domain.Complaint, scope domain.ExportScope) []domain.Complaint {
	if scope.Type == "" || scope.Type == domain.ScopeAll {
		return records
	}

	out := make([]domain.Complaint, 0, len(records))
	for i := range records {
		day, ok := lifecycle.ParseDate(records[i].ComplaintDate)
		if !ok {
			continue
		}
		if inScope(day.Year(), int(day.Month()), lifecycle.FormatISO(day), scope) {
			out = append(out, records[i])
		}
	}
	return out
}

func inScope(year, month int, iso string, scope domain.ExportScope) bool {
	switch scope.Type {
	case domain.ScopeDate:
		d, ok := lifecycle.ParseDateString(scope.Date)
		if !ok {
			return true
		}
		return iso == lifecycle.FormatISO(d)

	case domain.ScopeMonth:
		y, m, ok := parseMonth(scope.Month)
		if !ok {
			return true
		}
		return year == y && month == m

	case domain.ScopeRange:
		start, okS := lifecycle.ParseDateString(scope.StartDate)
		end, okE := lifecycle.ParseDateString(scope.EndDate)
		if !okS || !okE {
			return true
		}
		return iso >= lifecycle.FormatISO(start) && iso <= lifecycle.FormatISO(end)
	}
	return true
}

// parseMonth reads "yyyy-mm".
func parseMonth(s string) (int, int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || m < 1 || m > 12 {
		return 0, 0, false
	}
	return y, m, true
}
