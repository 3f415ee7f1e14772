package lifecycle

import (
	"strings"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// Matches reports whether c satisfies every provided criterion.
func Matches(c *domain.Complaint, f domain.FilterCriteria, today time.Time) bool {
	if f.Status != "" && f.Status != domain.StatusAll {
		if ComputeStatus(c, today).Label != f.Status {
			return false
		}
	}

	if q := strings.TrimSpace(f.FreeText); q != "" && !matchesFreeText(c, q) {
		return false
	}

	if f.DateFrom != "" || f.DateTo != "" {
		d := isoDay(domain.Deref(c.ComplaintDate))
		if d == "" {
			return false
		}
		// ISO dates order lexicographically; both bounds are inclusive days.
		if from := isoDay(f.DateFrom); from != "" && d < from {
			return false
		}
		if to := isoDay(f.DateTo); to != "" && d > to {
			return false
		}
	}

	// The category filter searches the description text.
	if f.Category != "" && !containsFold(c.Description, f.Category) {
		return false
	}
	if f.Inspector != "" && !containsFold(c.ActiveInspectors, f.Inspector) {
		return false
	}
	if f.Neighborhood != "" && !containsFold(c.Neighborhood, f.Neighborhood) {
		return false
	}
	if f.ActionTaken != "" && c.ActionTaken != f.ActionTaken {
		return false
	}

	return true
}

// Filter returns the records matching f, preserving order.
func Filter(records []domain.Complaint, f domain.FilterCriteria, today time.Time) []domain.Complaint {
	out := make([]domain.Complaint, 0, len(records))
	for i := range records {
		if Matches(&records[i], f, today) {
			out = append(out, records[i])
		}
	}
	return out
}

func matchesFreeText(c *domain.Complaint, q string) bool {
	lq := strings.ToLower(q)
	return strings.Contains(strings.ToLower(c.CitedParty), lq) ||
		strings.Contains(strings.ToLower(c.StreetName), lq) ||
		strings.Contains(strings.ToLower(c.TicketNumber), lq) ||
		strings.Contains(c.TaxID, lq)
}

// isoDay reduces any accepted date form to its yyyy-mm-dd day.
func isoDay(s string) string {
	t, ok := ParseDateString(s)
	if !ok {
		return ""
	}
	return FormatISO(t)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
