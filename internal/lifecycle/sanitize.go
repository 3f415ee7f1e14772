package lifecycle

import (
	"fmt"
	"strings"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// NormalizeForStore prepares a complaint for persistence:
// blank dates become null, derived deadlines are recomputed and the
// tax id is formatted as CPF or CNPJ when it has the right digit count.
func NormalizeForStore(c domain.Complaint) domain.Complaint {
	out := c
	for _, p := range []**string{
		&out.ComplaintDate, &out.StartDate, &out.EndDate, &out.ExtendedUntil, &out.FineDate,
	} {
		*p = normalizeDate(*p)
	}

	out = Recompute(out, "")
	out.TaxID = FormatTaxID(out.TaxID)
	return out
}

func normalizeDate(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatTaxID renders 11 digits as a CPF and 14 digits as a CNPJ.
// Other inputs are returned trimmed.
func FormatTaxID(value string) string {
	digits := Digits(value)
	switch len(digits) {
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", digits[:3], digits[3:6], digits[6:9], digits[9:11])
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", digits[:2], digits[2:5], digits[5:8], digits[8:12], digits[12:14])
	}
	return strings.TrimSpace(value)
}
