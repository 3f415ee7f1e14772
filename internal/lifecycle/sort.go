package lifecycle

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

type sortKey func(c *domain.Complaint) any

func strPtrKey(get func(c *domain.Complaint) *string) sortKey {
	return func(c *domain.Complaint) any {
		if p := get(c); p != nil {
			return *p
		}
		return nil
	}
}

// sortKeys maps the sortable table columns to their value extractors.
var sortKeys = map[string]sortKey{
	"data_denuncia":      strPtrKey(func(c *domain.Complaint) *string { return c.ComplaintDate }),
	"diligencia":         func(c *domain.Complaint) any { return c.DiligenceSequence },
	"atendimento":        func(c *domain.Complaint) any { return c.IntakeChannel },
	"numero_atendimento": func(c *domain.Complaint) any { return c.TicketNumber },
	"logradouro":         func(c *domain.Complaint) any { return c.StreetName },
	"bairro":             func(c *domain.Complaint) any { return c.Neighborhood },
	"no_local":           func(c *domain.Complaint) any { return c.OnSitePresence },
	"acao_tomada":        func(c *domain.Complaint) any { return c.ActionTaken },
	"autuado":            func(c *domain.Complaint) any { return c.CitedParty },
	"cpf_cnpj":           func(c *domain.Complaint) any { return c.TaxID },
	"prazo_inicial":      func(c *domain.Complaint) any { return int(c.DeadlineDays) },
	"data_inicial":       strPtrKey(func(c *domain.Complaint) *string { return c.StartDate }),
	"data_final":         strPtrKey(func(c *domain.Complaint) *string { return c.EndDate }),
	"prorrogacao":        func(c *domain.Complaint) any { return int(c.ExtensionDays) },
	"prorrogado_ate":     strPtrKey(func(c *domain.Complaint) *string { return c.ExtendedUntil }),
	"categoria":          func(c *domain.Complaint) any { return c.Category },
	"fiscais_atuantes":   func(c *domain.Complaint) any { return c.ActiveInspectors },
	"created_at": func(c *domain.Complaint) any {
		if c.CreatedAt == nil {
			return nil
		}
		return *c.CreatedAt
	},
}

// IsSortable reports whether field names a sortable column.
func IsSortable(field string) bool {
	_, ok := sortKeys[field]
	return ok
}

// Compare orders a and b by field. Missing values sort as the empty string,
// strings compare case-insensitively, and desc inverts the result.
// Unknown fields compare equal.
func Compare(a, b *domain.Complaint, field string, dir domain.SortDirection) int {
	key, ok := sortKeys[field]
	if !ok {
		return 0
	}
	r := compareValues(key(a), key(b))
	if dir == domain.SortDesc {
		r = -r
	}
	return r
}

// SortStable returns a sorted copy of records; equal keys keep their input order.
func SortStable(records []domain.Complaint, field string, dir domain.SortDirection) []domain.Complaint {
	out := slices.Clone(records)
	if field == "" {
		return out
	}
	slices.SortStableFunc(out, func(a, b domain.Complaint) int {
		return Compare(&a, &b, field, dir)
	})
	return out
}

func compareValues(x, y any) int {
	if x == nil {
		x = ""
	}
	if y == nil {
		y = ""
	}

	switch xv := x.(type) {
	case string:
		if yv, ok := y.(string); ok {
			return cmp.Compare(strings.ToLower(xv), strings.ToLower(yv))
		}
		if xv == "" {
			return -1
		}
	case int:
		if yv, ok := y.(int); ok {
			return cmp.Compare(xv, yv)
		}
	case time.Time:
		if yv, ok := y.(time.Time); ok {
			return xv.Compare(yv)
		}
	}

	if ys, ok := y.(string); ok && ys == "" {
		return 1
	}
	return cmp.Compare(strings.ToLower(fmt.Sprint(x)), strings.ToLower(fmt.Sprint(y)))
}
