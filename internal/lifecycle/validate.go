package lifecycle

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
)

// MinDescriptionLength applies when a description is provided.
const MinDescriptionLength = 5

// Validate runs the intake form checks. It returns *domain.ErrValidationList or nil.
func Validate(c *domain.Complaint) error {
	var errs []*domain.ErrValidation
	add := func(field, msg string) {
		errs = append(errs, &domain.ErrValidation{Field: field, Message: msg})
	}

	if _, ok := ParseDate(c.ComplaintDate); !ok {
		add("data_denuncia", "Data da denúncia obrigatória (aaaa-mm-dd)")
	}

	if d := strings.TrimSpace(c.Description); d != "" && utf8.RuneCountInString(d) < MinDescriptionLength {
		add("descricao", "Descrição deve ter ao menos 5 caracteres")
	}

	if c.DeadlineDays < 0 {
		add("prazo_inicial", "Prazo não pode ser negativo")
	}
	if c.ExtensionDays < 0 {
		add("prorrogacao", "Prorrogação não pode ser negativa")
	}

	for field, p := range map[string]*string{
		"data_inicial":   c.StartDate,
		"data_final":     c.EndDate,
		"prorrogado_ate": c.ExtendedUntil,
		"data_aci":       c.FineDate,
	} {
		if p != nil && strings.TrimSpace(*p) != "" {
			if _, ok := ParseDate(p); !ok {
				add(field, "Data inválida (aaaa-mm-dd)")
			}
		}
	}

	start, okStart := ParseDate(c.StartDate)
	end, okEnd := ParseDate(c.EndDate)
	if okStart && okEnd && end.Before(start) {
		add("data_final", "Data final não pode ser anterior à data inicial")
	}

	if t := strings.TrimSpace(c.TaxID); t != "" {
		if n := len(Digits(t)); n != 11 && n != 14 {
			add("cpf_cnpj", "CPF/CNPJ deve ter 11 ou 14 dígitos")
		}
	}

	if len(errs) == 0 {
		return nil
	}
	// map iteration above is unordered
	slices.SortStableFunc(errs, func(a, b *domain.ErrValidation) int {
		return cmp.Compare(a.Field, b.Field)
	})
	return &domain.ErrValidationList{Errors: errs}
}

// ValidateCriteria checks the filter criteria a caller may persist or apply:
// the status must be a known label or ALL, and date bounds must parse.
func ValidateCriteria(f domain.FilterCriteria) error {
	if f.Status != "" && !f.Status.Valid() {
		return &domain.ErrValidation{Field: "status", Message: "status desconhecido: " + string(f.Status)}
	}
	if f.DateFrom != "" {
		if _, ok := ParseDateString(f.DateFrom); !ok {
			return &domain.ErrValidation{Field: "date_from", Message: "Data inválida (aaaa-mm-dd)"}
		}
	}
	if f.DateTo != "" {
		if _, ok := ParseDateString(f.DateTo); !ok {
			return &domain.ErrValidation{Field: "date_to", Message: "Data inválida (aaaa-mm-dd)"}
		}
	}
	return nil
}

// ValidateSort checks an optional sort field and direction.
func ValidateSort(field string, dir domain.SortDirection) error {
	if field != "" && !IsSortable(field) {
		return &domain.ErrValidation{Field: "sort", Message: "campo de ordenação inválido: " + field}
	}
	if dir != "" && dir != domain.SortAsc && dir != domain.SortDesc {
		return &domain.ErrValidation{Field: "dir", Message: "direção deve ser asc ou desc"}
	}
	return nil
}
