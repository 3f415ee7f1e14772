package lifecycle

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/boddenberg/denuncias-bfa/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// Paginate runs filter -> sort -> slice over the full record set.
// The page is clamped into [1, max(1, totalPages)]; an empty result is page 1 of 0.
func Paginate(records []domain.Complaint, q domain.ListQuery, today time.Time) domain.Page {
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	q = ResolvePage(q)
	filtered := Filter(records, q.Criteria, today)
	sorted := SortStable(filtered, q.SortField, q.SortDir)

	total := len(sorted)
	totalPages := (total + pageSize - 1) / pageSize
	page := ClampPage(q.Page, totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)

	items := make([]domain.ComplaintView, 0, end-start)
	for _, c := range sorted[start:end] {
		items = append(items, View(c, today))
	}

	return domain.Page{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
		Filters:    FilterFingerprint(q.Criteria),
	}
}

// ClampPage bounds page into [1, max(1, totalPages)].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// FilterFingerprint identifies a set of filter criteria. Pages carry it so
// the client can echo it back with its next list request.
func FilterFingerprint(c domain.FilterCriteria) string {
	raw, _ := json.Marshal(c)
	return strconv.FormatUint(xxhash.Sum64(raw), 16)
}

// ResolvePage applies the page-reset rule: when the client echoes the
// fingerprint of the criteria it last saw and they no longer match the
// incoming criteria, the requested page is dropped in favor of page 1.
// Without an echoed fingerprint the requested page is honored as is.
func ResolvePage(q domain.ListQuery) domain.ListQuery {
	if q.PrevFilters != "" && q.PrevFilters != FilterFingerprint(q.Criteria) {
		q.Page = 1
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}
