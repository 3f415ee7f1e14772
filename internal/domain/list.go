package domain

// ============================================================
// List view — filter criteria, sorting and pagination
// ============================================================

// FilterCriteria holds the free-text query plus the advanced filters.
// An empty string means "no constraint" for that field.
type FilterCriteria struct {
	FreeText     string      `json:"q,omitempty"`
	Status       StatusLabel `json:"status,omitempty"`
	DateFrom     string      `json:"dateFrom,omitempty"`
	DateTo       string      `json:"dateTo,omitempty"`
	Category     string      `json:"categoria,omitempty"`
	Inspector    string      `json:"fiscal,omitempty"`
	Neighborhood string      `json:"bairro,omitempty"`
	ActionTaken  string      `json:"acaoTomada,omitempty"`
}

// IsZero reports whether no criterion is set.
func (c FilterCriteria) IsZero() bool {
	return c == FilterCriteria{}
}

// SortDirection is asc or desc.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListQuery is everything the list pipeline needs besides the records.
type ListQuery struct {
	Criteria  FilterCriteria
	SortField string
	SortDir   SortDirection
	Page      int
	PageSize  int
	// PrevFilters is the Page.Filters fingerprint the client last rendered.
	PrevFilters string
}

// Default page size of the complaint table.
const DefaultPageSize = 10

// MaxPageSize caps page_size requests.
const MaxPageSize = 100

// Page is one slice of the filtered, sorted record set.
type Page struct {
	Items      []ComplaintView `json:"items"`
	TotalCount int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	Filters    string          `json:"filters"`
}

// ComplaintStats is returned by GET /v1/complaints/stats.
type ComplaintStats struct {
	Total    int                 `json:"total"`
	Open     int                 `json:"open"`
	Expired  int                 `json:"expired"`
	ByStatus map[StatusLabel]int `json:"by_status"`
}
