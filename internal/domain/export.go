package domain

// ============================================================
// Report export — request / document types
// ============================================================

// ExportFormat selects the renderer.
type ExportFormat string

const (
	ExportSpreadsheet ExportFormat = "xlsx"
	ExportPrintable   ExportFormat = "pdf"
)

// ScopeType selects the date pre-filter applied before column mapping.
type ScopeType string

const (
	ScopeAll   ScopeType = "all"
	ScopeDate  ScopeType = "date"
	ScopeMonth ScopeType = "month"
	ScopeRange ScopeType = "range"
)

// ExportScope restricts exported rows by complaint date.
// Month is "yyyy-mm"; Date, StartDate and EndDate are "yyyy-mm-dd".
type ExportScope struct {
	Type      ScopeType `json:"type"`
	Date      string    `json:"date,omitempty"`
	Month     string    `json:"month,omitempty"`
	StartDate string    `json:"startDate,omitempty"`
	EndDate   string    `json:"endDate,omitempty"`
}

// ExportRequest is the body of POST /v1/complaints/export.
type ExportRequest struct {
	Criteria    FilterCriteria  `json:"criteria"`
	SortField   string          `json:"sort,omitempty"`
	SortDir     SortDirection   `json:"dir,omitempty"`
	Sections    map[string]bool `json:"sections"`
	Scope       ExportScope     `json:"scope"`
	Format      ExportFormat    `json:"format"`
	Orientation string          `json:"orientation,omitempty"` // landscape (default) or portrait
	Subtitle    string          `json:"subtitle,omitempty"`
}

// Document is a rendered report ready to be written or streamed.
type Document struct {
	Filename    string
	ContentType string
	Rows        int
	Body        []byte
}
