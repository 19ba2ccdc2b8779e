package shared

// Filter narrows and pages a list query. Filters holds exact-match column
// conditions; each repository whitelists the keys and sort columns it
// accepts.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// Offset is the number of rows skipped before the current page.
// Page numbers start at 1.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// Paged reports whether a page size limits the query
func (f Filter) Paged() bool {
	return f.PageSize > 0
}
