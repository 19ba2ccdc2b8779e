package persistence

import (
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// listSpec translates a shared.Filter into SQL for one table. Only the
// whitelisted columns ever reach the query text; values are bound.
type listSpec struct {
	// search matches LOWER(column) LIKE %term% on any of these columns
	search []string
	// equals maps filter keys to the column compared with =
	equals map[string]string
	// sortable lists the columns accepted in Filter.OrderBy
	sortable    map[string]bool
	defaultSort string
	defaultDir  string
}

// where applies the search term and exact-match filters
func (s listSpec) where(q *gorm.DB, f shared.Filter) *gorm.DB {
	if term := strings.TrimSpace(f.Search); term != "" && len(s.search) > 0 {
		pattern := "%" + strings.ToLower(term) + "%"
		conds := make([]string, len(s.search))
		args := make([]interface{}, len(s.search))
		for i, col := range s.search {
			conds[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = pattern
		}
		q = q.Where(strings.Join(conds, " OR "), args...)
	}
	for key, value := range f.Filters {
		if col, ok := s.equals[key]; ok {
			q = q.Where(col+" = ?", value)
		}
	}
	return q
}

// page applies where, ordering and the page window
func (s listSpec) page(q *gorm.DB, f shared.Filter) *gorm.DB {
	q = s.where(q, f).Order(s.orderBy(f))
	if f.Page > 0 && f.Paged() {
		q = q.Offset(f.Offset()).Limit(f.PageSize)
	}
	return q
}

// orderBy returns the ORDER BY clause. Unknown columns fall back to the
// default sort and anything but "asc" sorts descending.
func (s listSpec) orderBy(f shared.Filter) string {
	col := strings.TrimSpace(f.OrderBy)
	if !s.sortable[col] {
		return s.defaultSort + " " + s.defaultDir
	}
	return col + " " + sortDirection(f.OrderDir)
}

func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}
