package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// SortOption orders query results.
type SortOption string

// Supported orderings.
const (
	SortNone     SortOption = "none"
	SortTierAsc  SortOption = "tier_asc"
	SortTierDesc SortOption = "tier_desc"
	SortRoleAsc  SortOption = "role_asc"
	SortRoleDesc SortOption = "role_desc"
	SortNameAsc  SortOption = "name_asc"
	SortNameDesc SortOption = "name_desc"
)

// SortOptions lists every ordering in the order a picker would show them.
func SortOptions() []SortOption {
	return []SortOption{SortNone, SortTierAsc, SortTierDesc, SortRoleAsc, SortRoleDesc, SortNameAsc, SortNameDesc}
}

// ParseSortOption validates s. An empty string means SortNone.
func ParseSortOption(s string) (SortOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortNone, nil
	}
	for _, o := range SortOptions() {
		if string(o) == s {
			return o, nil
		}
	}
	return SortNone, fmt.Errorf("catalog.parse_sort: unknown sort %q: %w", s, ErrInvalidQuery)
}

// Query narrows and orders catalog entries.
//
// Filters maps a column to the values to keep; a column with no values
// does not filter. Search is a case-insensitive substring of Name.
type Query struct {
	Filters map[string][]string
	Search  string
	Sort    SortOption
}

// Query returns the entries matching q.
func (c *Catalog) Query(q Query) ([]Entry, error) {
	for col := range q.Filters {
		if !c.hasColumn(col) {
			return nil, fmt.Errorf("catalog.query: unknown column %q: %w", col, ErrInvalidQuery)
		}
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		if !matchesFilters(e, q.Filters) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(e.Name), search) {
			continue
		}
		out = append(out, e)
	}
	sortEntries(out, q.Sort)
	return out, nil
}

func (c *Catalog) hasColumn(col string) bool {
	for _, h := range c.header {
		if h == col {
			return true
		}
	}
	return false
}

func matchesFilters(e Entry, filters map[string][]string) bool {
	for col, values := range filters {
		if len(values) == 0 {
			continue
		}
		v := e.Fields[col]
		ok := false
		for _, want := range values {
			if v == want {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func sortEntries(entries []Entry, by SortOption) {
	var less func(a, b Entry) bool
	switch by {
	case SortTierAsc:
		less = func(a, b Entry) bool { return a.Tier < b.Tier }
	case SortTierDesc:
		less = func(a, b Entry) bool { return a.Tier > b.Tier }
	case SortRoleAsc:
		less = func(a, b Entry) bool { return a.Role < b.Role }
	case SortRoleDesc:
		less = func(a, b Entry) bool { return a.Role > b.Role }
	case SortNameAsc:
		less = func(a, b Entry) bool { return a.Name < b.Name }
	case SortNameDesc:
		less = func(a, b Entry) bool { return a.Name > b.Name }
	default:
		return
	}
	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })
}
