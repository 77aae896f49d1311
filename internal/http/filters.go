package httpx

import (
	"net/url"
	"strings"
)

const (
	StrTrue  = "true"
	StrFalse = "false"

	SortDirAsc  = "asc"
	SortDirDesc = "desc"
)

// ParseSortParam extracts and validates sort field and direction from URL
// query parameters. Two formats are accepted: the combined ?sort=field:dir
// and the split ?sort=field&dir=dir. Direction is lowercased; anything
// other than "asc" or "desc" comes back as an empty string so callers
// apply their own default.
func ParseSortParam(q url.Values, sortKey, dirKey string) (string, string) {
	sortParam := strings.TrimSpace(q.Get(sortKey))

	if field, dir, ok := strings.Cut(sortParam, ":"); ok {
		return strings.TrimSpace(field), normalizeSortDir(dir)
	}
	return sortParam, normalizeSortDir(q.Get(dirKey))
}

func normalizeSortDir(dir string) string {
	switch d := strings.ToLower(strings.TrimSpace(dir)); d {
	case SortDirAsc, SortDirDesc:
		return d
	default:
		return ""
	}
}
