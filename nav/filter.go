package nav

import "strings"

// Filter describes the scope a shuffle queue was built from: a single tag, a
// set of tags (items matching any tag qualify), or a free-text query.
type Filter struct {
	TagIDs []string
	Query  string
}

// IsZero reports whether the filter selects nothing.
func (f Filter) IsZero() bool {
	return len(f.TagIDs) == 0 && f.Query == ""
}

// Key returns a stable identity for the filter, used for suggestion memory and logging.
func (f Filter) Key() string {
	if f.Query != "" {
		return f.Query
	}
	return "tags:" + strings.Join(f.TagIDs, ",")
}
