package registry

import "strings"

// Filter restricts a bundle to a set of service ids. The zero value admits
// every id.
type Filter struct {
	ids map[string]struct{}
}

// ParseFilter accepts the raw values of a repeated, comma separated query
// parameter. Blank tokens are dropped; matching is exact and case-sensitive.
func ParseFilter(values []string) Filter {
	var ids map[string]struct{}
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			if ids == nil {
				ids = make(map[string]struct{})
			}
			ids[token] = struct{}{}
		}
	}
	return Filter{ids: ids}
}

// Empty reports whether the filter admits everything.
func (f Filter) Empty() bool {
	return len(f.ids) == 0
}

func (f Filter) Allows(id string) bool {
	if f.Empty() {
		return true
	}
	_, ok := f.ids[id]
	return ok
}
