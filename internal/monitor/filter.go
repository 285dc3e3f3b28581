package monitor

import "path/filepath"

// Filter selects names using glob allow and deny lists, as understood by
// filepath.Match.
//
// Rules:
//   - If both lists are empty (or nil), every name is allowed.
//   - The deny list always takes priority over the allow list.
//   - If a non-empty allow list is present, a name must match at least one
//     allow pattern to be permitted.
type Filter struct {
	allow []string
	deny  []string
}

// NewFilter constructs a Filter. Either list may be nil or empty.
func NewFilter(allow, deny []string) *Filter {
	return &Filter{allow: allow, deny: deny}
}

// Allows reports whether name is permitted by this filter.
func (f *Filter) Allows(name string) bool {
	if f == nil {
		return true
	}
	for _, pattern := range f.deny {
		if matchGlob(pattern, name) {
			return false
		}
	}
	if len(f.allow) == 0 {
		return true
	}
	for _, pattern := range f.allow {
		if matchGlob(pattern, name) {
			return true
		}
	}
	return false
}

// matchGlob treats malformed patterns as non-matching.
func matchGlob(pattern, name string) bool {
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}
