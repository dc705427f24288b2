package policy

import "strings"

// ExclusionList matches paths that the gate must skip entirely, before
// experiment bucketing and claims resolution. Entries ending in "/" or
// naming a directory-like prefix match by prefix; entries naming a file
// (contain a ".") match exactly.
type ExclusionList struct {
	prefixes []string
	exacts   []string
}

// NewExclusionList splits entries into prefix and exact matchers. Blank
// entries are dropped.
func NewExclusionList(entries []string) *ExclusionList {
	l := &ExclusionList{}
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if strings.Contains(lastSegment(e), ".") {
			l.exacts = append(l.exacts, e)
			continue
		}
		l.prefixes = append(l.prefixes, e)
	}
	return l
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Match reports whether path is excluded from interception.
func (l *ExclusionList) Match(path string) bool {
	if l == nil {
		return false
	}
	for _, e := range l.exacts {
		if path == e {
			return true
		}
	}
	for _, p := range l.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
