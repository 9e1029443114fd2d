// Package core implements the query layer over loaded snapshots: the
// project and organization filters, the project to organization join and
// per-session views.
package core

import "sort"

// Set is a membership filter over text values. A nil Set disables the
// filter; a non-nil empty Set matches nothing.
type Set map[string]struct{}

// NewSet returns a non-nil set holding values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Active reports whether the set constrains anything.
func (s Set) Active() bool { return s != nil }

// Allows reports whether v passes the filter.
func (s Set) Allows(v string) bool {
	if s == nil {
		return true
	}
	_, ok := s[v]
	return ok
}

// Values returns the members in sorted order, or nil for a disabled set.
func (s Set) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
