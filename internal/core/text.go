package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// containsFold reports whether query occurs in field ignoring case. The
// query is literal text. An empty query always matches; an empty field
// never matches a non-empty query.
func containsFold(field, query string) bool {
	if query == "" {
		return true
	}
	if field == "" {
		return false
	}
	// cases.Caser is stateful, so each call gets its own.
	folder := cases.Fold()
	return strings.Contains(folder.String(field), folder.String(query))
}
