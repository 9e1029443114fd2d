package dataset

import (
	"fmt"
	"strings"
)

// LoadError reports a table that could not be turned into a snapshot:
// an unreadable source, a missing column, or a malformed row. It is fatal
// to the load that raised it.
type LoadError struct {
	Source  string
	Row     int // 1-based data row, 0 when not row specific
	Missing []string
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	b.WriteString(e.Source)
	if e.Row > 0 {
		fmt.Fprintf(&b, ": row %d", e.Row)
	}
	if len(e.Missing) > 0 {
		b.WriteString(": missing columns ")
		b.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

func loadErr(source string, err error) *LoadError {
	return &LoadError{Source: source, Err: err}
}
