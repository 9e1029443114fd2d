package dataset

import (
	"fmt"
	"strings"
)

// columnIndex maps each required column to its position in header. Columns
// outside the required set are ignored.
func columnIndex(source string, header, required []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	index := make(map[string]int, len(required))
	var missing []string
	for _, name := range required {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		index[name] = i
	}
	if len(missing) > 0 {
		return nil, &LoadError{Source: source, Missing: missing}
	}
	return index, nil
}

// record gives named access to one row, padding short rows with empty cells.
type record struct {
	cells []string
	index map[string]int
}

func newRecord(source string, rowNum, width int, cells []string, index map[string]int) (record, error) {
	if len(cells) > width {
		return record{}, &LoadError{Source: source, Row: rowNum, Err: fmt.Errorf("%d cells, header has %d", len(cells), width)}
	}
	return record{cells: cells, index: index}, nil
}

func (r record) get(name string) string {
	i := r.index[name]
	if i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}
