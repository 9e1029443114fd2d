// Package dataset loads the project and organization tables into immutable
// snapshots and memoizes them by source identity.
package dataset

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"hopon/internal/blob"
)

// DefaultDelimiter separates cells in the project and organization exports.
const DefaultDelimiter = '|'

// Table is a header plus raw text rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Source yields a raw table. Identity names the exact content version the
// source would currently return; two sources with equal identities return
// equal tables.
type Source interface {
	Identity(ctx context.Context) (string, error)
	Table(ctx context.Context) (Table, error)
}

// DelimitedSource reads a delimited text object from a blob store.
type DelimitedSource struct {
	Store     blob.Store
	Key       string
	Delimiter rune // DefaultDelimiter when zero
}

// NewDelimitedSource returns a pipe-delimited source for key.
func NewDelimitedSource(store blob.Store, key string) *DelimitedSource {
	return &DelimitedSource{Store: store, Key: key, Delimiter: DefaultDelimiter}
}

// Identity is driver:key@etag.
func (s *DelimitedSource) Identity(ctx context.Context) (string, error) {
	info, err := s.Store.Head(ctx, s.Key)
	if err != nil {
		return "", fmt.Errorf("head %s: %w", s.Key, err)
	}
	return fmt.Sprintf("%s:%s@%s", s.Store.Driver(), s.Key, info.ETag), nil
}

// Table reads and parses the object.
func (s *DelimitedSource) Table(ctx context.Context) (Table, error) {
	_, rc, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return Table{}, fmt.Errorf("get %s: %w", s.Key, err)
	}
	defer func() { _ = rc.Close() }()
	delim := s.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}
	return ParseDelimited(rc, delim)
}

// ParseDelimited parses r as a delimited table whose first record is the
// header. Quoted cells may contain the delimiter; row width is checked by
// the loaders, not here.
func ParseDelimited(r io.Reader, delim rune) (Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, errors.New("empty table: no header row")
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table := Table{Header: header}
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read row %d: %w", len(table.Rows)+1, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		table.Rows = append(table.Rows, rec)
	}
	return table, nil
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLSource reads every row of one table. NULL cells become empty text.
type SQLSource struct {
	DB    *sql.DB
	Name      string // database identity, e.g. "sqlite:/data/hopon.db"
	TableName string
}

// NewSQLSource validates the table name and returns a source.
func NewSQLSource(db *sql.DB, name, table string) (*SQLSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLSource{DB: db, Name: name, TableName: table}, nil
}

// Identity is name#table. SQL sources carry no content version, so callers
// invalidate the cache explicitly when a table changes.
func (s *SQLSource) Identity(context.Context) (string, error) {
	return s.Name + "#" + s.TableName, nil
}

// Table runs a full scan of the table.
func (s *SQLSource) Table(ctx context.Context) (Table, error) {
	if !tableNamePattern.MatchString(s.TableName) {
		return Table{}, fmt.Errorf("invalid table name %q", s.TableName)
	}
	rows, err := s.DB.QueryContext(ctx, "SELECT * FROM "+s.TableName) // #nosec G202 -- table name validated above
	if err != nil {
		return Table{}, fmt.Errorf("query %s: %w", s.TableName, err)
	}
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return Table{}, fmt.Errorf("columns %s: %w", s.TableName, err)
	}
	table := Table{Header: cols}
	cells := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return Table{}, fmt.Errorf("scan %s: %w", s.TableName, err)
		}
		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("iterate %s: %w", s.TableName, err)
	}
	return table, nil
}
