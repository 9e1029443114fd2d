package sqltable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Replace swaps the rows of table for rows inside one transaction. Cells map
// to header columns by position and empty cells are stored as NULL. It
// returns the number of inserted rows.
func Replace(ctx context.Context, db *sql.DB, driver Driver, table string, header []string, rows [][]string) (int, error) {
	if len(header) == 0 {
		return 0, fmt.Errorf("replace %s: no columns", table)
	}
	columns := make([]string, len(header))
	marks := make([]string, len(header))
	for i, name := range header {
		columns[i] = quoteIdent(name)
		marks[i] = placeholder(driver, i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(columns, ", "), strings.Join(marks, ", "))

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(header))
	for n, row := range rows {
		if len(row) > len(header) {
			return 0, fmt.Errorf("%s row %d: %d cells, header has %d", table, n+1, len(row), len(header))
		}
		for i := range args {
			args[i] = nil
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				args[i] = row[i]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("%s row %d: %w", table, n+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

// Select reorders rows onto columns, dropping header columns that are not
// listed. It fails when a listed column is missing from header.
func Select(header []string, rows [][]string, columns []string) ([][]string, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	from := make([]int, len(columns))
	var missing []string
	for i, name := range columns {
		p, ok := pos[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		from[i] = p
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	out := make([][]string, len(rows))
	for n, row := range rows {
		cells := make([]string, len(columns))
		for i, p := range from {
			if p < len(row) {
				cells[i] = row[p]
			}
		}
		out[n] = cells
	}
	return out, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func placeholder(driver Driver, n int) string {
	if driver == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}
