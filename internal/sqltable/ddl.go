package sqltable

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"strings"

	sqldocs "hopon/docs/schema/sql"
)

// Table names created by the bundled DDL.
const (
	ProjectsTable      = "projects"
	OrganizationsTable = "orgs"
)

// DDL returns the bundled table definitions for driver.
func DDL(driver Driver) (string, error) {
	switch driver {
	case DriverSQLite:
		return sqldocs.SQLite, nil
	case DriverPostgres:
		return sqldocs.Postgres, nil
	default:
		return "", fmt.Errorf("unknown sql driver %q", driver)
	}
}

// Migrate creates the project and organization tables if they are missing.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	ddl, err := DDL(driver)
	if err != nil {
		return err
	}
	for _, stmt := range SplitStatements(ddl) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}
	return nil
}

// SplitStatements splits a semicolon-terminated DDL script into executable statements.
// It drops blank lines and single-line comments that start with "--".
func SplitStatements(ddl string) []string {
	scanner := bufio.NewScanner(strings.NewReader(ddl))
	var stmts []string
	var current strings.Builder

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
		current.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
		if strings.HasSuffix(trimmed, ";") {
			flush()
		}
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		stmts = append(stmts, tail)
	}

	return stmts
}
