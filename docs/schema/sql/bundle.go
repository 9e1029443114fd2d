// Package sqldocs holds the DDL for the tables the SQL source drivers read.
package sqldocs

import _ "embed"

// SQLite creates the project and organization tables in SQLite.
//
//go:embed sqlite.sql
var SQLite string

// Postgres creates the project and organization tables in Postgres.
//
//go:embed postgres.sql
var Postgres string
