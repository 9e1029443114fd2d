// Package sqltable selects a SQL backend for table sources. Only this
// package imports the infra sqltable drivers.
package sqltable

import (
	"context"
	"database/sql"
	"fmt"

	"hopon/internal/infra/sqltable/postgres"
	"hopon/internal/infra/sqltable/sqlite"
)

// Driver identifies a SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects and configures a SQL backend.
type Config struct {
	Driver      Driver
	SQLitePath  string
	PostgresDSN string
}

// Open returns a verified database handle and a short name identifying the
// database, used as part of source identities.
func Open(ctx context.Context, cfg Config) (*sql.DB, string, error) {
	switch cfg.Driver {
	case DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, "", err
		}
		return db, "sqlite:" + cfg.SQLitePath, nil
	case DriverPostgres:
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, "", err
		}
		return db, "postgres:" + redactDSN(cfg.PostgresDSN), nil
	default:
		return nil, "", fmt.Errorf("unknown sql driver %q", cfg.Driver)
	}
}
