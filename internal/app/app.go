// Package app assembles the query service from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"hopon/internal/blob"
	"hopon/internal/config"
	"hopon/internal/core"
	"hopon/internal/dataset"
	"hopon/internal/sqltable"
)

// App owns the service and the resources backing its sources.
type App struct {
	Service  *core.Service
	Registry *prometheus.Registry
	Watcher  *dataset.Watcher
	// Store backs delimited sources and export artifacts. SQL-backed
	// apps get an in-memory store for exports.
	Store blob.Store

	db     *sql.DB
	logger *zap.Logger
}

// Options tunes New beyond the environment.
type Options struct {
	Tracer core.Tracer
	// Store replaces the blob store built from the environment.
	Store blob.Store
}

// New wires sources, loader, metrics and service for env.
func New(ctx context.Context, env *config.Env, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{logger: logger, Registry: prometheus.NewRegistry()}

	projects, orgs, err := a.sources(ctx, env, opts.Store)
	if err != nil {
		return nil, err
	}
	countries, err := countryMapping(env)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	cache, err := dataset.NewCache(env.CacheSize)
	if err != nil {
		a.closeDB()
		return nil, err
	}
	loader, err := dataset.NewLoader(projects, orgs,
		dataset.WithCountries(countries),
		dataset.WithCache(cache),
		dataset.WithLogger(logger.Named("dataset")))
	if err != nil {
		a.closeDB()
		return nil, err
	}

	rec, err := core.NewPrometheusRecorder(a.Registry)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a.Service = core.NewService(loader,
		core.WithLogger(logger.Named("core")),
		core.WithMetrics(rec),
		core.WithTracer(opts.Tracer),
		core.WithSessionStore(core.NewSessionStore(env.MaxSessions, env.SessionTTL)))

	if a.Store == nil {
		a.Store = blob.NewMemory()
	}

	if env.Driver == string(blob.DriverFilesystem) && env.Watch && opts.Store == nil {
		w, err := dataset.NewWatcher(env.FSRoot, cache, logger.Named("watcher"), func(key string) {
			logger.Info("source file changed", zap.String("key", key))
		})
		if err != nil {
			logger.Warn("file watching disabled", zap.Error(err))
		} else {
			a.Watcher = w
		}
	}
	return a, nil
}

func (a *App) sources(ctx context.Context, env *config.Env, store blob.Store) (dataset.Source, dataset.Source, error) {
	switch env.Driver {
	case string(sqltable.DriverSQLite), string(sqltable.DriverPostgres):
		db, name, err := sqltable.Open(ctx, sqltable.Config{
			Driver:      sqltable.Driver(env.Driver),
			SQLitePath:  env.SQLitePath,
			PostgresDSN: env.PostgresDSN,
		})
		if err != nil {
			return nil, nil, err
		}
		a.db = db
		projects, err := dataset.NewSQLSource(db, name, TableName(env.ProjectsKey))
		if err != nil {
			a.closeDB()
			return nil, nil, err
		}
		orgs, err := dataset.NewSQLSource(db, name, TableName(env.OrganizationsKey))
		if err != nil {
			a.closeDB()
			return nil, nil, err
		}
		return projects, orgs, nil
	default:
		if store == nil {
			var err error
			store, err = blob.Open(ctx, blob.Config{
				Driver: blob.Driver(env.Driver),
				FSRoot: env.FSRoot,
				S3: blob.S3Config{
					Region:          env.Region,
					Bucket:          env.Bucket,
					Prefix:          env.Prefix,
					Endpoint:        env.Endpoint,
					AccessKeyID:     env.AccessKeyID,
					SecretAccessKey: env.SecretAccessKey,
					SessionToken:    env.SessionToken,
					PathStyle:       env.PathStyle,
				},
			})
			if err != nil {
				return nil, nil, fmt.Errorf("open blob store: %w", err)
			}
		}
		a.Store = store
		delim := env.DelimiterRune()
		projects := &dataset.DelimitedSource{Store: store, Key: env.ProjectsKey, Delimiter: delim}
		orgs := &dataset.DelimitedSource{Store: store, Key: env.OrganizationsKey, Delimiter: delim}
		return projects, orgs, nil
	}
}

// TableName maps a source key to a SQL table name by dropping any file
// extension, so the default keys name the bundled tables.
func TableName(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func countryMapping(env *config.Env) (*dataset.CountryMapping, error) {
	if env.KeepAllCountries {
		return nil, nil
	}
	if env.CountriesFile != "" {
		return dataset.LoadCountryMapping(env.CountriesFile)
	}
	return dataset.EuropeanCountries, nil
}

// Run blocks on the watcher, if any, until ctx ends.
func (a *App) Run(ctx context.Context) error {
	if a.Watcher == nil {
		<-ctx.Done()
		return nil
	}
	if err := a.Watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Close releases the watcher and database handle.
func (a *App) Close() error {
	var errs []error
	if a.Watcher != nil {
		errs = append(errs, a.Watcher.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) closeDB() {
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}
