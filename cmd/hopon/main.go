// Command hopon serves and queries the project and organization tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hopon/internal/adapters/datasets"
	"hopon/internal/app"
	"hopon/internal/blob"
	"hopon/internal/config"
	"hopon/internal/core"
	"hopon/internal/dataset"
	"hopon/internal/sqltable"
	"hopon/pkg/domain"
)

const shutdownTimeout = 10 * time.Second

type cli struct {
	app *kingpin.Application

	logLevel *string
	trace    *bool
	noColor  *bool
	fsRoot   *string
	driver   *string

	serve *kingpin.CmdClause
	addr  *string

	projects      *kingpin.CmdClause
	organizations *kingpin.CmdClause
	projectOrgs   *kingpin.CmdClause
	projectID     *string

	importSQL  *kingpin.CmdClause
	importFrom *string

	format         *string
	startDate      *string
	endDate        *string
	clusters       *[]string
	fundingSchemes *[]string
	objective      *string
	idContains     *string
	countries      *[]string
	activityTypes  *[]string
	roles          *[]string
	allRoles       *bool
	name           *string
}

func newCLI() *cli {
	c := &cli{app: kingpin.New("hopon", "Explore Horizon projects and the organizations taking part in them.")}
	c.logLevel = c.app.Flag("log-level", "Log level, overrides HOPON_LOG_LEVEL.").String()
	c.trace = c.app.Flag("trace", "Write operation spans as JSON lines to stderr.").Bool()
	c.noColor = c.app.Flag("no-color", "Disable colored summaries.").Bool()
	c.fsRoot = c.app.Flag("data-dir", "Directory of the fs driver, overrides HOPON_FS_ROOT.").String()
	c.driver = c.app.Flag("driver", "Source driver, overrides HOPON_SOURCE_DRIVER.").Enum("fs", "s3", "memory", "sqlite", "postgres")

	c.serve = c.app.Command("serve", "Run the HTTP API.")
	c.addr = c.serve.Flag("addr", "Listen address, overrides HOPON_HTTP_ADDR.").String()

	c.projects = c.app.Command("projects", "List the projects matching the filters.")
	c.organizations = c.app.Command("organizations", "List the organizations matching the filters.")
	c.projectOrgs = c.app.Command("project-orgs", "List the filtered organizations of one project.")
	c.projectID = c.projectOrgs.Arg("id", "Project id.").Required().String()

	c.importSQL = c.app.Command("import-sql", "Load the delimited tables of a directory into the sqlite or postgres database.")
	c.importFrom = c.importSQL.Flag("from", "Directory holding the delimited tables, defaults to HOPON_FS_ROOT.").String()

	c.format = c.app.Flag("format", "Output format.").Default("text").Enum("text", "csv")
	c.startDate = c.app.Flag("start", "Earliest start date (YYYY-MM-DD).").String()
	c.endDate = c.app.Flag("end", "Latest end date (YYYY-MM-DD).").String()
	c.clusters = c.app.Flag("cluster", "Allowed cluster, repeatable.").Strings()
	c.fundingSchemes = c.app.Flag("funding-scheme", "Allowed funding scheme, repeatable.").Strings()
	c.objective = c.app.Flag("objective", "Text the objective must contain.").String()
	c.idContains = c.app.Flag("id", "Text the project id must contain.").String()
	c.countries = c.app.Flag("country", "Allowed country name, repeatable.").Strings()
	c.activityTypes = c.app.Flag("activity-type", "Allowed activity type, repeatable.").Strings()
	c.roles = c.app.Flag("role", "Allowed role, repeatable. Defaults to coordinator.").Strings()
	c.allRoles = c.app.Flag("all-roles", "Do not filter on role.").Bool()
	c.name = c.app.Flag("name", "Text the organization name must contain.").String()
	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "hopon:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	c := newCLI()
	c.app.UsageWriter(stdout)
	c.app.ErrorWriter(stderr)
	command, err := c.app.Parse(args)
	if err != nil {
		return err
	}
	if *c.noColor {
		color.NoColor = true
	}

	env, err := config.ReadEnv()
	if err != nil {
		return err
	}
	c.override(env)
	if err := env.Validate(); err != nil {
		return err
	}
	logger, err := config.NewLogger(env.ZapLevel())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if command == c.importSQL.FullCommand() {
		return importTables(ctx, env, *c.importFrom, logger, stdout)
	}

	var tracer core.Tracer
	if *c.trace {
		tracer = core.NewLogTracer(zap.New(zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(stderr),
			zapcore.DebugLevel)))
	}
	if command != c.serve.FullCommand() {
		env.Watch = false
	}
	a, err := app.New(ctx, env, logger, app.Options{Tracer: tracer})
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	switch command {
	case c.serve.FullCommand():
		return serve(ctx, a, env, logger)
	case c.projects.FullCommand():
		return c.query(ctx, a, stdout, datasets.TableProjects)
	case c.organizations.FullCommand():
		return c.query(ctx, a, stdout, datasets.TableOrganizations)
	case c.projectOrgs.FullCommand():
		return c.query(ctx, a, stdout, datasets.TableSelection)
	}
	return fmt.Errorf("unknown command %q", command)
}

func (c *cli) override(env *config.Env) {
	if *c.logLevel != "" {
		env.LogLevel = *c.logLevel
	}
	if *c.fsRoot != "" {
		env.FSRoot = *c.fsRoot
	}
	if *c.driver != "" {
		env.Driver = *c.driver
	}
	if *c.addr != "" {
		env.HTTPAddr = *c.addr
	}
}

// params turns the filter flags into view parameters through the same
// validation the HTTP API uses.
func (c *cli) params() (core.ViewParams, error) {
	raw := map[string]any{}
	putString(raw, core.ParamStartDate, *c.startDate)
	putString(raw, core.ParamEndDate, *c.endDate)
	putString(raw, core.ParamObjective, *c.objective)
	putString(raw, core.ParamProjectID, *c.idContains)
	putList(raw, core.ParamClusters, *c.clusters)
	putList(raw, core.ParamFundingSchemes, *c.fundingSchemes)
	projects, err := core.ParseProjectParams(raw)
	if err != nil {
		return core.ViewParams{}, err
	}

	raw = map[string]any{}
	putString(raw, core.ParamName, *c.name)
	putList(raw, core.ParamCountries, *c.countries)
	putList(raw, core.ParamActivityTypes, *c.activityTypes)
	putList(raw, core.ParamRoles, *c.roles)
	orgs, err := core.ParseOrganizationParams(raw)
	if err != nil {
		return core.ViewParams{}, err
	}
	if *c.allRoles {
		orgs.Roles = nil
	}
	return core.ViewParams{Projects: projects, Organizations: orgs, SelectedProjectID: *c.projectID}, nil
}

func putString(raw map[string]any, name, value string) {
	if value != "" {
		raw[name] = value
	}
}

func putList(raw map[string]any, name string, values []string) {
	if len(values) > 0 {
		raw[name] = values
	}
}

func (c *cli) query(ctx context.Context, a *app.App, out io.Writer, table datasets.Table) error {
	params, err := c.params()
	if err != nil {
		return err
	}
	view, err := a.Service.Query(ctx, params)
	if err != nil {
		return err
	}
	columns, rows := datasets.Rows(view, table)
	if *c.format == "csv" {
		return datasets.WriteCSV(out, columns, rows)
	}
	if err := datasets.WriteText(out, columns, rows); err != nil {
		return err
	}
	printSummary(out, view, table)
	return nil
}

func printSummary(out io.Writer, view core.View, table datasets.Table) {
	s := view.Summary
	bold := color.New(color.Bold)
	switch table {
	case datasets.TableProjects:
		bold.Fprintf(out, "\n%d of %d projects", s.Projects, s.TotalProjects)
	case datasets.TableOrganizations:
		bold.Fprintf(out, "\n%d of %d organizations", s.Organizations, s.TotalOrganizations)
	default:
		bold.Fprintf(out, "\n%d organizations in project %s", s.SelectedOrganizations, view.SelectedProjectID)
	}
	if s.MinStartDate.Valid() || s.MaxEndDate.Valid() {
		color.New(color.FgCyan).Fprintf(out, " (dates %s to %s)", s.MinStartDate, s.MaxEndDate)
	}
	fmt.Fprintln(out)
}

func serve(ctx context.Context, a *app.App, env *config.Env, logger *zap.Logger) error {
	worker := datasets.NewWorker(a.Store, logger.Named("exports"), env.MaxExports)
	worker.Start()

	handler := datasets.NewHandler(a.Service, logger.Named("http"))
	handler.Exports = worker
	handler.Gatherer = a.Registry

	srv := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error { return a.Run(ctx) })
	p.Go(func(context.Context) error {
		logger.Info("listening", zap.String("addr", env.HTTPAddr), zap.String("driver", env.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if stopErr := worker.Stop(shutdownCtx); stopErr != nil && err == nil {
			err = stopErr
		}
		logger.Info("server stopped")
		return err
	})
	return p.Wait()
}

// importTables copies the delimited project and organization files under dir
// into the configured SQL database, replacing earlier contents.
func importTables(ctx context.Context, env *config.Env, dir string, logger *zap.Logger, out io.Writer) error {
	driver := sqltable.Driver(env.Driver)
	if driver != sqltable.DriverSQLite && driver != sqltable.DriverPostgres {
		return fmt.Errorf("import-sql needs the sqlite or postgres driver, got %q", env.Driver)
	}
	if dir == "" {
		dir = env.FSRoot
	}
	store, err := blob.NewFilesystem(dir)
	if err != nil {
		return err
	}
	db, name, err := sqltable.Open(ctx, sqltable.Config{Driver: driver, SQLitePath: env.SQLitePath, PostgresDSN: env.PostgresDSN})
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := sqltable.Migrate(ctx, db, driver); err != nil {
		return err
	}

	imports := []struct {
		key     string
		columns []string
	}{
		{env.ProjectsKey, domain.ProjectColumns},
		{env.OrganizationsKey, domain.OrganizationColumns},
	}
	for _, imp := range imports {
		key := imp.key
		src := dataset.NewDelimitedSource(store, key)
		src.Delimiter = env.DelimiterRune()
		table, err := src.Table(ctx)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		rows, err := sqltable.Select(table.Header, table.Rows, imp.columns)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		target := app.TableName(key)
		n, err := sqltable.Replace(ctx, db, driver, target, imp.columns, rows)
		if err != nil {
			return err
		}
		logger.Info("table imported", zap.String("key", key), zap.String("table", target), zap.Int("rows", n))
		color.New(color.FgGreen).Fprintf(out, "%s: %d rows into %s\n", key, n, target)
	}
	logger.Debug("import finished", zap.String("database", name))
	return nil
}
