package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"hopon/internal/blob"
	"hopon/internal/config"
	"hopon/internal/core"
	"hopon/testutil"
)

func testEnv(driver string) *config.Env {
	return &config.Env{
		SourceEnv: config.SourceEnv{Driver: driver, ProjectsKey: "projects.csv", OrganizationsKey: "orgs.csv", Delimiter: "|"},
		ServerEnv: config.ServerEnv{CacheSize: 2, MaxSessions: 4},
	}
}

func seedDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string][]byte{
		"projects.csv": testutil.PipeTable(testutil.ProjectHeader,
			[]string{"1", "A", "T", "obj", "C1", "", "RIA", "2020-01-01", "2021-01-01", "", ""}),
		"orgs.csv": testutil.PipeTable(testutil.OrganizationHeader,
			[]string{"Acme", "PRC", "Oslo", "NO", "coordinator", "", "1", "1", "", ""},
			[]string{"Zed", "PRC", "?", "ZZ", "coordinator", "", "1", "2", "", ""}),
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(root, name), data, 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func TestNewFilesystemApp(t *testing.T) {
	ctx := context.Background()
	env := testEnv("fs")
	env.FSRoot = seedDir(t)
	env.Watch = true
	a, err := New(ctx, env, nil, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	if a.Watcher == nil {
		t.Fatalf("fs driver should start a watcher")
	}
	opts, err := a.Service.Options(ctx)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if len(opts.Countries) != 1 || opts.Countries[0] != "Norway" {
		t.Fatalf("unexpected countries %v", opts.Countries)
	}
	families, err := a.Registry.Gather()
	if err != nil || len(families) == 0 {
		t.Fatalf("registry empty: %v", err)
	}
}

func TestNewKeepAllCountriesAndCustomMapping(t *testing.T) {
	ctx := context.Background()
	env := testEnv("fs")
	env.FSRoot = seedDir(t)
	env.KeepAllCountries = true
	a, err := New(ctx, env, nil, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	opts, _ := a.Service.Options(ctx)
	_ = a.Close()
	if len(opts.Countries) != 2 {
		t.Fatalf("raw codes expected, got %v", opts.Countries)
	}

	env.KeepAllCountries = false
	env.CountriesFile = filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(env.CountriesFile, []byte("ZZ: Zedland\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	a, err = New(ctx, env, nil, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	opts, _ = a.Service.Options(ctx)
	if len(opts.Countries) != 1 || opts.Countries[0] != "Zedland" {
		t.Fatalf("custom mapping not applied: %v", opts.Countries)
	}
}

func TestNewWithInjectedStore(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMockS3ForTests()
	root := seedDir(t)
	for _, key := range []string{"projects.csv", "orgs.csv"} {
		f, err := os.Open(filepath.Join(root, key))
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if _, err := store.Put(ctx, key, f, blob.PutOptions{ContentType: "text/csv"}); err != nil {
			t.Fatalf("put: %v", err)
		}
		_ = f.Close()
	}
	a, err := New(ctx, testEnv("s3"), nil, Options{Store: store})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	view, err := a.Service.Query(ctx, core.ViewParams{})
	if err != nil || len(view.Projects) != 1 {
		t.Fatalf("query: %+v %v", view.Projects, err)
	}
}

func TestNewSQLiteApp(t *testing.T) {
	ctx := context.Background()
	env := testEnv("sqlite")
	env.SQLitePath = filepath.Join(t.TempDir(), "hopon.db")
	env.ProjectsKey, env.OrganizationsKey = "projects", "organizations"
	a, err := New(ctx, env, nil, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	if _, err := a.Service.Options(ctx); err == nil {
		t.Fatalf("missing tables must fail to load")
	}

	env.ProjectsKey = "projects; drop"
	if _, err := New(ctx, env, nil, Options{}); err == nil {
		t.Fatalf("unsafe table names must be rejected")
	}
}

func TestTableNameDropsExtension(t *testing.T) {
	for key, want := range map[string]string{"projects.csv": "projects", "orgs.csv": "orgs", "orgs": "orgs"} {
		if got := TableName(key); got != want {
			t.Fatalf("TableName(%q)=%q want %q", key, got, want)
		}
	}
}

func TestSQLAppGetsExportStore(t *testing.T) {
	env := testEnv("sqlite")
	env.SQLitePath = filepath.Join(t.TempDir(), "hopon.db")
	a, err := New(context.Background(), env, nil, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer func() { _ = a.Close() }()
	if a.Store == nil || a.Store.Driver() != blob.DriverMemory {
		t.Fatalf("sql apps should export to memory, got %v", a.Store)
	}
}
