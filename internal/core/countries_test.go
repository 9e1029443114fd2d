package core

import (
	"context"
	"reflect"
	"testing"

	"hopon/internal/blob"
	"hopon/internal/dataset"
	"hopon/testutil"
)

func loadEveryCountry(t *testing.T) *dataset.Snapshot {
	t.Helper()
	ctx := context.Background()
	var rows [][]string
	for i, code := range dataset.EuropeanCountries.Codes() {
		role := "participant"
		if i%2 == 0 {
			role = "coordinator"
		}
		rows = append(rows, []string{"org-" + code, "PRC", "City", code, role, "", "101", "1", "", ""})
	}
	for _, code := range []string{"ZZ", "GB", "GR", ""} {
		rows = append(rows, []string{"stray-" + code, "PRC", "City", code, "coordinator", "", "101", "1", "", ""})
	}
	store := blob.NewMemory()
	if _, err := store.Replace(ctx, "projects.csv", testutil.PipeTable(testutil.ProjectHeader,
		[]string{"101", "A", "T", "O", "C1", "", "RIA", "2020-01-01", "2021-01-01", "", ""})); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Replace(ctx, "orgs.csv", testutil.PipeTable(testutil.OrganizationHeader, rows...)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	loader, err := dataset.NewLoader(dataset.NewDelimitedSource(store, "projects.csv"), dataset.NewDelimitedSource(store, "orgs.csv"))
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	snap, err := loader.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func TestAllMappedCountriesSelectEveryLoadedRow(t *testing.T) {
	snap := loadEveryCountry(t)
	all := NewSet(dataset.EuropeanCountries.Names()...)
	got := FilterOrganizations(snap.Organizations, OrganizationParams{Countries: all})
	if len(got) != dataset.EuropeanCountries.Len() || !reflect.DeepEqual(got, snap.Organizations) {
		t.Fatalf("expected every mapped row, got %d of %d", len(got), len(snap.Organizations))
	}
}

func TestUnmappedRowsStayAbsentUnderAnyFilter(t *testing.T) {
	snap := loadEveryCountry(t)
	cases := map[string]OrganizationParams{
		"none":        {},
		"coordinator": {Roles: NewSet("coordinator")},
		"activity":    {ActivityTypes: NewSet("PRC")},
		"stray name":  {NameContains: "stray"},
		"countries":   {Countries: NewSet(dataset.EuropeanCountries.Names()...)},
	}
	mapped := NewSet(dataset.EuropeanCountries.Names()...)
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			for _, o := range FilterOrganizations(snap.Organizations, params) {
				if !mapped.Allows(o.Country) {
					t.Fatalf("row %s carries an unmapped country %q", o.Name, o.Country)
				}
			}
		})
	}
	if got := FilterOrganizations(snap.Organizations, OrganizationParams{NameContains: "stray"}); len(got) != 0 {
		t.Fatalf("unmapped rows resurfaced: %v", names(got))
	}
}
