package dataset

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hopon/testutil"
)

func TestLoadOrganizationsTranslatesAndDropsUnmappedCountries(t *testing.T) {
	_, src := memorySource(t, "orgs.csv", orgsTable(
		orgRow("A", "IT", "coordinator", "1"),
		orgRow("B", "ZZ", "participant", "1"),
	))
	orgs, err := LoadOrganizations(context.Background(), src, OrganizationOptions{Countries: EuropeanCountries})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Name != "A" || orgs[0].Country != "Italy" {
		t.Fatalf("expected only A in Italy, got %+v", orgs)
	}
}

func TestLoadOrganizationsWithoutMappingKeepsCodes(t *testing.T) {
	_, src := memorySource(t, "orgs.csv", orgsTable(orgRow("B", "ZZ", "participant", "0042")))
	orgs, err := LoadOrganizations(context.Background(), src, OrganizationOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orgs) != 1 || orgs[0].Country != "ZZ" || orgs[0].ProjectID != "0042" {
		t.Fatalf("unexpected orgs %+v", orgs)
	}
}

func TestLoadOrganizationsNumericColumns(t *testing.T) {
	rows := [][]string{
		{"A", "PRC", "Rome", "IT", "coordinator", "", "1", "3", "1500.25", ""},
		{"B", "PRC", "Rome", "IT", "participant", "", "1", "2.0", "n/a", ""},
		{"C", "PRC", "Rome", "IT", "participant", "", "1", "", "", ""},
		{"D", "PRC", "Rome", "IT", "participant", "", "1", "2.5", "7", ""},
	}
	_, src := memorySource(t, "orgs.csv", testutil.PipeTable(testutil.OrganizationHeader, rows...))
	orgs, err := LoadOrganizations(context.Background(), src, OrganizationOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if orgs[0].Order == nil || *orgs[0].Order != 3 || orgs[0].ECContribution == nil || *orgs[0].ECContribution != 1500.25 {
		t.Fatalf("unexpected numbers for A: %+v", orgs[0])
	}
	if orgs[1].Order == nil || *orgs[1].Order != 2 || orgs[1].ECContribution != nil {
		t.Fatalf("unexpected numbers for B: %+v", orgs[1])
	}
	if orgs[2].Order != nil || orgs[2].ECContribution != nil {
		t.Fatalf("blank numbers must be nil: %+v", orgs[2])
	}
	if orgs[3].Order != nil || *orgs[3].ECContribution != 7 {
		t.Fatalf("fractional order must be nil: %+v", orgs[3])
	}
}

func TestLoadOrganizationsMissingColumn(t *testing.T) {
	_, src := memorySource(t, "orgs.csv", testutil.PipeTable([]string{"name", "country"}, []string{"A", "IT"}))
	_, err := LoadOrganizations(context.Background(), src, OrganizationOptions{})
	var le *LoadError
	if !errors.As(err, &le) || len(le.Missing) != 8 {
		t.Fatalf("expected 8 missing columns, got %v", err)
	}
}

func TestLoadOrganizationsKeepsExactlyMappedCountries(t *testing.T) {
	var rows [][]string
	for _, code := range EuropeanCountries.Codes() {
		rows = append(rows, orgRow("org-"+code, code, "coordinator", "1"))
	}
	unmapped := []string{"ZZ", "GB", "GR", "it", ""}
	for _, code := range unmapped {
		rows = append(rows, orgRow("stray-"+code, code, "coordinator", "1"))
	}
	_, src := memorySource(t, "orgs.csv", orgsTable(rows...))
	orgs, err := LoadOrganizations(context.Background(), src, OrganizationOptions{Countries: EuropeanCountries})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(orgs) != EuropeanCountries.Len() {
		t.Fatalf("expected %d mapped rows, got %d", EuropeanCountries.Len(), len(orgs))
	}
	names := make(map[string]bool)
	for _, name := range EuropeanCountries.Names() {
		names[name] = true
	}
	for _, o := range orgs {
		if !names[o.Country] {
			t.Fatalf("%s kept with unmapped country %q", o.Name, o.Country)
		}
		if strings.HasPrefix(o.Name, "stray-") {
			t.Fatalf("unmapped row %s must be dropped", o.Name)
		}
	}
}
