package dataset

import (
	"context"
	"testing"

	"hopon/internal/blob"
	"hopon/testutil"
)

func memorySource(t *testing.T, key string, data []byte) (*blob.Memory, *DelimitedSource) {
	t.Helper()
	store := blob.NewMemory()
	if _, err := store.Replace(context.Background(), key, data); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	return store, NewDelimitedSource(store, key)
}

func projectRow(id, cluster, start, end string) []string {
	return []string{id, "ACR" + id, "Title " + id, "objective of " + id, cluster, "T1", "RIA", start, end, "HORIZON", "10.3030/" + id}
}

func orgRow(name, country, role, projectID string) []string {
	return []string{name, "PRC", "Rome", country, role, "https://example.org", projectID, "1", "1000.5", ""}
}

func projectsTable(rows ...[]string) []byte { return testutil.PipeTable(testutil.ProjectHeader, rows...) }

func orgsTable(rows ...[]string) []byte { return testutil.PipeTable(testutil.OrganizationHeader, rows...) }
