package datasets

import (
	"context"
	"testing"

	"hopon/internal/blob"
	"hopon/internal/core"
)

func TestWorkerForgetsOldestExportRecords(t *testing.T) {
	worker := NewWorker(blob.NewMemory(), nil, 2)
	ctx := context.Background()
	ids := make([]string, 3)
	for i := range ids {
		record, err := worker.EnqueueExport(ctx, ExportInput{SessionID: "s", View: core.View{}})
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
		ids[i] = record.ID
	}
	if _, ok := worker.GetExport(ids[0]); ok {
		t.Fatalf("oldest export record should have been evicted")
	}
	for _, id := range ids[1:] {
		if record, ok := worker.GetExport(id); !ok || record.Status != ExportStatusQueued {
			t.Fatalf("export %s should still be tracked: %+v", id, record)
		}
	}
}

func TestWorkerDefaultsRecordLimit(t *testing.T) {
	worker := NewWorker(blob.NewMemory(), nil, -1)
	if worker.jobs.Len() != 0 {
		t.Fatalf("new worker should track no exports")
	}
	record, err := worker.EnqueueExport(context.Background(), ExportInput{})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(record.Tables) != 2 || len(record.Formats) != 1 {
		t.Fatalf("unexpected defaults %+v", record)
	}
}
