package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"hopon/internal/blob/core"
)

func TestMockStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()
	if store.Driver() != core.DriverS3 || store.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected store identity")
	}
	if _, err := store.Head(ctx, "exports/projects.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found before put, got %v", err)
	}
	info, err := store.Put(ctx, "exports/projects.csv", bytes.NewReader([]byte("id|title\n1|x\n")), core.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ETag == "" || info.Size != 13 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "exports/projects.csv", bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put error")
	}
	got, rc, err := store.Get(ctx, "exports/projects.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "id|title\n1|x\n" || got.ETag != info.ETag {
		t.Fatalf("unexpected object %q %+v", body, got)
	}
	list, err := store.List(ctx, "exports/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "exports/projects.csv" {
		t.Fatalf("unexpected list %+v", list)
	}
	if _, _, err := store.Get(ctx, "exports/missing.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestObjectKeyPrefix(t *testing.T) {
	s := newWithClient(nil, "b", "/datasets/")
	if got := s.objectKey("/projects.csv"); got != "datasets/projects.csv" {
		t.Fatalf("unexpected object key %q", got)
	}
	if got := newWithClient(nil, "b", "").objectKey("k"); got != "k" {
		t.Fatalf("unexpected object key %q", got)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}
