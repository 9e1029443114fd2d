package fs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hopon/internal/blob/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func TestStore_PutGetHeadList(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	info, err := store.Put(ctx, "alpha/test.txt", bytes.NewReader([]byte("hello")), core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"k": "v"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "alpha/test.txt" || info.Size != 5 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "alpha/test.txt", bytes.NewReader([]byte("x")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate failure")
	}
	h, err := store.Head(ctx, "alpha/test.txt")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.ContentType != "text/plain" || h.ETag != info.ETag {
		t.Fatalf("head should come from sidecar: %+v", h)
	}
	g, rc, err := store.Get(ctx, "alpha/test.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "hello" || g.ETag != h.ETag {
		t.Fatalf("unexpected get artifacts")
	}
	list, err := store.List(ctx, "alpha/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "alpha/test.txt" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestStore_PlainFileWithoutSidecar(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	path := filepath.Join(store.Root(), "projects.csv")
	if err := os.WriteFile(path, []byte("id|title\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	first, err := store.Head(ctx, "projects.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if first.ETag == "" || first.Size != 9 {
		t.Fatalf("unexpected derived info %+v", first)
	}
	later := time.Now().Add(time.Minute)
	if err := os.WriteFile(path, []byte("id|title\n1|a\n"), 0o600); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	second, err := store.Head(ctx, "projects.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("etag must change when file changes")
	}
	list, err := store.List(ctx, "")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
}

func TestStore_KeyValidationAndMissing(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	for _, key := range []string{"", "../escape", "/abs"} {
		if _, err := store.Head(ctx, key); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
	if _, _, err := store.Get(ctx, "nope.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.Head(ctx, "nope.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if p, err := store.PathFor("a/b.csv"); err != nil || filepath.Base(p) != "b.csv" {
		t.Fatalf("unexpected path %q %v", p, err)
	}
	if store.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver")
	}
}

func TestStore_CorruptSidecar(t *testing.T) {
	ctx := context.Background()
	store := newTempStore(t)
	path := filepath.Join(store.Root(), "x.csv")
	if err := os.WriteFile(path, []byte("a"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(path+metaSuffix, []byte("{"), 0o600); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := store.Head(ctx, "x.csv"); err == nil {
		t.Fatalf("expected decode error")
	}
}
