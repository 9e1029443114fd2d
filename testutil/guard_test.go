package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInternalImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"hopon/internal/core", true},
		{"hopon/pkg/domain", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPrefixForbidden(t *testing.T) {
	pred := PrefixForbidden("hopon/internal/infra")
	if !pred("hopon/internal/infra") || !pred("hopon/internal/infra/blob/s3") {
		t.Fatalf("expected prefix and children to match")
	}
	if pred("hopon/internal/infrastructure") {
		t.Fatalf("sibling with shared prefix must not match")
	}
}

// TestAssertNoDirectImports exercises the success path by creating a tiny temp package with safe imports.
func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, _ ...any) { r.msg = format }

func TestDirectViolationsReported(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport _ \"hopon/internal/core\"\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "hopon/internal/core") {
		t.Fatalf("unexpected violations %v", viols)
	}
	rec := &recordingFatal{}
	failIfDirectViolations(rec, "reason", viols)
	if rec.msg == "" {
		t.Fatalf("expected fatal to be reported")
	}
}

func TestPipeTable(t *testing.T) {
	got := string(PipeTable([]string{"a", "b"}, []string{"1", "2"}, []string{"3", ""}))
	if got != "a|b\n1|2\n3|\n" {
		t.Fatalf("unexpected table %q", got)
	}
}
