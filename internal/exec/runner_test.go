package exec

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunShell(t *testing.T) {
	r := NewRunner()
	dir := t.TempDir()

	out, err := r.RunShell(context.Background(), dir, []string{"GREETING=hello"}, `echo "$GREETING" > out.txt && cat out.txt`)
	if err != nil {
		t.Fatalf("RunShell: %v (output %q)", err, out)
	}
	if got := strings.TrimSpace(string(out)); got != "hello" {
		t.Errorf("output = %q, want %q", got, "hello")
	}
	if _, err := os.Stat(filepath.Join(dir, "out.txt")); err != nil {
		t.Errorf("command did not run in workDir: %v", err)
	}
}

func TestRunShellFailure(t *testing.T) {
	r := NewRunner()
	out, err := r.RunShell(context.Background(), "", nil, "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(string(out), "oops") {
		t.Errorf("combined output = %q, want stderr included", out)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewRunner().Run(ctx, "", nil, "sleep", "5"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
