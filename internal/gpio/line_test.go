package gpio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newSysfs builds a fake sysfs tree with the given line directories.
func newSysfs(t *testing.T, nums ...string) string {
	t.Helper()
	base := t.TempDir()
	for _, n := range nums {
		if err := os.MkdirAll(filepath.Join(base, "gpio"+n), 0o755); err != nil {
			t.Fatalf("creating line dir: %v", err)
		}
	}
	return base
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.TrimSpace(string(raw))
}

func TestExport(t *testing.T) {
	base := newSysfs(t, "17")

	l, err := Export(base, 17)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if l.Number() != 17 {
		t.Errorf("Number() = %d, want 17", l.Number())
	}
	if got := readFile(t, filepath.Join(base, "export")); got != "17" {
		t.Errorf("export file = %q, want %q", got, "17")
	}
}

func TestExportAlreadyExported(t *testing.T) {
	base := newSysfs(t, "4")
	// An unwritable export node with the line directory present is the
	// already-exported case.
	if err := os.MkdirAll(filepath.Join(base, "export"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Export(base, 4); err != nil {
		t.Errorf("Export() error = %v, want nil for exported line", err)
	}
}

func TestExportFailure(t *testing.T) {
	base := t.TempDir()
	if err := os.MkdirAll(filepath.Join(base, "export"), 0o755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := Export(base, 9); err == nil {
		t.Error("Export() error = nil, want failure for missing line")
	}
}

func TestLineDirectionAndValue(t *testing.T) {
	base := newSysfs(t, "17")
	l, err := Export(base, 17)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if err := l.SetDirection(Out); err != nil {
		t.Fatalf("SetDirection() error = %v", err)
	}
	if got := readFile(t, filepath.Join(base, "gpio17", "direction")); got != "out" {
		t.Errorf("direction = %q, want %q", got, "out")
	}

	if err := l.SetValue(true); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if got := readFile(t, filepath.Join(base, "gpio17", "value")); got != "1" {
		t.Errorf("value = %q, want %q", got, "1")
	}

	v, err := l.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if !v {
		t.Error("Value() = false, want true")
	}
}

func TestLineValueTrimsNewline(t *testing.T) {
	base := newSysfs(t, "3")
	l, err := Export(base, 3)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	// The kernel appends a newline to value reads.
	if err := os.WriteFile(filepath.Join(base, "gpio3", "value"), []byte("0\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	v, err := l.Value()
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	if v {
		t.Error("Value() = true, want false")
	}
}

func TestLineSetDirectionMissingLine(t *testing.T) {
	base := newSysfs(t, "2")
	l, err := Export(base, 2)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := os.RemoveAll(filepath.Join(base, "gpio2")); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := l.SetDirection(In); err == nil {
		t.Error("SetDirection() error = nil, want failure for missing line")
	}
}

func TestLineUnexport(t *testing.T) {
	base := newSysfs(t, "17")
	l, err := Export(base, 17)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if err := l.Unexport(); err != nil {
		t.Fatalf("Unexport() error = %v", err)
	}
	if got := readFile(t, filepath.Join(base, "unexport")); got != "17" {
		t.Errorf("unexport file = %q, want %q", got, "17")
	}
}
