package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSysfsPath is the kernel's GPIO sysfs root.
const DefaultSysfsPath = "/sys/class/gpio"

// Direction is a GPIO line direction.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Line is one exported GPIO line.
type Line struct {
	base string
	num  int
}

// Export makes the numbered line available under base. An already-exported
// line is not an error.
func Export(base string, num int) (*Line, error) {
	if base == "" {
		base = DefaultSysfsPath
	}
	l := &Line{base: base, num: num}

	err := os.WriteFile(filepath.Join(base, "export"), []byte(strconv.Itoa(num)), 0o200)
	if err != nil {
		// The kernel reports EBUSY for a line that is already exported;
		// the line directory being present confirms it.
		if _, statErr := os.Stat(l.dir()); statErr == nil {
			return l, nil
		}
		return nil, fmt.Errorf("exporting gpio %d: %w", num, err)
	}
	return l, nil
}

// Number returns the line number.
func (l *Line) Number() int { return l.num }

// SetDirection configures the line as an input or output.
func (l *Line) SetDirection(dir Direction) error {
	if err := os.WriteFile(filepath.Join(l.dir(), "direction"), []byte(dir), 0o200); err != nil {
		return fmt.Errorf("setting gpio %d direction: %w", l.num, err)
	}
	return nil
}

// Value reads the line level.
func (l *Line) Value() (bool, error) {
	raw, err := os.ReadFile(filepath.Join(l.dir(), "value"))
	if err != nil {
		return false, fmt.Errorf("reading gpio %d: %w", l.num, err)
	}
	return strings.TrimSpace(string(raw)) != "0", nil
}

// SetValue drives the line level. The line must be an output.
func (l *Line) SetValue(v bool) error {
	b := []byte("0")
	if v {
		b = []byte("1")
	}
	if err := os.WriteFile(filepath.Join(l.dir(), "value"), b, 0o200); err != nil {
		return fmt.Errorf("writing gpio %d: %w", l.num, err)
	}
	return nil
}

// Unexport returns the line to the kernel.
func (l *Line) Unexport() error {
	if err := os.WriteFile(filepath.Join(l.base, "unexport"), []byte(strconv.Itoa(l.num)), 0o200); err != nil {
		return fmt.Errorf("unexporting gpio %d: %w", l.num, err)
	}
	return nil
}

func (l *Line) dir() string {
	return filepath.Join(l.base, fmt.Sprintf("gpio%d", l.num))
}
