package fusb302

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/typec-core/internal/hostbus"
)

func TestSentinelErrnos(t *testing.T) {
	tests := []struct {
		err   error
		errno int
	}{
		{ErrNilDevice, -int(unix.EINVAL)},
		{ErrNotCompatible, -int(unix.EINVAL)},
		{ErrAdapterFuncs, -int(unix.EIO)},
		{ErrNoMemory, -int(unix.ENOMEM)},
		{ErrUnresponsive, -int(unix.EIO)},
		{ErrPortActive, -int(unix.EBUSY)},
	}
	for _, tt := range tests {
		if got := hostbus.ErrnoOf(tt.err); got != tt.errno {
			t.Errorf("ErrnoOf(%v) = %d, want %d", tt.err, got, tt.errno)
		}
	}
}

func TestSentinelErrnoSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("%w: %v", ErrUnresponsive, "read timeout")
	if got := hostbus.ErrnoOf(err); got != -int(unix.EIO) {
		t.Errorf("ErrnoOf(wrapped) = %d, want %d", got, -int(unix.EIO))
	}
}
