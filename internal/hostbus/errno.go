package hostbus

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ErrnoCarrier is implemented by errors that know their host-boundary
// errno. Driver error taxonomies implement it so the bus can report the
// conventional negative code without depending on the driver package.
type ErrnoCarrier interface {
	error
	Errno() int
}

// ErrnoOf converts an attach error to the negative errno reported at the
// host boundary.
//
// Resolution order: nil maps to 0; an ErrnoCarrier anywhere in the chain
// supplies its own code; a raw system errno (as surfaced by pin or bus
// syscalls) passes through negated; anything else degrades to -EIO.
func ErrnoOf(err error) int {
	if err == nil {
		return 0
	}

	var carrier ErrnoCarrier
	if errors.As(err, &carrier) {
		return carrier.Errno()
	}

	var sys unix.Errno
	if errors.As(err, &sys) {
		return -int(sys)
	}

	return -int(unix.EIO)
}

// Common negative errno values for bus-level conditions.
var (
	errnoNoDevice = -int(unix.ENODEV)
	errnoBusy     = -int(unix.EBUSY)
)
