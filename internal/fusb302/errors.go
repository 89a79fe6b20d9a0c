package fusb302

import "golang.org/x/sys/unix"

// codedError is a sentinel that carries the errno reported at the bus
// boundary.
type codedError struct {
	msg   string
	errno int
}

func (e *codedError) Error() string { return e.msg }

// Errno returns the negative errno for the host boundary.
func (e *codedError) Errno() int { return e.errno }

var (
	// ErrNilDevice is returned when Attach is called without a device.
	ErrNilDevice = &codedError{"fusb302: nil device handle", -int(unix.EINVAL)}

	// ErrNotCompatible is returned when the device's compatible strings do
	// not match the driver's table.
	ErrNotCompatible = &codedError{"fusb302: device not compatible", -int(unix.EINVAL)}

	// ErrAdapterFuncs is returned when the adapter lacks required
	// functionality bits.
	ErrAdapterFuncs = &codedError{"fusb302: adapter functionality unsupported", -int(unix.EIO)}

	// ErrNoMemory is returned when context allocation fails.
	ErrNoMemory = &codedError{"fusb302: chip allocation failed", -int(unix.ENOMEM)}

	// ErrUnresponsive is returned when the identity probe cannot confirm a
	// supported chip.
	ErrUnresponsive = &codedError{"fusb302: device unresponsive", -int(unix.EIO)}

	// ErrPortActive is returned when a chip is already published in the
	// registry.
	ErrPortActive = &codedError{"fusb302: a port is already active", -int(unix.EBUSY)}
)
