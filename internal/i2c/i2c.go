// Package i2c provides the register-bus access layer for typecd.
//
// The package is built around a minimal Adapter interface with a single Tx
// method, which lets one chip driver run against real /dev/i2c-* adapters,
// the in-memory simulator, and test fakes without modification. Adapters
// also report their supported functionality as a Funcs bitmask mirroring
// the Linux I2C_FUNC_* flags, so drivers can verify the adapter offers the
// primitives they need before touching the hardware.
//
// Thread Safety: Tx is safe for concurrent use on all implementations in
// this package.
package i2c

import "fmt"

// Adapter is the minimum contract a register-bus adapter must satisfy.
type Adapter interface {
	// Name identifies the adapter (device path or simulator label).
	Name() string

	// Functionality reports the operations this adapter supports.
	Functionality() Funcs

	// Tx performs a write followed by a read in a single transaction,
	// placing the read bytes into r. A nil w skips the write half and a
	// nil r skips the read half. Tx must be safe to call concurrently
	// from multiple goroutines.
	Tx(addr uint16, w, r []byte) error

	// Close releases the adapter. Tx must not be called after Close.
	Close() error
}

// ReadReg reads a single register via a write-then-read transaction.
func ReadReg(a Adapter, addr uint16, reg byte) (byte, error) {
	buf := make([]byte, 1)
	if err := a.Tx(addr, []byte{reg}, buf); err != nil {
		return 0, fmt.Errorf("reading reg 0x%02x: %w", reg, err)
	}
	return buf[0], nil
}

// WriteReg writes a single register.
func WriteReg(a Adapter, addr uint16, reg, val byte) error {
	if err := a.Tx(addr, []byte{reg, val}, nil); err != nil {
		return fmt.Errorf("writing reg 0x%02x: %w", reg, err)
	}
	return nil
}

// ReadBlock reads len(buf) consecutive registers starting at reg.
func ReadBlock(a Adapter, addr uint16, reg byte, buf []byte) error {
	if err := a.Tx(addr, []byte{reg}, buf); err != nil {
		return fmt.Errorf("reading block at 0x%02x: %w", reg, err)
	}
	return nil
}
