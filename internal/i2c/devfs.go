//go:build linux

package i2c

import (
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// i2cMsg mirrors struct i2c_msg from <linux/i2c.h>.
type i2cMsg struct {
	addr   uint16
	flags  uint16
	length uint16
	buf    uintptr
}

// rdwrData mirrors struct i2c_rdwr_ioctl_data from <linux/i2c-dev.h>.
type rdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// Dev is an Adapter backed by a /dev/i2c-* character device.
//
// Transactions use the I2C_RDWR ioctl so a write followed by a read is a
// single bus transaction with a repeated start, which the FUSB302 register
// protocol requires.
type Dev struct {
	mu    sync.Mutex
	f     *os.File
	path  string
	funcs Funcs
}

// Open opens an I2C adapter device node and queries its functionality mask.
func Open(path string) (*Dev, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening i2c adapter %s: %w", path, err)
	}

	var funcs uint64
	if err := ioctl(f.Fd(), unix.I2C_FUNCS, uintptr(unsafe.Pointer(&funcs))); err != nil {
		f.Close()
		return nil, fmt.Errorf("querying functionality of %s: %w", path, err)
	}

	return &Dev{f: f, path: path, funcs: Funcs(funcs)}, nil
}

// Name returns the device path.
func (d *Dev) Name() string { return d.path }

// Functionality returns the adapter's I2C_FUNCS mask as read at Open time.
func (d *Dev) Functionality() Funcs { return d.funcs }

// Tx performs the write/read halves as one I2C_RDWR transaction.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{
			addr:   addr,
			length: uint16(len(w)),
			buf:    uintptr(unsafe.Pointer(&w[0])),
		}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{
			addr:   addr,
			flags:  unix.I2C_M_RD,
			length: uint16(len(r)),
			buf:    uintptr(unsafe.Pointer(&r[0])),
		}
		n++
	}
	if n == 0 {
		return nil
	}

	data := rdwrData{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(n),
	}

	d.mu.Lock()
	err := ioctl(d.f.Fd(), unix.I2C_RDWR, uintptr(unsafe.Pointer(&data)))
	d.mu.Unlock()

	// Keep the buffers reachable until the kernel is done with them.
	runtime.KeepAlive(w)
	runtime.KeepAlive(r)
	runtime.KeepAlive(&msgs)

	if err != nil {
		return fmt.Errorf("i2c transfer to 0x%02x on %s: %w", addr, d.path, err)
	}
	return nil
}

// Close closes the underlying device node.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.f == nil {
		return nil
	}
	err := d.f.Close()
	d.f = nil
	return err
}

// ioctl wraps the raw syscall, converting the errno to error.
func ioctl(fd uintptr, req uint, arg uintptr) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), arg); errno != 0 {
		return errno
	}
	return nil
}
