package hostbus

import "sync"

// Devres is a device-scoped resource stack.
//
// Drivers register release functions for resources whose lifetime should
// track the device handle rather than the driver's own code paths. The bus
// releases the scope when an attach dispatch fails and after a detach
// completes; releases run in reverse registration order, once.
type Devres struct {
	mu       sync.Mutex
	releases []func()
	released bool
}

// Defer registers a release function on the scope. Registering on an
// already-released scope runs the function immediately.
func (d *Devres) Defer(release func()) {
	if release == nil {
		return
	}
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		release()
		return
	}
	d.releases = append(d.releases, release)
	d.mu.Unlock()
}

// Count returns the number of pending release functions.
func (d *Devres) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.releases)
}

// Released reports whether the scope has been released.
func (d *Devres) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Release runs all registered release functions in reverse order. It is
// idempotent; later calls do nothing.
func (d *Devres) Release() {
	d.mu.Lock()
	if d.released {
		d.mu.Unlock()
		return
	}
	d.released = true
	releases := d.releases
	d.releases = nil
	d.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}
