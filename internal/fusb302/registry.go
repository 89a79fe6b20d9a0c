package fusb302

import "sync"

// ActiveRegistry is a capacity-one slot for the active chip. Publication
// happens early in attach, before the identity probe; a second publish
// while the slot is occupied is rejected rather than overwriting.
//
// Detach never clears the slot. The entry goes stale once the bus
// releases the device scope, which is observable through Chip.Released.
type ActiveRegistry struct {
	mu     sync.Mutex
	active *Chip
}

// NewActiveRegistry creates an empty registry.
func NewActiveRegistry() *ActiveRegistry {
	return &ActiveRegistry{}
}

// Publish installs the chip in the slot. Returns ErrPortActive when the
// slot is occupied.
func (r *ActiveRegistry) Publish(c *Chip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return ErrPortActive
	}
	r.active = c
	return nil
}

// Withdraw clears the slot if it holds the given chip. Used only by
// attach rollback.
func (r *ActiveRegistry) Withdraw(c *Chip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == c {
		r.active = nil
	}
}

// Active returns the published chip, stale or not.
func (r *ActiveRegistry) Active() (*Chip, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != nil
}

// Count returns the number of published chips, zero or one.
func (r *ActiveRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return 0
	}
	return 1
}
