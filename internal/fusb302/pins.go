package fusb302

import "sync"

// PinSet is the GPIO surface the driver needs from one port's pins.
type PinSet interface {
	Configure() error
	Release() error
}

// PortPins maps device names to their pin sets. A device without an
// entry has no wired pins; configure and release are no-ops for it.
type PortPins struct {
	mu   sync.Mutex
	sets map[string]PinSet
}

// NewPortPins creates an empty pin map.
func NewPortPins() *PortPins {
	return &PortPins{sets: make(map[string]PinSet)}
}

// Add associates a pin set with a device name.
func (p *PortPins) Add(device string, set PinSet) {
	if set == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets[device] = set
}

// Configure implements Pins.
func (p *PortPins) Configure(chip *Chip) error {
	set := p.lookup(chip)
	if set == nil {
		return nil
	}
	return set.Configure()
}

// Release implements Pins.
func (p *PortPins) Release(chip *Chip) error {
	set := p.lookup(chip)
	if set == nil {
		return nil
	}
	return set.Release()
}

func (p *PortPins) lookup(chip *Chip) PinSet {
	dev := chip.Device()
	if dev == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sets[dev.Name()]
}
