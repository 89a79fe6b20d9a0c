package fusb302

import "github.com/nerrad567/typec-core/internal/hostbus"

// DevresAllocator creates chips scoped to the device handle. The chip's
// released flag flips when the bus releases the device scope, so a stale
// registry entry is detectable.
type DevresAllocator struct{}

// Allocate implements Allocator.
func (DevresAllocator) Allocate(dev *hostbus.Device) (*Chip, error) {
	chip := newChip()
	dev.Devres().Defer(func() {
		chip.released.Store(true)
	})
	return chip, nil
}
