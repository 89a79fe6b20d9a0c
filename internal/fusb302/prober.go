package fusb302

import (
	"context"
	"fmt"

	"github.com/nerrad567/typec-core/internal/i2c"
)

// probeAttempts bounds how many identity reads the probe makes before
// declaring the device unresponsive.
const probeAttempts = 3

// DeviceProber reads the identity register and accepts any supported chip
// revision. The raw identity value is recorded on the chip for
// diagnostics.
type DeviceProber struct {
	logger Logger
}

// NewDeviceProber creates a prober.
func NewDeviceProber() *DeviceProber {
	return &DeviceProber{logger: noopLogger{}}
}

// SetLogger sets the logger for the prober.
func (p *DeviceProber) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	p.logger = logger
}

// Probe implements Prober.
func (p *DeviceProber) Probe(ctx context.Context, chip *Chip) error {
	dev := chip.Device()
	adapter := dev.Adapter()

	var lastErr error
	for attempt := 1; attempt <= probeAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnresponsive, ctx.Err())
		default:
		}

		id, err := i2c.ReadReg(adapter, dev.Addr(), regDeviceID)
		if err != nil {
			lastErr = err
			p.logger.Debug("identity read failed", "device", dev.Name(), "attempt", attempt, "error", err)
			continue
		}
		if !versionValid(id) {
			lastErr = fmt.Errorf("unsupported device id %#02x", id)
			p.logger.Debug("identity not recognised", "device", dev.Name(), "attempt", attempt, "id", fmt.Sprintf("%#02x", id))
			continue
		}

		chip.deviceID = id
		p.logger.Debug("device identified", "device", dev.Name(), "version", versionString(id))
		return nil
	}

	return fmt.Errorf("%w: %v", ErrUnresponsive, lastErr)
}
