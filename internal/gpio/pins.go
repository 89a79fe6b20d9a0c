package gpio

import "fmt"

// Pins bundles the VBUS-enable output and the active-low interrupt input
// for one Type-C port. A negative line number means the line is not wired
// and every operation on it silently succeeds.
type Pins struct {
	base    string
	vbusNum int
	intNum  int

	vbus *Line
	intr *Line
}

// NewPins creates an unconfigured pin set. Configure must be called before
// the lines are used.
func NewPins(base string, vbusGPIO, intGPIO int) *Pins {
	return &Pins{base: base, vbusNum: vbusGPIO, intNum: intGPIO}
}

// Configure exports the wired lines and sets their directions. VBUS starts
// driven low. A failure leaves no lines claimed.
func (p *Pins) Configure() error {
	if p.vbusNum >= 0 {
		line, err := Export(p.base, p.vbusNum)
		if err != nil {
			return fmt.Errorf("vbus line: %w", err)
		}
		if err := line.SetDirection(Out); err != nil {
			p.unexport(line)
			return fmt.Errorf("vbus line: %w", err)
		}
		if err := line.SetValue(false); err != nil {
			p.unexport(line)
			return fmt.Errorf("vbus line: %w", err)
		}
		p.vbus = line
	}

	if p.intNum >= 0 {
		line, err := Export(p.base, p.intNum)
		if err != nil {
			p.releaseVBus()
			return fmt.Errorf("interrupt line: %w", err)
		}
		if err := line.SetDirection(In); err != nil {
			p.unexport(line)
			p.releaseVBus()
			return fmt.Errorf("interrupt line: %w", err)
		}
		p.intr = line
	}

	return nil
}

// SetVBus drives the VBUS-enable line.
func (p *Pins) SetVBus(on bool) error {
	if p.vbus == nil {
		return nil
	}
	return p.vbus.SetValue(on)
}

// IntAsserted reports whether the interrupt line is asserted. The line is
// active low.
func (p *Pins) IntAsserted() (bool, error) {
	if p.intr == nil {
		return false, nil
	}
	v, err := p.intr.Value()
	if err != nil {
		return false, err
	}
	return !v, nil
}

// Release returns the lines to a safe state: VBUS driven low, both lines
// unexported. The first error is returned after all steps have run.
func (p *Pins) Release() error {
	var first error

	if p.vbus != nil {
		if err := p.vbus.SetValue(false); err != nil && first == nil {
			first = err
		}
		if err := p.vbus.Unexport(); err != nil && first == nil {
			first = err
		}
		p.vbus = nil
	}

	if p.intr != nil {
		if err := p.intr.Unexport(); err != nil && first == nil {
			first = err
		}
		p.intr = nil
	}

	return first
}

func (p *Pins) releaseVBus() {
	if p.vbus != nil {
		p.unexport(p.vbus)
		p.vbus = nil
	}
}

func (p *Pins) unexport(l *Line) {
	// Cleanup on the failure path; the original error wins.
	_ = l.Unexport()
}
