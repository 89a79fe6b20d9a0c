package fusb302

import (
	"fmt"

	"github.com/nerrad567/typec-core/internal/i2c"
	"github.com/nerrad567/typec-core/internal/typec"
)

// EngineCore binds chips to the protocol engine. Start enables the chip's
// port on the engine; nothing disables it when the driver goes away, the
// port just idles once its wake channel falls silent.
type EngineCore struct {
	logger Logger
	engine *typec.Engine
}

// NewEngineCore creates the core collaborator.
func NewEngineCore(engine *typec.Engine) *EngineCore {
	return &EngineCore{logger: noopLogger{}, engine: engine}
}

// SetLogger sets the logger for the core collaborator.
func (c *EngineCore) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// InitState implements Core.
func (c *EngineCore) InitState(chip *Chip) {
	chip.state = typec.NewPortState()
}

// Start implements Core.
func (c *EngineCore) Start(chip *Chip) {
	name := chip.id
	if dev := chip.Device(); dev != nil {
		name = dev.Name()
	}

	port := newChipPort(chip, c.logger)
	if err := c.engine.Enable(name, port, chip.WakeChan(), chip.state); err != nil {
		c.logger.Error("enabling protocol core", "chip", chip.id, "error", err)
		return
	}
	chip.coreStarted.Store(true)
}

// chipPort adapts a chip to the typec.Port contract. All register access
// happens here, under the chip lock.
type chipPort struct {
	chip   *Chip
	logger Logger
}

func newChipPort(chip *Chip, logger Logger) *chipPort {
	if logger == nil {
		logger = noopLogger{}
	}
	return &chipPort{chip: chip, logger: logger}
}

// Init implements typec.Port. It resets the chip, powers every block,
// routes the CC pull-downs for sink operation and opens the interrupt
// masks.
func (p *chipPort) Init() error {
	p.chip.Lock()
	defer p.chip.Unlock()

	dev := p.chip.Device()
	adapter := dev.Adapter()
	addr := dev.Addr()

	writes := []struct{ reg, val byte }{
		{regReset, resetSWReset},
		{regPower, powerAll},
		{regSwitches0, switches0PdwnCC1 | switches0PdwnCC2 | switches0MeasCC1},
		{regControl0, 0x00},
		{regMask, 0x00},
		{regMaskA, 0x00},
		{regMaskB, 0x00},
	}
	for _, w := range writes {
		if err := i2c.WriteReg(adapter, addr, w.reg, w.val); err != nil {
			return fmt.Errorf("writing register %#02x: %w", w.reg, err)
		}
	}
	return nil
}

// Alert implements typec.Port. It reads the interrupt and status
// registers and derives the pending events.
func (p *chipPort) Alert() (typec.Event, error) {
	p.chip.Lock()
	defer p.chip.Unlock()

	dev := p.chip.Device()
	adapter := dev.Adapter()
	addr := dev.Addr()

	intA, err := i2c.ReadReg(adapter, addr, regInterruptA)
	if err != nil {
		return typec.EventNone, fmt.Errorf("reading interrupta: %w", err)
	}
	intMain, err := i2c.ReadReg(adapter, addr, regInterrupt)
	if err != nil {
		return typec.EventNone, fmt.Errorf("reading interrupt: %w", err)
	}
	status0, err := i2c.ReadReg(adapter, addr, regStatus0)
	if err != nil {
		return typec.EventNone, fmt.Errorf("reading status0: %w", err)
	}

	// Interrupt registers clear on read in silicon; the write-back clears
	// them on simulated adapters.
	if intA != 0 {
		_ = i2c.WriteReg(adapter, addr, regInterruptA, 0)
	}
	if intMain != 0 {
		_ = i2c.WriteReg(adapter, addr, regInterrupt, 0)
	}

	var events typec.Event

	if intA&intAHardReset != 0 {
		events.Add(typec.EventHardReset)
	}
	if intA&intATogDone != 0 {
		p.noteOrientation(adapter, addr)
	}

	if intMain&intVBusOK != 0 {
		if status0&status0VBusOK != 0 {
			events.Add(typec.EventAttached | typec.EventVBusOn)
		} else {
			events.Add(typec.EventDetached | typec.EventVBusOff)
		}
	}

	if intMain&intBCLvl != 0 && status0&status0VBusOK != 0 {
		switch status0 & status0BCLvlMask {
		case bcLvlDefault:
			events.Add(typec.EventCurrent500)
		case bcLvl1A5:
			events.Add(typec.EventCurrent1500)
		case bcLvl3A0:
			events.Add(typec.EventCurrent3000)
		}
	}

	if intMain&(intActivity|intCRCChk) != 0 {
		events.Add(typec.EventActivity)
	}

	if events == typec.EventNone {
		events.Add(typec.EventTick)
	}
	return events, nil
}

// noteOrientation records which CC pin the toggle logic settled on.
func (p *chipPort) noteOrientation(adapter i2c.Adapter, addr uint16) {
	status1a, err := i2c.ReadReg(adapter, addr, regStatus1A)
	if err != nil {
		p.logger.Debug("reading status1a", "error", err)
		return
	}
	switch (status1a >> status1ATogssShift) & status1ATogssMask {
	case togssSnkCC1:
		p.chip.state.SetOrientation(typec.OrientationCC1)
	case togssSnkCC2:
		p.chip.state.SetOrientation(typec.OrientationCC2)
	}
}
