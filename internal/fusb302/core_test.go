package fusb302

import (
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/typec-core/internal/i2c"
	"github.com/nerrad567/typec-core/internal/typec"
)

func newPortChip(t *testing.T) (*Chip, *i2c.Sim) {
	t.Helper()
	dev, sim := newBusDevice(t, "port0", "fcs,fusb302")
	chip := newChip()
	chip.dev = dev
	chip.initSync()
	chip.state = typec.NewPortState()
	return chip, sim
}

func TestChipPortInit(t *testing.T) {
	chip, sim := newPortChip(t)

	if err := newChipPort(chip, nil).Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if got := sim.Peek(regReset); got != resetSWReset {
		t.Errorf("reset register = %#02x, want %#02x", got, resetSWReset)
	}
	if got := sim.Peek(regPower); got != powerAll {
		t.Errorf("power register = %#02x, want %#02x", got, powerAll)
	}
	want := byte(switches0PdwnCC1 | switches0PdwnCC2 | switches0MeasCC1)
	if got := sim.Peek(regSwitches0); got != want {
		t.Errorf("switches0 register = %#02x, want %#02x", got, want)
	}
}

func TestChipPortInitWriteError(t *testing.T) {
	chip, sim := newPortChip(t)
	sim.SetTxErr(errors.New("no ack"))

	if err := newChipPort(chip, nil).Init(); err == nil {
		t.Fatal("Init() expected error")
	}
}

func TestChipPortAlert(t *testing.T) {
	t.Run("quiet chip ticks", func(t *testing.T) {
		chip, _ := newPortChip(t)
		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventTick) {
			t.Errorf("events = %v, want tick", events)
		}
	})

	t.Run("hard reset", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regInterruptA, intAHardReset)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventHardReset) {
			t.Errorf("events = %v, want hard reset", events)
		}
		if got := sim.Peek(regInterruptA); got != 0 {
			t.Errorf("interrupta = %#02x after alert, want cleared", got)
		}
	})

	t.Run("vbus rise reports attach", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regStatus0, status0VBusOK)
		sim.Load(regInterrupt, intVBusOK)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventAttached) || !events.Has(typec.EventVBusOn) {
			t.Errorf("events = %v, want attached and vbus on", events)
		}
		if got := sim.Peek(regInterrupt); got != 0 {
			t.Errorf("interrupt = %#02x after alert, want cleared", got)
		}
	})

	t.Run("vbus drop reports detach", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regInterrupt, intVBusOK)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventDetached) || !events.Has(typec.EventVBusOff) {
			t.Errorf("events = %v, want detached and vbus off", events)
		}
	})

	t.Run("bc level maps advertised current", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regStatus0, status0VBusOK|bcLvl1A5)
		sim.Load(regInterrupt, intBCLvl)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventCurrent1500) {
			t.Errorf("events = %v, want 1.5A current", events)
		}
	})

	t.Run("bc level without vbus ignored", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regStatus0, bcLvl3A0)
		sim.Load(regInterrupt, intBCLvl)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if events.Has(typec.EventCurrent3000) {
			t.Errorf("events = %v, current reported without vbus", events)
		}
	})

	t.Run("activity", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regInterrupt, intActivity)

		events, err := newChipPort(chip, nil).Alert()
		if err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if !events.Has(typec.EventActivity) {
			t.Errorf("events = %v, want activity", events)
		}
	})

	t.Run("toggle done records orientation", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.Load(regStatus1A, togssSnkCC2<<status1ATogssShift)
		sim.Load(regInterruptA, intATogDone)

		if _, err := newChipPort(chip, nil).Alert(); err != nil {
			t.Fatalf("Alert() error = %v", err)
		}
		if got := chip.state.Snapshot().Orientation; got != typec.OrientationCC2 {
			t.Errorf("orientation = %v, want cc2", got)
		}
	})

	t.Run("read failure surfaces", func(t *testing.T) {
		chip, sim := newPortChip(t)
		sim.SetTxErr(errors.New("no ack"))

		if _, err := newChipPort(chip, nil).Alert(); err == nil {
			t.Fatal("Alert() expected error")
		}
	})
}

func TestEngineCoreStart(t *testing.T) {
	engine := typec.NewEngine()
	defer engine.Close()

	updates := make(chan typec.Update, 16)
	engine.AddSink(typec.SinkFunc(func(u typec.Update) {
		select {
		case updates <- u:
		default:
		}
	}))

	chip, _ := newPortChip(t)
	core := NewEngineCore(engine)
	core.InitState(chip)
	core.Start(chip)

	if !chip.CoreStarted() {
		t.Fatal("CoreStarted() = false after Start()")
	}

	chip.Wake()
	select {
	case u := <-updates:
		if u.PortID != "port0" {
			t.Errorf("PortID = %q, want port0", u.PortID)
		}
		if u.Event != "tick" {
			t.Errorf("Event = %q, want tick", u.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no update after wake")
	}
}

func TestEngineCoreStartInitFailure(t *testing.T) {
	engine := typec.NewEngine()
	defer engine.Close()

	chip, sim := newPortChip(t)
	sim.SetTxErr(errors.New("no ack"))

	core := NewEngineCore(engine)
	core.InitState(chip)
	core.Start(chip)

	if chip.CoreStarted() {
		t.Fatal("CoreStarted() = true though port init failed")
	}
}
