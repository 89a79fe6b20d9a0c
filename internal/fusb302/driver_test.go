package fusb302

import (
	"context"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/typec-core/internal/diag"
	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/i2c"
	"github.com/nerrad567/typec-core/internal/typec"
)

// stack is the driver with its default collaborators wired onto a bus, the
// way the daemon assembles it at startup.
type stack struct {
	bus     *hostbus.Bus
	ctrl    *Controller
	diag    *diag.Registry
	sim     *i2c.Sim
	updates chan typec.Update
}

func newStack(t *testing.T) *stack {
	t.Helper()

	engine := typec.NewEngine()
	t.Cleanup(engine.Close)

	updates := make(chan typec.Update, 64)
	engine.AddSink(typec.SinkFunc(func(u typec.Update) {
		select {
		case updates <- u:
		default:
		}
	}))

	diagReg := diag.NewRegistry()
	ctrl, err := NewController(Deps{
		Allocator:   DevresAllocator{},
		Prober:      NewDeviceProber(),
		Pins:        NewPortPins(),
		Workers:     NewChipWorkers(5 * time.Millisecond),
		Timer:       NewTickTimer(10 * time.Millisecond),
		Diagnostics: NewRegistryDiagnostics(diagReg),
		Core:        NewEngineCore(engine),
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}

	bus := hostbus.New(testLogger())
	if err := bus.RegisterDriver(NewDriver(ctrl)); err != nil {
		t.Fatalf("RegisterDriver() error = %v", err)
	}

	sim := i2c.NewSim("sim0")
	sim.Load(regDeviceID, 0x91)
	if _, err := bus.AddDevice(hostbus.DeviceDesc{
		Name:       "port0",
		Addr:       0x22,
		Compatible: []string{"fcs,fusb302"},
		Adapter:    sim,
	}); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	return &stack{bus: bus, ctrl: ctrl, diag: diagReg, sim: sim, updates: updates}
}

func TestDriverDescribesItself(t *testing.T) {
	c, _ := newMockController(t)
	drv := NewDriver(c)

	if drv.Name() != DriverName {
		t.Errorf("Name() = %q, want %q", drv.Name(), DriverName)
	}
	compat := drv.Compatible()
	if len(compat) != 2 || compat[0] != "fcs,fusb302" || compat[1] != "fcs,fusb302b" {
		t.Errorf("Compatible() = %v", compat)
	}
	compat[0] = "mutated"
	if drv.Compatible()[0] != "fcs,fusb302" {
		t.Error("Compatible() shares its backing array with callers")
	}
	if !drv.RequiredFuncs().Has(i2c.FuncSMBusReadByteData | i2c.FuncSMBusWriteByteData) {
		t.Error("RequiredFuncs() missing byte-data transfers")
	}
}

func TestDriverLifecycleOnBus(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	if rc := s.bus.Attach(ctx, "port0"); rc != 0 {
		t.Fatalf("Attach() = %d, want 0", rc)
	}
	dev, _ := s.bus.Get("port0")
	if dev.State() != hostbus.StateBound {
		t.Fatalf("State() = %q, want %q", dev.State(), hostbus.StateBound)
	}

	chip, ok := s.ctrl.Registry().Active()
	if !ok {
		t.Fatal("no active chip after attach")
	}
	if chip.Released() {
		t.Fatal("chip released while bound")
	}
	if chip.DeviceID() != 0x91 {
		t.Errorf("DeviceID() = %#02x, want 0x91", chip.DeviceID())
	}
	if _, ok := s.diag.Get("fusb302/port0"); !ok {
		t.Fatal("diagnostics provider missing after attach")
	}

	if rc := s.bus.Detach(ctx, "port0"); rc != 0 {
		t.Fatalf("Detach() = %d, want 0", rc)
	}
	if dev.State() != hostbus.StateRegistered {
		t.Fatalf("State() = %q after detach, want %q", dev.State(), hostbus.StateRegistered)
	}
	if chip.WorkersActive() {
		t.Error("workers still active after detach")
	}
	if chip.TimerActive() {
		t.Error("timer still active after detach")
	}

	// The registry entry and the diagnostics provider survive the detach.
	// The entry is stale now that the device scope is gone.
	if s.ctrl.Registry().Count() != 1 {
		t.Fatal("registry entry cleared by detach")
	}
	if !chip.Released() {
		t.Fatal("chip not marked stale after detach")
	}
	if _, ok := s.diag.Get("fusb302/port0"); !ok {
		t.Fatal("diagnostics withdrawn by detach")
	}

	// The stale entry occupies the slot until the process restarts.
	if rc := s.bus.Attach(ctx, "port0"); rc != -int(unix.EBUSY) {
		t.Fatalf("re-Attach() = %d, want %d", rc, -int(unix.EBUSY))
	}
}

func TestDriverReportsPartnerAttach(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	if rc := s.bus.Attach(ctx, "port0"); rc != 0 {
		t.Fatalf("Attach() = %d, want 0", rc)
	}

	// Simulate a source plugging in: VBUS present and the interrupt latched.
	// Status is loaded first so any service round that sees the interrupt
	// also sees VBUS high.
	s.sim.Load(regStatus0, status0VBusOK)
	s.sim.Load(regInterrupt, intVBusOK)

	deadline := time.After(2 * time.Second)
	sawAttach := false
	for !sawAttach {
		select {
		case u := <-s.updates:
			if u.Event != "vbus_on" {
				continue
			}
			sawAttach = true
			if u.State.Connection != typec.ConnAttached {
				t.Errorf("Connection = %q, want %q", u.State.Connection, typec.ConnAttached)
			}
			if !u.State.VBus {
				t.Error("VBus = false on vbus_on update")
			}
		case <-deadline:
			t.Fatal("no vbus_on update observed")
		}
	}

	if rc := s.bus.Detach(ctx, "port0"); rc != 0 {
		t.Fatalf("Detach() = %d, want 0", rc)
	}
}
