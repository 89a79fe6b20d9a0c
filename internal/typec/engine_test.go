package typec

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type alertResult struct {
	events Event
	err    error
}

// fakePort returns scripted Alert results in order, then EventNone.
type fakePort struct {
	mu      sync.Mutex
	initErr error
	inits   int
	alerts  []alertResult
}

func (p *fakePort) queue(ev Event, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, alertResult{events: ev, err: err})
}

func (p *fakePort) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inits++
	return p.initErr
}

func (p *fakePort) Alert() (Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.alerts) == 0 {
		return EventNone, nil
	}
	r := p.alerts[0]
	p.alerts = p.alerts[1:]
	return r.events, r.err
}

func waitUpdate(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestEngineEnableValidation(t *testing.T) {
	e := NewEngine()
	defer e.Close()
	wake := make(chan struct{})

	if err := e.Enable("p", nil, wake, NewPortState()); !errors.Is(err, ErrNilPort) {
		t.Errorf("Enable(nil port) error = %v, want %v", err, ErrNilPort)
	}
	if err := e.Enable("p", &fakePort{}, nil, NewPortState()); !errors.Is(err, ErrNilWake) {
		t.Errorf("Enable(nil wake) error = %v, want %v", err, ErrNilWake)
	}
	if err := e.Enable("p", &fakePort{}, wake, nil); !errors.Is(err, ErrNilState) {
		t.Errorf("Enable(nil state) error = %v, want %v", err, ErrNilState)
	}
}

func TestEngineEnableInitFailure(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	port := &fakePort{initErr: errors.New("chip not ready")}
	err := e.Enable("port0", port, make(chan struct{}), NewPortState())
	if err == nil {
		t.Fatal("Enable() error = nil, want init failure")
	}
	if len(e.Ports()) != 0 {
		t.Errorf("Ports() = %v, want empty after failed enable", e.Ports())
	}
}

func TestEngineServicesWakes(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	updates := make(chan Update, 16)
	e.AddSink(SinkFunc(func(u Update) { updates <- u }))

	port := &fakePort{}
	wake := make(chan struct{})
	state := NewPortState()
	if err := e.Enable("port0", port, wake, state); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if port.inits != 1 {
		t.Errorf("port inits = %d, want 1", port.inits)
	}

	// One wake carrying three pending events must publish them in
	// priority order.
	port.queue(EventAttached|EventVBusOn|EventCurrent1500, nil)
	wake <- struct{}{}

	want := []string{"attached", "vbus_on", "current_1500ma"}
	for i, w := range want {
		u := waitUpdate(t, updates)
		if u.Event != w {
			t.Errorf("update #%d event = %q, want %q", i, u.Event, w)
		}
		if u.PortID != "port0" {
			t.Errorf("update #%d port = %q, want %q", i, u.PortID, "port0")
		}
	}

	snap, ok := e.State("port0")
	if !ok {
		t.Fatal("State() not found")
	}
	if snap.Connection != ConnAttached || !snap.VBus || snap.Current != Current1A5 {
		t.Errorf("final state = %+v, want attached/vbus/1500ma", snap)
	}
	if snap.Events != 3 {
		t.Errorf("Events = %d, want 3", snap.Events)
	}
}

func TestEngineAlertErrorKeepsLoopAlive(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	updates := make(chan Update, 4)
	e.AddSink(SinkFunc(func(u Update) { updates <- u }))

	port := &fakePort{}
	wake := make(chan struct{})
	if err := e.Enable("port0", port, wake, NewPortState()); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	port.queue(EventNone, errors.New("bus timeout"))
	port.queue(EventTick, nil)

	wake <- struct{}{}
	wake <- struct{}{}

	u := waitUpdate(t, updates)
	if u.Event != "tick" {
		t.Errorf("event after failed alert = %q, want %q", u.Event, "tick")
	}
}

func TestEngineIdlesWhenWakeCloses(t *testing.T) {
	e := NewEngine()

	port := &fakePort{}
	wake := make(chan struct{})
	state := NewPortState()
	state.Apply(EventAttached, time.Now().UTC())
	if err := e.Enable("port0", port, wake, state); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	close(wake)

	// The port stays enabled with its state readable.
	snap, ok := e.State("port0")
	if !ok {
		t.Fatal("State() not found after wake close")
	}
	if snap.Connection != ConnAttached {
		t.Errorf("Connection = %v, want %v", snap.Connection, ConnAttached)
	}

	// Close must join the idled loop.
	done := make(chan struct{})
	go func() {
		e.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not return after wake channel closed")
	}
}

func TestEngineReplaceEnabledPort(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	updates := make(chan Update, 4)
	e.AddSink(SinkFunc(func(u Update) { updates <- u }))

	first := &fakePort{}
	wake1 := make(chan struct{})
	if err := e.Enable("port0", first, wake1, NewPortState()); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}

	second := &fakePort{}
	wake2 := make(chan struct{})
	if err := e.Enable("port0", second, wake2, NewPortState()); err != nil {
		t.Fatalf("Enable() replace error = %v", err)
	}

	second.queue(EventTick, nil)
	wake2 <- struct{}{}
	if u := waitUpdate(t, updates); u.Event != "tick" {
		t.Errorf("event = %q, want %q", u.Event, "tick")
	}
	if got := len(e.Ports()); got != 1 {
		t.Errorf("Ports() = %d entries, want 1", got)
	}
}

func TestEngineDisable(t *testing.T) {
	e := NewEngine()
	defer e.Close()

	if err := e.Enable("port0", &fakePort{}, make(chan struct{}), NewPortState()); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	e.Disable("port0")

	if _, ok := e.State("port0"); ok {
		t.Error("State() found port after Disable")
	}
}

func TestEngineCloseRejectsEnable(t *testing.T) {
	e := NewEngine()
	e.Close()

	err := e.Enable("port0", &fakePort{}, make(chan struct{}), NewPortState())
	if !errors.Is(err, ErrEngineClosed) {
		t.Errorf("Enable() after Close error = %v, want %v", err, ErrEngineClosed)
	}

	// Close is idempotent.
	e.Close()
}
