package typec

import (
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Port is the hardware-facing contract the engine drives. Implementations
// own the register-level detail; the engine only sees events.
type Port interface {
	// Init brings the hardware to a known initial state. Called once when
	// the port is enabled.
	Init() error

	// Alert checks hardware status and returns the set of pending events.
	// Called on every wake. Events generated between wakes must be cached
	// and returned on the next call.
	Alert() (Event, error)
}

// Update is fanned out to sinks after each applied event.
type Update struct {
	PortID string    `json:"port_id"`
	Event  string    `json:"event"`
	State  Snapshot  `json:"state"`
	Time   time.Time `json:"time"`
}

// Sink receives port updates. Sinks run on the port's service goroutine;
// a slow sink delays event processing for that port.
type Sink interface {
	PortUpdate(Update)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Update)

// PortUpdate calls f(u).
func (f SinkFunc) PortUpdate(u Update) { f(u) }

// Engine services enabled ports. Each port gets one goroutine that blocks
// on the port's wake channel, asks the port for pending events and folds
// them into the port's state, publishing every applied event to the sinks.
//
// The engine outlives the ports' drivers. When a driver goes away its
// workers stop feeding the wake channel and the port loop simply idles;
// the port stays enabled with its last state until the engine closes.
type Engine struct {
	logger Logger

	mu     sync.Mutex
	ports  map[string]*portRun
	sinks  []Sink
	closed bool

	wg sync.WaitGroup
}

type portRun struct {
	id    string
	port  Port
	state *PortState
	wake  <-chan struct{}
	stop  chan struct{}
}

// NewEngine creates an engine with no ports and no sinks.
func NewEngine() *Engine {
	return &Engine{
		logger: noopLogger{},
		ports:  make(map[string]*portRun),
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	e.logger = logger
}

// AddSink registers a sink for port updates.
func (e *Engine) AddSink(s Sink) {
	if s == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Enable initializes the port hardware and starts its service loop. Wakes
// arriving on the wake channel trigger an Alert round; closing the wake
// channel leaves the port enabled but idle. Enabling an id that is already
// enabled replaces the previous loop.
func (e *Engine) Enable(id string, port Port, wake <-chan struct{}, state *PortState) error {
	if port == nil {
		return ErrNilPort
	}
	if wake == nil {
		return ErrNilWake
	}
	if state == nil {
		return ErrNilState
	}

	if err := port.Init(); err != nil {
		return fmt.Errorf("initializing port %q: %w", id, err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	if prev, ok := e.ports[id]; ok {
		e.logger.Warn("port already enabled, replacing", "port", id)
		close(prev.stop)
	}
	run := &portRun{
		id:    id,
		port:  port,
		state: state,
		wake:  wake,
		stop:  make(chan struct{}),
	}
	e.ports[id] = run
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(run)

	e.logger.Info("port enabled", "port", id)
	return nil
}

// Disable stops the named port's service loop and forgets the port.
func (e *Engine) Disable(id string) {
	e.mu.Lock()
	run, ok := e.ports[id]
	if ok {
		delete(e.ports, id)
		close(run.stop)
	}
	e.mu.Unlock()
	if ok {
		e.logger.Info("port disabled", "port", id)
	}
}

// State returns the current snapshot for the named port.
func (e *Engine) State(id string) (Snapshot, bool) {
	e.mu.Lock()
	run, ok := e.ports[id]
	e.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return run.state.Snapshot(), true
}

// Ports returns the ids of all enabled ports.
func (e *Engine) Ports() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.ports))
	for id := range e.ports {
		ids = append(ids, id)
	}
	return ids
}

// Close stops all port loops and waits for them to exit. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	for id, run := range e.ports {
		close(run.stop)
		delete(e.ports, id)
	}
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("engine stopped")
}

func (e *Engine) run(p *portRun) {
	defer e.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case _, ok := <-p.wake:
			if !ok {
				// Wake source gone. A nil channel blocks forever, so the
				// loop idles until stopped.
				e.logger.Debug("wake channel closed", "port", p.id)
				p.wake = nil
				continue
			}
			e.service(p)
		}
	}
}

// service runs one Alert round and applies the returned events in priority
// order.
func (e *Engine) service(p *portRun) {
	events, err := p.port.Alert()
	if err != nil {
		e.logger.Warn("port alert failed", "port", p.id, "error", err)
		return
	}

	now := time.Now().UTC()
	for ev := events.Pop(); ev != EventNone; ev = events.Pop() {
		snap := p.state.Apply(ev, now)
		e.publish(Update{PortID: p.id, Event: ev.String(), State: snap, Time: now})
	}
}

func (e *Engine) publish(u Update) {
	e.mu.Lock()
	sinks := append([]Sink(nil), e.sinks...)
	e.mu.Unlock()

	for _, s := range sinks {
		s.PortUpdate(u)
	}
}
