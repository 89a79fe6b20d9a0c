package fusb302

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// defaultPollInterval is how often the interrupt worker samples the
// interrupt line when one is wired.
const defaultPollInterval = 10 * time.Millisecond

// IntPoller samples the chip's interrupt line.
type IntPoller interface {
	IntAsserted() (bool, error)
}

// ChipWorkers runs the per-chip worker pair: an interrupt worker that
// samples the interrupt line and a state worker that turns queued work
// into protocol-core wakes. The run state lives on the chip; this type
// holds the shared configuration.
type ChipWorkers struct {
	logger   Logger
	interval time.Duration

	mu      sync.Mutex
	pollers map[string]IntPoller
}

// NewChipWorkers creates the workers collaborator. An interval of zero or
// less selects the default poll interval.
func NewChipWorkers(interval time.Duration) *ChipWorkers {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &ChipWorkers{
		logger:   noopLogger{},
		interval: interval,
		pollers:  make(map[string]IntPoller),
	}
}

// SetLogger sets the logger for the workers.
func (w *ChipWorkers) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	w.logger = logger
}

// AddPoller associates an interrupt poller with a device name. Devices
// without a poller run timer-driven only.
func (w *ChipWorkers) AddPoller(device string, p IntPoller) {
	if p == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pollers[device] = p
}

func (w *ChipWorkers) pollerFor(device string) IntPoller {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pollers[device]
}

// Setup implements Workers. It prepares the work queue and stop channel
// without starting anything.
func (w *ChipWorkers) Setup(chip *Chip) {
	chip.work = make(chan struct{}, 1)
	chip.workersDone = make(chan struct{})
}

// Start implements Workers. It runs the prepared workers and queues the
// first work item so the core services whatever state the chip booted
// with.
func (w *ChipWorkers) Start(chip *Chip) {
	if chip.work == nil {
		w.logger.Warn("worker start without setup", "chip", chip.id)
		return
	}

	chip.workersWg.Add(1)
	go w.stateWorker(chip)

	var poller IntPoller
	if dev := chip.Device(); dev != nil {
		poller = w.pollerFor(dev.Name())
	}
	if poller != nil {
		chip.workersWg.Add(1)
		go w.interruptWorker(chip, poller)
	}

	chip.workersActive.Store(true)
	chip.queueWork()
}

// Stop implements Workers. It signals the workers and joins them, bounded
// by the context deadline. Safe when setup or start never ran.
func (w *ChipWorkers) Stop(ctx context.Context, chip *Chip) error {
	if chip.workersDone == nil {
		return nil
	}
	chip.workersOnce.Do(func() {
		close(chip.workersDone)
	})

	done := make(chan struct{})
	go func() {
		chip.workersWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		chip.workersActive.Store(false)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("joining workers: %w", ctx.Err())
	}
}

// stateWorker forwards queued work items to the protocol core as wakes.
func (w *ChipWorkers) stateWorker(chip *Chip) {
	defer chip.workersWg.Done()
	for {
		select {
		case <-chip.workersDone:
			return
		case <-chip.work:
			chip.Wake()
		}
	}
}

// interruptWorker samples the interrupt line and queues work while it is
// asserted.
func (w *ChipWorkers) interruptWorker(chip *Chip, poller IntPoller) {
	defer chip.workersWg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	reported := false
	for {
		select {
		case <-chip.workersDone:
			return
		case <-ticker.C:
			asserted, err := poller.IntAsserted()
			if err != nil {
				if !reported {
					w.logger.Warn("interrupt line read failed", "chip", chip.id, "error", err)
					reported = true
				}
				continue
			}
			reported = false
			if asserted {
				chip.queueWork()
			}
		}
	}
}
