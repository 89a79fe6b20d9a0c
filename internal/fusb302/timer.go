package fusb302

import (
	"context"
	"fmt"
	"time"
)

// defaultTickInterval drives the periodic service tick when no interval
// is configured.
const defaultTickInterval = time.Second

// TickTimer feeds the state worker a periodic service item, so the core
// keeps servicing the chip even without a wired interrupt line.
type TickTimer struct {
	interval time.Duration
}

// NewTickTimer creates the timer collaborator. An interval of zero or
// less selects the default tick interval.
func NewTickTimer(interval time.Duration) *TickTimer {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &TickTimer{interval: interval}
}

// Start implements Timer.
func (t *TickTimer) Start(chip *Chip) {
	chip.timerDone = make(chan struct{})
	chip.timerWg.Add(1)
	go func() {
		defer chip.timerWg.Done()
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-chip.timerDone:
				return
			case <-ticker.C:
				chip.queueWork()
			}
		}
	}()
	chip.timerActive.Store(true)
}

// Stop implements Timer. It signals the tick goroutine and joins it,
// bounded by the context deadline. Safe when the timer never started.
func (t *TickTimer) Stop(ctx context.Context, chip *Chip) error {
	if chip.timerDone == nil {
		return nil
	}
	chip.timerOnce.Do(func() {
		close(chip.timerDone)
	})

	done := make(chan struct{})
	go func() {
		chip.timerWg.Wait()
		close(done)
	}()
	select {
	case <-done:
		chip.timerActive.Store(false)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("joining timer: %w", ctx.Err())
	}
}
