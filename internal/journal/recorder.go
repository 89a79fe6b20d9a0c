package journal

import (
	"context"
	"time"

	"github.com/nerrad567/typec-core/internal/hostbus"
	"github.com/nerrad567/typec-core/internal/infrastructure/logging"
	"github.com/nerrad567/typec-core/internal/typec"
)

// recordTimeout bounds a single journal insert.
const recordTimeout = 5 * time.Second

// Recorder turns bus notifications and engine updates into journal rows.
type Recorder struct {
	repo   Repository
	logger *logging.Logger
}

// NewRecorder creates a recorder writing through repo.
func NewRecorder(repo Repository, logger *logging.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger.With("component", "journal"),
	}
}

// Lifecycle returns a bus notifier recording lifecycle transitions.
func (r *Recorder) Lifecycle() hostbus.Notifier {
	return func(n hostbus.Notification) {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()

		entry := &Entry{
			Port:       n.Device.Name,
			Action:     string(n.Action),
			Driver:     n.Driver,
			Errno:      n.Errno,
			Error:      n.Err,
			DurationMS: n.Duration.Milliseconds(),
		}
		if err := r.repo.Create(ctx, entry); err != nil {
			r.logger.Warn("recording lifecycle event",
				"port", entry.Port,
				"action", entry.Action,
				"error", err,
			)
		}
	}
}

// PortUpdate implements typec.Sink, recording each applied event.
func (r *Recorder) PortUpdate(u typec.Update) {
	// Ticks only confirm liveness; they are not state changes worth a row.
	if u.Event == typec.EventTick.String() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	rec := &StateRecord{
		Port:        u.PortID,
		Event:       u.Event,
		Connection:  string(u.State.Connection),
		Orientation: string(u.State.Orientation),
		Current:     string(u.State.Current),
		VBus:        u.State.VBus,
		CreatedAt:   u.Time,
	}
	if err := r.repo.RecordState(ctx, rec); err != nil {
		r.logger.Warn("recording state change",
			"port", rec.Port,
			"event", rec.Event,
			"error", err,
		)
	}
}
