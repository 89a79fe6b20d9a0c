package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// StateRecord is one observed port state change.
type StateRecord struct {
	Port        string    `json:"port"`
	Event       string    `json:"event"`
	Connection  string    `json:"connection"`
	Orientation string    `json:"orientation"`
	Current     string    `json:"current"`
	VBus        bool      `json:"vbus"`
	CreatedAt   time.Time `json:"created_at"`
}

// HistoryFilter controls which state records History returns.
type HistoryFilter struct {
	Port   string // optional: filter by port name
	Event  string // optional: filter by event name
	Limit  int    // default 50, max 200
	Offset int    // pagination offset
}

// HistoryResult contains one page of state records.
type HistoryResult struct {
	Records []StateRecord `json:"records"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// RecordState inserts a state change row. CreatedAt defaults to now.
func (r *SQLiteRepository) RecordState(ctx context.Context, rec *StateRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO port_state_history (port, event, connection, orientation, current, vbus, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Port, rec.Event, rec.Connection, rec.Orientation, rec.Current,
		boolToInt(rec.VBus),
		rec.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting state record: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// History returns state records matching the filter, most recent first.
// Rows inserted in the same second keep their insertion order.
func (r *SQLiteRepository) History(ctx context.Context, filter HistoryFilter) (*HistoryResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Port != "" {
		conditions = append(conditions, "port = ?")
		args = append(args, filter.Port)
	}
	if filter.Event != "" {
		conditions = append(conditions, "event = ?")
		args = append(args, filter.Event)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM port_state_history %s", where)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting state records: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT port, event, connection, orientation, current, vbus, created_at FROM port_state_history %s ORDER BY id DESC LIMIT ? OFFSET ?",
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying state history: %w", err)
	}
	defer rows.Close()

	var records []StateRecord
	for rows.Next() {
		var rec StateRecord
		var vbus int
		var createdAt string

		if err := rows.Scan(&rec.Port, &rec.Event, &rec.Connection, &rec.Orientation, &rec.Current, &vbus, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state record: %w", err)
		}
		rec.VBus = vbus != 0

		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing state record timestamp %q: %w", createdAt, err)
		}
		rec.CreatedAt = t

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state history: %w", err)
	}
	if records == nil {
		records = []StateRecord{}
	}

	return &HistoryResult{
		Records: records,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
