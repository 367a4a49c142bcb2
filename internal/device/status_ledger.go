package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StatusLedger stores the append-only status history per device.
//
// The ledger is not exposed over HTTP for writes: the only external paths
// are the OFF seed at device creation and read-only queries. Append exists
// as the mutation primitive for internal use and test seeding.
type StatusLedger interface {
	// Append records a status event. Appends must be monotonic in
	// timestamp; an event earlier than the latest recorded one is
	// rejected with ErrTimestampOrder. Prior entries are never reordered
	// or removed.
	Append(ctx context.Context, uuid string, status Status, timestamp time.Time) error

	// Latest returns the most recent status event for a device.
	// Returns ErrHistoryNotFound if the uuid has no history.
	Latest(ctx context.Context, uuid string) (*StatusEvent, error)

	// History returns the full status history in insertion order.
	// Returns ErrHistoryNotFound if the uuid has no history.
	History(ctx context.Context, uuid string) ([]StatusEvent, error)

	// Purge deletes the entire history for a uuid. Device deletion uses
	// the schema cascade instead; Purge exists for fixture resets.
	Purge(ctx context.Context, uuid string) error
}

// SQLiteStatusLedger implements StatusLedger using SQLite.
// Insertion order is the autoincrement id, so History never depends on
// timestamp comparisons.
type SQLiteStatusLedger struct {
	db *sql.DB
}

// NewSQLiteStatusLedger creates a new SQLite-backed status ledger.
func NewSQLiteStatusLedger(db *sql.DB) *SQLiteStatusLedger {
	return &SQLiteStatusLedger{db: db}
}

// Append records a status event, enforcing timestamp monotonicity.
func (l *SQLiteStatusLedger) Append(ctx context.Context, uuid string, status Status, timestamp time.Time) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	latest, err := l.Latest(ctx, uuid)
	if err != nil && !errors.Is(err, ErrHistoryNotFound) {
		return err
	}
	if latest != nil && timestamp.Before(latest.Timestamp) {
		return ErrTimestampOrder
	}

	_, err = l.db.ExecContext(ctx,
		"INSERT INTO status_history (device_uuid, status, recorded_at) VALUES (?, ?, ?)",
		uuid, string(status), timestamp.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("appending status event: %w", err)
	}
	return nil
}

// Latest returns the most recently inserted status event for a device.
func (l *SQLiteStatusLedger) Latest(ctx context.Context, uuid string) (*StatusEvent, error) {
	var status, recordedAt string

	err := l.db.QueryRowContext(ctx,
		"SELECT status, recorded_at FROM status_history WHERE device_uuid = ? ORDER BY id DESC LIMIT 1",
		uuid,
	).Scan(&status, &recordedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHistoryNotFound
		}
		return nil, fmt.Errorf("querying latest status: %w", err)
	}

	event := &StatusEvent{Status: Status(status)}
	event.Timestamp, _ = time.Parse(time.RFC3339, recordedAt) //nolint:errcheck // format is controlled
	return event, nil
}

// History returns all status events for a device in insertion order.
func (l *SQLiteStatusLedger) History(ctx context.Context, uuid string) ([]StatusEvent, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT status, recorded_at FROM status_history WHERE device_uuid = ? ORDER BY id",
		uuid,
	)
	if err != nil {
		return nil, fmt.Errorf("querying status history: %w", err)
	}
	defer rows.Close()

	var events []StatusEvent
	for rows.Next() {
		var status, recordedAt string
		if err := rows.Scan(&status, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning status event: %w", err)
		}
		event := StatusEvent{Status: Status(status)}
		event.Timestamp, _ = time.Parse(time.RFC3339, recordedAt) //nolint:errcheck // format is controlled
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating status history: %w", err)
	}

	if len(events) == 0 {
		return nil, ErrHistoryNotFound
	}
	return events, nil
}

// Purge deletes the entire history for a uuid.
func (l *SQLiteStatusLedger) Purge(ctx context.Context, uuid string) error {
	if _, err := l.db.ExecContext(ctx,
		"DELETE FROM status_history WHERE device_uuid = ?", uuid,
	); err != nil {
		return fmt.Errorf("purging status history: %w", err)
	}
	return nil
}
