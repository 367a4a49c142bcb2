package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device registry operations.
type Repository interface {
	// Create registers a new device and seeds its status history with a
	// single OFF event, atomically. Returns ErrDeviceExists when the uuid
	// is already registered; the existing device is left untouched.
	Create(ctx context.Context, dev *Device) error

	// GetByUUID retrieves a device by its unique identifier.
	// Returns ErrDeviceNotFound if the device does not exist.
	GetByUUID(ctx context.Context, uuid string) (*Device, error)

	// ListByOwner retrieves all devices owned by an email, in insertion order.
	ListByOwner(ctx context.Context, ownerEmail string) ([]Device, error)

	// Delete removes a device and its entire status history atomically.
	// Returns ErrDeviceNotFound if the device does not exist.
	Delete(ctx context.Context, uuid string) error
}

// SQLiteRepository implements Repository using SQLite.
//
// The status_history table declares ON DELETE CASCADE on its device
// reference, so Delete removes device and history in one statement —
// there is no window where one exists without the other.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed device repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create registers a device and seeds its history inside one transaction.
func (r *SQLiteRepository) Create(ctx context.Context, dev *Device) error {
	now := time.Now().UTC().Truncate(time.Second)
	dev.CreatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning device transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		"INSERT INTO devices (uuid, name, owner_email, created_at) VALUES (?, ?, ?, ?)",
		dev.UUID, dev.Name, dev.OwnerEmail, now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("creating device: %w", err)
	}

	// Seed history so the device is never observable without one.
	_, err = tx.ExecContext(ctx,
		"INSERT INTO status_history (device_uuid, status, recorded_at) VALUES (?, ?, ?)",
		dev.UUID, string(StatusOff), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("seeding status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing device creation: %w", err)
	}
	return nil
}

// GetByUUID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByUUID(ctx context.Context, uuid string) (*Device, error) {
	var d Device
	var createdAt string

	err := r.db.QueryRowContext(ctx,
		"SELECT uuid, name, owner_email, created_at FROM devices WHERE uuid = ?",
		uuid,
	).Scan(&d.UUID, &d.Name, &d.OwnerEmail, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device: %w", err)
	}

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &d, nil
}

// ListByOwner retrieves all devices owned by an email, oldest first.
func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT uuid, name, owner_email, created_at FROM devices WHERE owner_email = ? ORDER BY rowid",
		ownerEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		var d Device
		var createdAt string
		if err := rows.Scan(&d.UUID, &d.Name, &d.OwnerEmail, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	return devices, nil
}

// Delete removes a device; the history cascade makes it atomic.
func (r *SQLiteRepository) Delete(ctx context.Context, uuid string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
