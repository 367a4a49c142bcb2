package device

import "errors"

// Domain errors for the device package, checked with errors.Is().
var (
	// ErrDeviceNotFound is returned when a device uuid does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when registering a uuid that already
	// exists. Callers treat it as idempotent success: the existing device
	// keeps its owner and history.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrHistoryNotFound is returned when no status history exists for a uuid.
	ErrHistoryNotFound = errors.New("device: history not found")

	// ErrTimestampOrder is returned when an append would place an event
	// before the latest recorded one.
	ErrTimestampOrder = errors.New("device: status timestamp predates history")

	// ErrInvalidStatus is returned when a status value is not ON or OFF.
	ErrInvalidStatus = errors.New("device: invalid status")
)
