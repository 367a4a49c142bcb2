package device

import "time"

// Status is the ON/OFF state reported for a device.
type Status string

const (
	StatusOn  Status = "ON"
	StatusOff Status = "OFF"
)

// IsValid reports whether s is a recognised status value.
func (s Status) IsValid() bool {
	return s == StatusOn || s == StatusOff
}

// Device represents a registered physical or virtual entity.
type Device struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"ownerEmail"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatusEvent is a single entry in a device's status history.
type StatusEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
}

// Summary is the listing shape for a device: its identity plus the most
// recent status event.
type Summary struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	LastChange time.Time `json:"lastChange"`
}
