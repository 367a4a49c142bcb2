package account

import "time"

// User represents a registered account.
//
// Password carries `json:"-"` so no handler can ever serialise it,
// regardless of how the struct reaches the response writer.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Gender    string    `json:"gender"`
	Email     string    `json:"email"`
	Password  string    `json:"-"` // never serialised
	Token     string    `json:"token"`
	Avatar    string    `json:"avatar,omitempty"`
	TimeZone  string    `json:"timeZone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileUpdate carries the optional fields of a profile update.
// Empty fields leave the stored value unchanged.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Gender    string
	TimeZone  string
}
