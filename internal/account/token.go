package account

import (
	"crypto/rand"
	"encoding/hex"
)

// tokenBytes is the number of random bytes in a session token.
const tokenBytes = 16

// NewToken issues an opaque session token.
//
// The token is a random hex string: unguessable in practice but carries no
// claims, no signature, and no expiry. It is stored raw on the user row and
// looked up verbatim — adequate for a mock, nothing more.
func NewToken() string {
	b := make([]byte, tokenBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}
