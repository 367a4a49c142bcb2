package account

import "testing"

func TestNewToken(t *testing.T) {
	token := NewToken()
	if len(token) != tokenBytes*2 {
		t.Errorf("token length = %d, want %d hex chars", len(token), tokenBytes*2)
	}

	// Not a uniqueness proof, just a sanity check on the entropy source.
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if seen[tok] {
			t.Fatalf("duplicate token issued: %s", tok)
		}
		seen[tok] = true
	}
}
