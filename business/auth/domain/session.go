// Package domain holds the values exchanged during wallet login.
package domain

import "time"

// Challenge is the message the backend asks the wallet to sign.
type Challenge struct {
	Message string
	Nonce   string
}

// LoginRequest proves control of Address by carrying its signature over a
// challenge.
type LoginRequest struct {
	Address   string
	Network   string
	Nonce     string
	Signature string
}

// Session is an authenticated session. A zero ExpiresAt never expires.
type Session struct {
	Token     string
	Address   string
	ExpiresAt time.Time
}

// ValidAt reports whether the session can still be used at t with margin to
// spare.
func (s *Session) ValidAt(t time.Time, margin time.Duration) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if s.ExpiresAt.IsZero() {
		return true
	}
	return t.Add(margin).Before(s.ExpiresAt)
}
