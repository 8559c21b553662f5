package model

import "time"

// SessionStatus is the state of the client-side session machine.
type SessionStatus string

const (
	StatusInitializing    SessionStatus = "INITIALIZING"
	StatusAuthenticated   SessionStatus = "AUTHENTICATED"
	StatusUnauthenticated SessionStatus = "UNAUTHENTICATED"
)

// SessionState is a read-only snapshot of the session controller.
type SessionState struct {
	Status  SessionStatus `json:"status"`
	User    *User         `json:"user,omitempty"`
	Loading bool          `json:"loading"`
}

// Authenticated reports whether a user is held.
func (s SessionState) Authenticated() bool {
	return s.User != nil
}

// LoginResult is the reply of a successful credential exchange.
type LoginResult struct {
	User         *User `json:"user"`
	ExpiresInSec int64 `json:"expiresInSec"`
}

// ExpiresAt converts the relative expiry into an absolute time.
// Returns the zero time when the backend did not send one.
func (r LoginResult) ExpiresAt(now time.Time) time.Time {
	if r.ExpiresInSec <= 0 {
		return time.Time{}
	}
	return now.Add(time.Duration(r.ExpiresInSec) * time.Second)
}

// AuthFailure is the signal raised when a request after startup is rejected
// as unauthenticated. Message is empty for a silent redirect.
type AuthFailure struct {
	Message string
	Code    ErrorCode
}
