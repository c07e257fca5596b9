package domain

import "time"

// AuthEventKind classifies an entry of the authentication audit trail.
type AuthEventKind string

const (
	EventSignup       AuthEventKind = "signup"
	EventSignin       AuthEventKind = "signin"
	EventSigninFailed AuthEventKind = "signin_failed"
)

// AuthEvent records a registration or sign-in attempt.
type AuthEvent struct {
	Kind       AuthEventKind
	UserID     string // empty for failed sign-ins against unknown emails
	Email      string
	RemoteIP   string
	OccurredAt time.Time
}
