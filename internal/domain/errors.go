package domain

import (
	"errors"
	"fmt"
)

// Registry-level failures. The router maps these onto outbound error events
// or silent drops; none of them leaves partially-mutated state behind.
var (
	ErrNoSession         = errors.New("no session for connection handle")
	ErrAlreadySubscribed = errors.New("already subscribed to room")
	ErrNotSubscribed     = errors.New("not subscribed to room")
	ErrForbidden         = errors.New("cannot unsubscribe from the notifications room")
)

// Policy failures that are deliberately never reported to the caller, so
// that capability gates are not discoverable by probing.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotAuthorized    = errors.New("not authorized")
)

// ValidationError marks malformed or empty input. Reported to the caller,
// no state change.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// AuthError marks rejected admin credentials. The reason never distinguishes
// a bad username from a bad password.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth: %s", e.Reason)
}

// RoomError marks a room policy violation: duplicate subscribe, leaving the
// notifications room, or acting on a room the caller is not in.
type RoomError struct {
	Reason string
	Room   string
}

func (e *RoomError) Error() string {
	if e.Room == "" {
		return fmt.Sprintf("room: %s", e.Reason)
	}
	return fmt.Sprintf("room %q: %s", e.Room, e.Reason)
}
