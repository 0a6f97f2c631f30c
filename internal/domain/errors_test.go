package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsAreDistinguishable(t *testing.T) {
	// The router's failure seam picks the outbound reply with errors.As;
	// each kind must survive wrapping.
	var vErr *ValidationError
	var aErr *AuthError
	var rErr *RoomError

	wrapped := fmt.Errorf("handling login: %w", &ValidationError{Reason: "display name is required"})
	assert.True(t, errors.As(wrapped, &vErr))
	assert.Equal(t, "display name is required", vErr.Reason)

	wrapped = fmt.Errorf("handling adminLogin: %w", &AuthError{Reason: "invalid credentials"})
	assert.True(t, errors.As(wrapped, &aErr))

	wrapped = fmt.Errorf("handling joinRoom: %w", &RoomError{Reason: "already in room", Room: "team"})
	assert.True(t, errors.As(wrapped, &rErr))
	assert.Equal(t, "team", rErr.Room)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation: empty", (&ValidationError{Reason: "empty"}).Error())
	assert.Equal(t, "auth: denied", (&AuthError{Reason: "denied"}).Error())
	assert.Equal(t, "room: not in room", (&RoomError{Reason: "not in room"}).Error())
	assert.Equal(t, `room "team": not in room`, (&RoomError{Reason: "not in room", Room: "team"}).Error())
}

func TestSilentDropSentinels(t *testing.T) {
	// These two are never reported to the caller, so they must not be
	// confusable with the reported registry sentinels.
	for _, err := range []error{ErrNotAuthenticated, ErrNotAuthorized} {
		assert.False(t, errors.Is(err, ErrNoSession))
		assert.False(t, errors.Is(err, ErrNotSubscribed))
	}
}
