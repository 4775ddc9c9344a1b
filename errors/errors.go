// Package errors defines the sentinel errors shared across the chat system
// and their translation into the stable reason codes carried by chatError
// events on the wire.
package errors

import (
	"errors"
	"fmt"
)

var (
	// Chat protocol errors, surfaced to clients as chatError events.
	ErrNotAuthenticated   = fmt.Errorf("connection has not joined a room yet")
	ErrRoomMismatch       = fmt.Errorf("claimed room does not match the registered room")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrHistoryUnavailable = fmt.Errorf("message history unavailable")
	ErrSendFailed         = fmt.Errorf("message could not be stored")

	// Registry errors. ErrNotRegistered is a server-side invariant violation:
	// it is logged and the offending connection is reset, never echoed raw.
	ErrNotRegistered = fmt.Errorf("connection is not registered")
	ErrNotFound      = fmt.Errorf("not found")

	// Account errors.
	ErrUserAlreadyExists  = fmt.Errorf("username already taken")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// ErrWorkerPanic is returned by the supervisor recovery wrapper when a
	// supervised worker panics, triggering a restart.
	ErrWorkerPanic = fmt.Errorf("worker panicked")
)

// Reason codes are part of the wire protocol and must stay stable.
const (
	ReasonNotAuthenticated   = "NotAuthenticated"
	ReasonRoomMismatch       = "RoomMismatch"
	ReasonInvalidInput       = "InvalidInput"
	ReasonHistoryUnavailable = "HistoryUnavailable"
	ReasonSendFailed         = "SendFailed"
	ReasonInternal           = "Internal"
)

// Is re-exports the standard sentinel check so callers never need two
// errors imports side by side.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Reason maps an error to the chatError reason code sent to clients.
// Unknown errors collapse to ReasonInternal so that store or transport
// failures never leak implementation detail to the wire.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return ReasonNotAuthenticated
	case errors.Is(err, ErrRoomMismatch):
		return ReasonRoomMismatch
	case errors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case errors.Is(err, ErrHistoryUnavailable):
		return ReasonHistoryUnavailable
	case errors.Is(err, ErrSendFailed):
		return ReasonSendFailed
	default:
		return ReasonInternal
	}
}
