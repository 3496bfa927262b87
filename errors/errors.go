package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Submission taxonomy. Every inbound chat submission terminates with a
	// room broadcast or exactly one of these, reported to the sender only.
	ErrMalformedSubmission = fmt.Errorf("malformed submission")
	ErrInvalidIdentifier   = fmt.Errorf("invalid identifier")
	ErrNotFound            = fmt.Errorf("not found")
	ErrForbidden           = fmt.Errorf("forbidden")
	ErrStorage             = fmt.Errorf("storage failure")

	ErrUserNotFound  = fmt.Errorf("user: %w", ErrNotFound)
	ErrEventNotFound = fmt.Errorf("event: %w", ErrNotFound)

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrEventAlreadyExists = fmt.Errorf("event already exists")
)

// Reason converts an internal error into the message reported back to the
// submitting connection. Internal details (storage errors notably) never
// cross the wire.
func Reason(err error) string {
	switch {
	case stderrors.Is(err, ErrUserNotFound):
		return "User not found"
	case stderrors.Is(err, ErrEventNotFound):
		return "Event not found"
	case stderrors.Is(err, ErrInvalidIdentifier):
		return "Invalid event ID format"
	case stderrors.Is(err, ErrForbidden):
		return "Your phone number is not authorized to send messages in this event"
	case stderrors.Is(err, ErrStorage):
		return "Failed to save message"
	case stderrors.Is(err, ErrMalformedSubmission):
		return "Missing required message data"
	default:
		return "Server error processing message"
	}
}
