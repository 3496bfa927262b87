package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReason_MapsWrappedErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"user not found", fmt.Errorf("lookup: %w", ErrUserNotFound), "User not found"},
		{"event not found", fmt.Errorf("lookup: %w", ErrEventNotFound), "Event not found"},
		{"invalid identifier", fmt.Errorf("id: %w", ErrInvalidIdentifier), "Invalid event ID format"},
		{"forbidden", ErrForbidden, "Your phone number is not authorized to send messages in this event"},
		{"storage", fmt.Errorf("disk: %w", ErrStorage), "Failed to save message"},
		{"malformed", ErrMalformedSubmission, "Missing required message data"},
		{"anything else", fmt.Errorf("boom"), "Server error processing message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Reason(tt.err))
		})
	}
}

func TestSentinels_NotFoundHierarchy(t *testing.T) {
	req := require.New(t)
	req.ErrorIs(ErrUserNotFound, ErrNotFound)
	req.ErrorIs(ErrEventNotFound, ErrNotFound)
	req.NotErrorIs(ErrUserNotFound, ErrEventNotFound)
}
