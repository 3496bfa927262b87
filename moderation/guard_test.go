package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"event-chat/domain"
	"event-chat/errors"
)

func TestGuard_CanSend(t *testing.T) {
	guard := NewGuard(0)

	tests := []struct {
		name    string
		allowed []string
		phone   string
		want    bool
	}{
		{"empty allow-list is open", nil, "5551234567", true},
		{"empty allow-list accepts empty phone", nil, "", true},
		{"matching phone is allowed", []string{"5551234567", "5550000001"}, "5551234567", true},
		{"non-matching phone is rejected", []string{"5551234567"}, "5559876543", false},
		{"empty phone is rejected against a non-empty list", []string{"5551234567"}, "", false},
		{"match is exact, not normalized", []string{"5551234567"}, "555-123-4567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			evt := domain.Event{ID: "e", AllowedPhones: tt.allowed}
			req.Equal(tt.want, guard.CanSend(evt, tt.phone))
		})
	}
}

func TestGuard_NormalizeBody_Trims(t *testing.T) {
	req := require.New(t)
	guard := NewGuard(0)

	body, err := guard.NormalizeBody("  hello world \n")

	req.NoError(err)
	req.Equal("hello world", body)
}

func TestGuard_NormalizeBody_RejectsEmpty(t *testing.T) {
	req := require.New(t)
	guard := NewGuard(0)

	_, err := guard.NormalizeBody("   \t ")

	req.ErrorIs(err, errors.ErrMalformedSubmission)
}

func TestGuard_NormalizeBody_RejectsOversized(t *testing.T) {
	req := require.New(t)
	guard := NewGuard(10)

	// 11 runes, multibyte on purpose so the limit counts runes, not bytes.
	_, err := guard.NormalizeBody(strings.Repeat("é", 11))

	req.ErrorIs(err, errors.ErrMalformedSubmission)

	body, err := guard.NormalizeBody(strings.Repeat("é", 10))
	req.NoError(err)
	req.Len([]rune(body), 10)
}
