// Package moderation decides whether a sender may post into an event and
// normalizes message bodies before they reach storage.
package moderation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"event-chat/domain"
	"event-chat/errors"
)

// DefaultMaxBodyLength bounds a message body in runes. 2000 keeps a single
// message well under the transport read limit.
const DefaultMaxBodyLength = 2000

// Guard evaluates the allow-list policy of an event. The event is loaded
// fresh from the directory for every submission, so an organizer editing the
// allow-list takes effect on the next message.
type Guard struct {
	maxBodyLength int
}

func NewGuard(maxBodyLength int) Guard {
	if maxBodyLength <= 0 {
		maxBodyLength = DefaultMaxBodyLength
	}
	return Guard{maxBodyLength: maxBodyLength}
}

// CanSend reports whether the sender's phone number is authorized for the
// event. An empty allow-list means the event is open. Otherwise the phone
// must be a non-empty exact match against one of the entries.
func (g Guard) CanSend(evt domain.Event, phone string) bool {
	if len(evt.AllowedPhones) == 0 {
		return true
	}
	if phone == "" {
		return false
	}
	for _, allowed := range evt.AllowedPhones {
		if allowed == phone {
			return true
		}
	}
	return false
}

// NormalizeBody trims the submitted body and enforces the length policy.
// An empty or oversized body is a malformed submission, not a storage
// concern.
func (g Guard) NormalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("empty body: %w", errors.ErrMalformedSubmission)
	}
	if utf8.RuneCountInString(body) > g.maxBodyLength {
		return "", fmt.Errorf("body exceeds %d characters: %w", g.maxBodyLength, errors.ErrMalformedSubmission)
	}
	return body, nil
}
