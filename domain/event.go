package domain

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Event backs one chat room. AllowedPhones is the allow-list of phone
// numbers permitted to send into the room; an empty list means the event is
// open to every sender.
type Event struct {
	ID            string
	Name          string
	Description   string
	Image         string
	Live          bool
	AllowedPhones []string
	CreatedAt     time.Time
}

// Room returns the id of the room this event backs.
func (e Event) Room() RoomID {
	return RoomID(e.ID)
}

// NormalizePhones trims entries, drops empty ones, and dedupes while keeping
// first-seen order. Every allow-list reaching storage goes through this.
func NormalizePhones(phones []string) []string {
	trimmed := lo.FilterMap(phones, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	return lo.Uniq(trimmed)
}
