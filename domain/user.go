package domain

import "time"

// User is a directory entry consumed by the relay. The phone number uniquely
// identifies a user and is what the allow-list is matched against.
type User struct {
	ID        string
	Name      string
	Phone     string
	Organizer bool
	CreatedAt time.Time
}
