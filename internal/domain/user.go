package domain

import "time"

// User is a lab member as seen by the meeting core: directory data plus
// the notification opt-out flag.
type User struct {
	ID                 int64
	Name               string
	Email              string
	IsAdmin            bool
	EmailNotifications bool
	CreatedAt          time.Time
}

// Group is a research group. Membership is resolved through the group
// repository, not embedded here.
type Group struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}
