package domain

import (
	"fmt"
	"strings"
	"time"
)

// RSVP is a user's recorded intent for a meeting.
type RSVP string

const (
	RSVPJoin     RSVP = "join"
	RSVPWontJoin RSVP = "wont_join"
)

func (r RSVP) String() string { return string(r) }

func (r RSVP) IsValid() bool {
	switch r {
	case RSVPJoin, RSVPWontJoin:
		return true
	}
	return false
}

func ParseRSVPFromString(s string) (RSVP, error) {
	r := RSVP(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("%w: invalid response %q", ErrValidation, s)
	}
	return r, nil
}

// MeetingResponse records one user's RSVP for one meeting. At most one
// row exists per (MeetingID, UserID); repeat submissions overwrite.
type MeetingResponse struct {
	ID        int64
	MeetingID int64
	UserID    int64
	Response  RSVP
	CreatedAt time.Time

	// Resolved for display, never persisted.
	UserName string
}
