package domain

import (
	"fmt"
	"strings"
	"time"
)

// Accepted wall-clock layouts for Meeting.MeetingTime, tried in order.
// The stored value is naive; the lab timezone is attached only at the
// calendar export boundary.
var MeetingTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseMeetingTime parses a stored meeting time against the accepted
// layouts. The returned time carries no zone information beyond its
// wall-clock components.
func ParseMeetingTime(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range MeetingTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable meeting time %q", ErrValidation, value)
}

// Meeting is the core domain entity for a scheduled lab meeting.
type Meeting struct {
	ID          int64
	Title       string
	Description string
	// MeetingTime is a naive wall-clock timestamp in one of the
	// accepted layouts, interpreted in the configured lab timezone.
	MeetingTime string
	CreatedBy   int64
	GroupID     *int64
	IsPrivate   bool
	Tags        []string
	Summary     string
	CreatedAt   time.Time

	// Display fields resolved by read paths, never persisted.
	CreatorName string
	GroupName   string
}

func (m *Meeting) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if _, err := ParseMeetingTime(m.MeetingTime); err != nil {
		return err
	}
	for _, tag := range m.Tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: empty tag", ErrValidation)
		}
	}
	return nil
}

// MeetingUpdate carries the mutable fields of an update request. Nil
// means "leave unchanged".
type MeetingUpdate struct {
	Title       *string
	Description *string
	MeetingTime *string
	GroupID     *int64
	ClearGroup  bool
	IsPrivate   *bool
	Tags        []string
	Summary     *string
}
