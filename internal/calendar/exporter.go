// Package calendar turns a meeting's naive wall-clock time into
// UTC-normalized calendar artifacts: an RFC 5545 VEVENT and provider
// deep links. Export is advisory: any failure degrades the output
// instead of propagating.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labmanhq/labman/internal/domain"
	"go.uber.org/zap"
)

const (
	icsTimeLayout     = "20060102T150405Z"
	outlookTimeLayout = "2006-01-02T15:04:05Z"

	// placeholderLink is returned when export degrades; the UI renders
	// it as a dead link rather than failing the whole read.
	placeholderLink = "#"

	eventDuration = time.Hour
)

// Export holds the calendar artifacts for one meeting. ICS is nil when
// export degraded.
type Export struct {
	ICS        *string
	GoogleURL  string
	OutlookURL string
}

type Exporter struct {
	timezone string
	logger   *zap.Logger
	now      func() time.Time
	newUUID  func() string
}

// NewExporter builds an exporter for the lab's IANA timezone. The zone
// is resolved per export so a bad name degrades output without taking
// the process down.
func NewExporter(timezone string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Exporter{
		timezone: strings.TrimSpace(timezone),
		logger:   logger,
		now:      time.Now,
		newUUID:  uuid.NewString,
	}
}

func (e *Exporter) Export(meeting *domain.Meeting) Export {
	start, end, err := e.utcWindow(meeting.MeetingTime)
	if err != nil {
		e.logger.Warn("calendar export degraded",
			zap.Int64("meetingId", meeting.ID),
			zap.String("meetingTime", meeting.MeetingTime),
			zap.Error(err),
		)
		return Export{GoogleURL: placeholderLink, OutlookURL: placeholderLink}
	}

	ics := e.renderICS(meeting, start, end)
	return Export{
		ICS:        &ics,
		GoogleURL:  googleLink(meeting, start, end),
		OutlookURL: outlookLink(meeting, start, end),
	}
}

// utcWindow interprets the naive timestamp as wall-clock time in the
// lab zone and returns the UTC start and the fixed one-hour end.
func (e *Exporter) utcWindow(meetingTime string) (time.Time, time.Time, error) {
	naive, err := domain.ParseMeetingTime(meetingTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	loc, err := time.LoadLocation(e.timezone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad lab timezone %q: %w", e.timezone, err)
	}

	local := time.Date(
		naive.Year(), naive.Month(), naive.Day(),
		naive.Hour(), naive.Minute(), naive.Second(), 0,
		loc,
	)
	start := local.UTC()
	return start, start.Add(eventDuration), nil
}

// icsEscaper escapes ICS text values; backslash is handled in the same
// pass so already-escaped characters are not escaped twice.
var icsEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", `\,`,
	";", `\;`,
	"\n", `\n`,
)

func (e *Exporter) renderICS(meeting *domain.Meeting, start, end time.Time) string {
	uid := fmt.Sprintf("%d-%s@labman", meeting.ID, e.newUUID())

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//LabMan//Meeting Calendar//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTAMP:" + e.now().UTC().Format(icsTimeLayout),
		"DTSTART:" + start.Format(icsTimeLayout),
		"DTEND:" + end.Format(icsTimeLayout),
		"SUMMARY:" + icsEscaper.Replace(meeting.Title),
		"DESCRIPTION:" + icsEscaper.Replace(meeting.Description),
		"STATUS:CONFIRMED",
		"SEQUENCE:0",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\n")
}

func googleLink(meeting *domain.Meeting, start, end time.Time) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", meeting.Title)
	params.Set("dates", start.Format(icsTimeLayout)+"/"+end.Format(icsTimeLayout))
	if meeting.Description != "" {
		params.Set("details", meeting.Description)
	}
	return "https://calendar.google.com/calendar/render?" + params.Encode()
}

func outlookLink(meeting *domain.Meeting, start, end time.Time) string {
	params := url.Values{}
	params.Set("path", "/calendar/action/compose")
	params.Set("rru", "addevent")
	params.Set("subject", meeting.Title)
	params.Set("startdt", start.Format(outlookTimeLayout))
	params.Set("enddt", end.Format(outlookTimeLayout))
	if meeting.Description != "" {
		params.Set("body", meeting.Description)
	}
	return "https://outlook.live.com/calendar/0/deeplink/compose?" + params.Encode()
}
