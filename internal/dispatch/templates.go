package dispatch

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/labmanhq/labman/internal/domain"
)

type messageData struct {
	RecipientName string
	Title         string
	When          string
	Organizer     string
	Description   string
	Summary       string
	Link          string
	LabName       string
}

var createdHTML = template.Must(template.New("created").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #3E2723;">
    <h2 style="color: #8B4513;">New Meeting Scheduled</h2>
    <p>Hello {{.RecipientName}},</p>
    <p>A new meeting has been scheduled:</p>
    <div style="background-color: #FFF8DC; padding: 15px; border-radius: 4px; margin: 20px 0;">
        <p><strong>Title:</strong> {{.Title}}</p>
        <p><strong>Time:</strong> {{.When}}</p>
        <p><strong>Organizer:</strong> {{.Organizer}}</p>
        {{if .Description}}<p><strong>Description:</strong> {{.Description}}</p>{{end}}
    </div>
    <p>
        <a href="{{.Link}}"
           style="background-color: #8B4513; color: white; padding: 12px 30px;
                  text-decoration: none; border-radius: 4px; display: inline-block;">
            View Meeting &amp; RSVP
        </a>
    </p>
    <p style="color: #6D4C41; font-size: 12px; margin-top: 30px;">{{.LabName}}</p>
</body>
</html>`))

var updatedHTML = template.Must(template.New("updated").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #3E2723;">
    <h2 style="color: #8B4513;">Meeting Time Changed</h2>
    <p>Hello {{.RecipientName}},</p>
    <p>The meeting <strong>&quot;{{.Title}}&quot;</strong> has been updated.</p>
    <div style="background-color: #FFF8DC; padding: 15px; border-radius: 4px; margin: 20px 0;">
        <p><strong>New Time:</strong> {{.When}}</p>
        <p><strong>Organizer:</strong> {{.Organizer}}</p>
    </div>
    <p>
        <a href="{{.Link}}"
           style="background-color: #8B4513; color: white; padding: 12px 30px;
                  text-decoration: none; border-radius: 4px; display: inline-block;">
            View Updated Meeting
        </a>
    </p>
    <p style="color: #6D4C41; font-size: 12px; margin-top: 30px;">{{.LabName}}</p>
</body>
</html>`))

func renderCreated(data messageData) (subject, html, text string, err error) {
	subject = fmt.Sprintf("New Meeting: %s", data.Title)

	var buf bytes.Buffer
	if err = createdHTML.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render created template: %w", err)
	}

	text = fmt.Sprintf(
		"Hello %s,\n\nA new meeting has been scheduled:\n\nTitle: %s\nTime: %s\nOrganizer: %s\n\n%s\n\nView meeting details and RSVP:\n%s\n\nBest regards,\n%s\n",
		data.RecipientName, data.Title, data.When, data.Organizer, data.Description, data.Link, data.LabName,
	)
	return subject, buf.String(), text, nil
}

func renderUpdated(data messageData) (subject, html, text string, err error) {
	subject = fmt.Sprintf("Meeting Updated: %s", data.Title)

	var buf bytes.Buffer
	if err = updatedHTML.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("failed to render updated template: %w", err)
	}

	text = fmt.Sprintf(
		"Hello %s,\n\nThe meeting %q has been updated.\n\nNew Time: %s\nOrganizer: %s\n\nView the updated meeting:\n%s\n\n%s\n",
		data.RecipientName, data.Title, data.When, data.Organizer, data.Link, data.LabName,
	)
	return subject, buf.String(), text, nil
}

// formatWhen renders a stored meeting time as "22 Jan, 2026 (Thu) @ 10:00 AM"
// for email bodies, falling back to the raw string when it does not parse.
func formatWhen(meetingTime string) string {
	t, err := domain.ParseMeetingTime(meetingTime)
	if err != nil {
		return meetingTime
	}
	return fmt.Sprintf("%d %s (%s) @ %s",
		t.Day(),
		t.Format("Jan, 2006"),
		t.Format("Mon"),
		t.Format("3:04 PM"),
	)
}
