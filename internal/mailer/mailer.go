package mailer

import "context"

// Message is one outbound email with HTML and plain-text alternatives.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer is the outbound mail transport port.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
