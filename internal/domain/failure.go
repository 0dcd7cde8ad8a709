package domain

import "time"

// Email type labels recorded on EmailFailure rows.
const (
	EmailTypeMeetingCreated = "meeting_created"
	EmailTypeMeetingUpdated = "meeting_updated"
)

// EmailFailure is an append-only audit record for a failed send. The
// core writes these and never reads them back; RetryCount and
// LastRetryAt belong to a future retrier.
type EmailFailure struct {
	ID           int64
	EmailType    string
	Recipient    string
	ErrorMessage string
	Payload      string
	RetryCount   int
	LastRetryAt  *time.Time
	CreatedAt    time.Time
}

// AuditEntry records an actor action for the audit log sink.
type AuditEntry struct {
	ID        int64
	UserID    *int64
	Action    string
	Details   string
	CreatedAt time.Time
}
