package repository

import (
	"strings"
	"time"

	"github.com/labmanhq/labman/internal/domain"
)

// MeetingModel is the persistence model for the meetings table. Tags
// are denormalized into a single comma-delimited column; the delimited
// form never leaves this package.
type MeetingModel struct {
	ID          int64   `gorm:"primaryKey;autoIncrement"`
	Title       string  `gorm:"type:varchar(255);not null"`
	Description *string `gorm:"type:text"`
	MeetingTime string  `gorm:"type:varchar(32);not null"`
	CreatedBy   int64   `gorm:"not null"`
	GroupID     *int64
	IsPrivate   bool    `gorm:"not null;default:false"`
	Tags        *string `gorm:"type:text"`
	Summary     *string `gorm:"type:text"`
	CreatedAt   time.Time
}

func (MeetingModel) TableName() string {
	return "meetings"
}

// MeetingResponseModel is the persistence model for meeting_responses,
// unique on (meeting_id, user_id).
type MeetingResponseModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	MeetingID int64  `gorm:"not null;uniqueIndex:idx_responses_meeting_user"`
	UserID    int64  `gorm:"not null;uniqueIndex:idx_responses_meeting_user"`
	Response  string `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (MeetingResponseModel) TableName() string {
	return "meeting_responses"
}

// EmailFailureModel is the persistence model for the append-only
// email_failures audit table.
type EmailFailureModel struct {
	ID           int64   `gorm:"primaryKey;autoIncrement"`
	EmailType    string  `gorm:"type:varchar(64);not null"`
	Recipient    string  `gorm:"type:varchar(255);not null"`
	ErrorMessage *string `gorm:"type:text"`
	Payload      *string `gorm:"type:text"`
	RetryCount   int     `gorm:"not null;default:0"`
	LastRetryAt  *time.Time
	CreatedAt    time.Time
}

func (EmailFailureModel) TableName() string {
	return "email_failures"
}

// AuditLogModel is the persistence model for audit_logs.
type AuditLogModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	UserID    *int64 `gorm:"index"`
	Action    string `gorm:"type:varchar(128);not null"`
	Details   *string `gorm:"type:text"`
	CreatedAt time.Time
}

func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// UserModel is the persistence model for the lab member directory.
type UserModel struct {
	ID                 int64  `gorm:"primaryKey;autoIncrement"`
	Name               string `gorm:"type:varchar(255);not null"`
	Email              string `gorm:"type:varchar(255);not null;uniqueIndex"`
	IsAdmin            bool   `gorm:"not null;default:false"`
	EmailNotifications bool   `gorm:"not null;default:true"`
	CreatedAt          time.Time
}

func (UserModel) TableName() string {
	return "users"
}

// GroupModel is the persistence model for research_groups.
type GroupModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"type:varchar(255);not null;uniqueIndex"`
	CreatedAt time.Time
}

func (GroupModel) TableName() string {
	return "research_groups"
}

// UserGroupModel is the membership join table.
type UserGroupModel struct {
	ID      int64 `gorm:"primaryKey;autoIncrement"`
	UserID  int64 `gorm:"not null;uniqueIndex:idx_user_groups_user_group"`
	GroupID int64 `gorm:"not null;uniqueIndex:idx_user_groups_user_group"`
}

func (UserGroupModel) TableName() string {
	return "user_groups"
}

// serializeTags flattens a normalized tag set for the delimited column.
// Order is not meaningful and callers must not rely on it surviving a
// round trip.
func serializeTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	joined := strings.Join(tags, ",")
	return &joined
}

func deserializeTags(column *string) []string {
	if column == nil {
		return nil
	}
	return domain.NormalizeTags(*column)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func toOptionalString(v string) *string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" {
		return nil
	}
	return &v
}

func meetingModelFromDomain(m *domain.Meeting) *MeetingModel {
	if m == nil {
		return nil
	}

	return &MeetingModel{
		ID:          m.ID,
		Title:       m.Title,
		Description: toOptionalString(m.Description),
		MeetingTime: m.MeetingTime,
		CreatedBy:   m.CreatedBy,
		GroupID:     m.GroupID,
		IsPrivate:   m.IsPrivate,
		Tags:        serializeTags(m.Tags),
		Summary:     toOptionalString(m.Summary),
		CreatedAt:   m.CreatedAt,
	}
}

func meetingModelToDomain(m *MeetingModel) *domain.Meeting {
	if m == nil {
		return nil
	}

	return &domain.Meeting{
		ID:          m.ID,
		Title:       m.Title,
		Description: optionalString(m.Description),
		MeetingTime: m.MeetingTime,
		CreatedBy:   m.CreatedBy,
		GroupID:     m.GroupID,
		IsPrivate:   m.IsPrivate,
		Tags:        deserializeTags(m.Tags),
		Summary:     optionalString(m.Summary),
		CreatedAt:   m.CreatedAt,
	}
}

func responseModelFromDomain(r *domain.MeetingResponse) *MeetingResponseModel {
	if r == nil {
		return nil
	}

	return &MeetingResponseModel{
		ID:        r.ID,
		MeetingID: r.MeetingID,
		UserID:    r.UserID,
		Response:  r.Response.String(),
		CreatedAt: r.CreatedAt,
	}
}

func responseModelToDomain(m *MeetingResponseModel) *domain.MeetingResponse {
	if m == nil {
		return nil
	}

	return &domain.MeetingResponse{
		ID:        m.ID,
		MeetingID: m.MeetingID,
		UserID:    m.UserID,
		Response:  domain.RSVP(m.Response),
		CreatedAt: m.CreatedAt,
	}
}

func failureModelFromDomain(f *domain.EmailFailure) *EmailFailureModel {
	if f == nil {
		return nil
	}

	return &EmailFailureModel{
		ID:           f.ID,
		EmailType:    f.EmailType,
		Recipient:    f.Recipient,
		ErrorMessage: toOptionalString(f.ErrorMessage),
		Payload:      toOptionalString(f.Payload),
		RetryCount:   f.RetryCount,
		LastRetryAt:  f.LastRetryAt,
		CreatedAt:    f.CreatedAt,
	}
}

func auditModelFromDomain(e *domain.AuditEntry) *AuditLogModel {
	if e == nil {
		return nil
	}

	return &AuditLogModel{
		ID:        e.ID,
		UserID:    e.UserID,
		Action:    e.Action,
		Details:   toOptionalString(e.Details),
		CreatedAt: e.CreatedAt,
	}
}

func userModelToDomain(m *UserModel) *domain.User {
	if m == nil {
		return nil
	}

	return &domain.User{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		IsAdmin:            m.IsAdmin,
		EmailNotifications: m.EmailNotifications,
		CreatedAt:          m.CreatedAt,
	}
}

func groupModelToDomain(m *GroupModel) *domain.Group {
	if m == nil {
		return nil
	}

	return &domain.Group{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
}
