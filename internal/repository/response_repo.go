package repository

import (
	"context"

	"github.com/labmanhq/labman/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResponseRepository interface {
	Upsert(ctx context.Context, r *domain.MeetingResponse) error
	ListByMeeting(ctx context.Context, meetingID int64) ([]domain.MeetingResponse, error)
}

type GormResponseRepo struct {
	db *gorm.DB
}

func NewGormResponseRepo(db *gorm.DB) *GormResponseRepo {
	return &GormResponseRepo{db: db}
}

// Upsert records a user's response, overwriting any prior row for the
// same (meeting, user) pair in place.
func (r *GormResponseRepo) Upsert(ctx context.Context, response *domain.MeetingResponse) error {
	model := responseModelFromDomain(response)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"response"}),
		}).
		Create(model).Error
	if err != nil {
		return err
	}

	*response = *responseModelToDomain(model)
	return nil
}

type responseRow struct {
	ID        int64  `gorm:"column:id"`
	MeetingID int64  `gorm:"column:meeting_id"`
	UserID    int64  `gorm:"column:user_id"`
	Response  string `gorm:"column:response"`
	UserName  string `gorm:"column:user_name"`
}

// ListByMeeting orders by response value then by user name, so the
// attendee listing is deterministic.
func (r *GormResponseRepo) ListByMeeting(ctx context.Context, meetingID int64) ([]domain.MeetingResponse, error) {
	var rows []responseRow
	err := r.db.WithContext(ctx).
		Model(&MeetingResponseModel{}).
		Select("meeting_responses.*, u.name AS user_name").
		Joins("JOIN users u ON u.id = meeting_responses.user_id").
		Where("meeting_responses.meeting_id = ?", meetingID).
		Order("meeting_responses.response ASC, u.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	responses := make([]domain.MeetingResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, domain.MeetingResponse{
			ID:        row.ID,
			MeetingID: row.MeetingID,
			UserID:    row.UserID,
			Response:  domain.RSVP(row.Response),
			UserName:  row.UserName,
		})
	}
	return responses, nil
}
