package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labmanhq/labman/internal/domain"
	"gorm.io/gorm"
)

// VisibilityScope restricts list queries to what a non-admin actor may
// see: public meetings, own meetings, and meetings of the actor's
// groups. A nil scope means unrestricted.
type VisibilityScope struct {
	ActorID  int64
	GroupIDs []int64
}

// ListParams filters and paginates the meeting listing. FromDate is an
// inclusive lower bound on the date part of the stored timestamp
// (YYYY-MM-DD), used for the upcoming filter. Offset and limit apply
// after visibility filtering.
type ListParams struct {
	Scope    *VisibilityScope
	Tags     []string
	FromDate string
	Offset   int
	Limit    int
}

type MeetingRepository interface {
	Create(ctx context.Context, m *domain.Meeting, creatorRSVP *domain.MeetingResponse) error
	Update(ctx context.Context, m *domain.Meeting) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Meeting, error)
	List(ctx context.Context, params ListParams) ([]domain.Meeting, error)
	BetweenDates(ctx context.Context, scope *VisibilityScope, fromDate, toDate string) ([]domain.Meeting, error)
	ByMonth(ctx context.Context, scope *VisibilityScope, year int, month int) ([]domain.Meeting, error)
	TagColumns(ctx context.Context) ([]string, error)
}

type GormMeetingRepo struct {
	db *gorm.DB
}

func NewGormMeetingRepo(db *gorm.DB) *GormMeetingRepo {
	return &GormMeetingRepo{db: db}
}

// meetingRow is a meeting joined with creator and group display names.
type meetingRow struct {
	ID          int64     `gorm:"column:id"`
	Title       string    `gorm:"column:title"`
	Description *string   `gorm:"column:description"`
	MeetingTime string    `gorm:"column:meeting_time"`
	CreatedBy   int64     `gorm:"column:created_by"`
	GroupID     *int64    `gorm:"column:group_id"`
	IsPrivate   bool      `gorm:"column:is_private"`
	Tags        *string   `gorm:"column:tags"`
	Summary     *string   `gorm:"column:summary"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	CreatorName *string   `gorm:"column:creator_name"`
	GroupName   *string   `gorm:"column:group_name"`
}

func rowToDomain(row *meetingRow) domain.Meeting {
	m := domain.Meeting{
		ID:          row.ID,
		Title:       row.Title,
		Description: optionalString(row.Description),
		MeetingTime: row.MeetingTime,
		CreatedBy:   row.CreatedBy,
		GroupID:     row.GroupID,
		IsPrivate:   row.IsPrivate,
		Tags:        deserializeTags(row.Tags),
		Summary:     optionalString(row.Summary),
		CreatedAt:   row.CreatedAt,
		CreatorName: optionalString(row.CreatorName),
		GroupName:   optionalString(row.GroupName),
	}
	return m
}

func (r *GormMeetingRepo) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&MeetingModel{}).
		Select("meetings.*, u.name AS creator_name, g.name AS group_name").
		Joins("LEFT JOIN users u ON u.id = meetings.created_by").
		Joins("LEFT JOIN research_groups g ON g.id = meetings.group_id")
}

func applyScope(query *gorm.DB, scope *VisibilityScope) *gorm.DB {
	if scope == nil {
		return query
	}
	return query.Where(
		"meetings.is_private = ? OR meetings.created_by = ? OR meetings.group_id IN ?",
		false, scope.ActorID, scope.GroupIDs,
	)
}

// likeEscape neutralizes LIKE metacharacters in a filter term so it
// only ever matches literally inside a pattern.
func likeEscape(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// applyTagFilter matches the delimited tags column with comma padding,
// so filter terms only hit whole tags. This is the single place where
// tag membership is computed on the storage format.
func applyTagFilter(query *gorm.DB, tags []string) *gorm.DB {
	if len(tags) == 0 {
		return query
	}

	conditions := make([]string, 0, len(tags))
	args := make([]any, 0, len(tags))
	for _, tag := range tags {
		conditions = append(conditions, "(',' || meetings.tags || ',') LIKE ?")
		args = append(args, "%,"+likeEscape(strings.TrimSpace(tag))+",%")
	}
	return query.Where(strings.Join(conditions, " OR "), args...)
}

func (r *GormMeetingRepo) Create(ctx context.Context, m *domain.Meeting, creatorRSVP *domain.MeetingResponse) error {
	model := meetingModelFromDomain(m)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if creatorRSVP != nil {
			rsvp := responseModelFromDomain(creatorRSVP)
			rsvp.MeetingID = model.ID
			if err := tx.Create(rsvp).Error; err != nil {
				return err
			}
			*creatorRSVP = *responseModelToDomain(rsvp)
		}
		return nil
	})
	if err != nil {
		return err
	}

	creatorName := m.CreatorName
	groupName := m.GroupName
	*m = *meetingModelToDomain(model)
	m.CreatorName = creatorName
	m.GroupName = groupName
	return nil
}

func (r *GormMeetingRepo) Update(ctx context.Context, m *domain.Meeting) error {
	model := meetingModelFromDomain(m)

	result := r.db.WithContext(ctx).
		Model(&MeetingModel{}).
		Where("id = ?", m.ID).
		Select("title", "description", "meeting_time", "group_id", "is_private", "tags", "summary").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a meeting and cascades its responses in one
// transaction; there is no relational cascade to lean on.
func (r *GormMeetingRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&MeetingResponseModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&MeetingModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *GormMeetingRepo) GetByID(ctx context.Context, id int64) (*domain.Meeting, error) {
	var row meetingRow
	err := r.joined(ctx).Where("meetings.id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	meeting := rowToDomain(&row)
	return &meeting, nil
}

func (r *GormMeetingRepo) List(ctx context.Context, params ListParams) ([]domain.Meeting, error) {
	query := applyScope(r.joined(ctx), params.Scope)
	query = applyTagFilter(query, params.Tags)

	if strings.TrimSpace(params.FromDate) != "" {
		query = query.Where("left(meetings.meeting_time, 10) >= ?", params.FromDate)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}
	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}

	var rows []meetingRow
	if err := query.Order("meetings.meeting_time DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

func (r *GormMeetingRepo) BetweenDates(ctx context.Context, scope *VisibilityScope, fromDate, toDate string) ([]domain.Meeting, error) {
	query := applyScope(r.joined(ctx), scope).
		Where("left(meetings.meeting_time, 10) BETWEEN ? AND ?", fromDate, toDate)

	var rows []meetingRow
	if err := query.Order("meetings.meeting_time ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

func (r *GormMeetingRepo) ByMonth(ctx context.Context, scope *VisibilityScope, year int, month int) ([]domain.Meeting, error) {
	prefix := fmt.Sprintf("%04d-%02d", year, month)
	query := applyScope(r.joined(ctx), scope).
		Where("left(meetings.meeting_time, 7) = ?", prefix)

	var rows []meetingRow
	if err := query.Order("meetings.meeting_time ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rowsToDomain(rows), nil
}

// TagColumns returns the raw delimited tag columns of all tagged
// meetings; the caller derives the normalized union.
func (r *GormMeetingRepo) TagColumns(ctx context.Context) ([]string, error) {
	var columns []string
	err := r.db.WithContext(ctx).
		Model(&MeetingModel{}).
		Where("tags IS NOT NULL AND tags <> ''").
		Pluck("tags", &columns).Error
	if err != nil {
		return nil, err
	}
	return columns, nil
}

func rowsToDomain(rows []meetingRow) []domain.Meeting {
	meetings := make([]domain.Meeting, 0, len(rows))
	for i := range rows {
		meetings = append(meetings, rowToDomain(&rows[i]))
	}
	return meetings
}
