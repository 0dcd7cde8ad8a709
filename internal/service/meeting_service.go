package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/labmanhq/labman/internal/calendar"
	"github.com/labmanhq/labman/internal/domain"
	"github.com/labmanhq/labman/internal/repository"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Notifier accepts notification jobs without blocking. The meeting
// core never waits on mail delivery.
type Notifier interface {
	EnqueueCreated(creator domain.User, meeting domain.Meeting, recipients []domain.User)
	EnqueueUpdated(creator domain.User, meeting domain.Meeting, recipients []domain.User)
}

// ListOptions filters the meeting listing. Tags is an exact-match OR
// filter; Upcoming restricts to today and later, by calendar date in
// the lab timezone.
type ListOptions struct {
	Tags     []string
	Upcoming bool
	Offset   int
	Limit    int
}

type MeetingService struct {
	meetings  repository.MeetingRepository
	responses repository.ResponseRepository
	users     repository.UserRepository
	groups    repository.GroupRepository
	audits    repository.AuditRepository
	exporter  *calendar.Exporter
	notifier  Notifier
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

func NewMeetingService(
	meetings repository.MeetingRepository,
	responses repository.ResponseRepository,
	users repository.UserRepository,
	groups repository.GroupRepository,
	audits repository.AuditRepository,
	exporter *calendar.Exporter,
	notifier Notifier,
	timezone string,
	logger *zap.Logger,
) (*MeetingService, error) {
	if meetings == nil {
		return nil, fmt.Errorf("meeting repository is required")
	}
	if responses == nil {
		return nil, fmt.Errorf("response repository is required")
	}
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if groups == nil {
		return nil, fmt.Errorf("group repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(strings.TrimSpace(timezone))
	if err != nil {
		logger.Warn("invalid lab timezone, falling back to UTC",
			zap.String("timezone", timezone),
			zap.Error(err),
		)
		location = time.UTC
	}

	return &MeetingService{
		meetings:  meetings,
		responses: responses,
		users:     users,
		groups:    groups,
		audits:    audits,
		exporter:  exporter,
		notifier:  notifier,
		logger:    logger,
		location:  location,
		now:       time.Now,
	}, nil
}

// Actor resolves the acting user. Handlers call this to authenticate
// the X-User-ID header before any meeting operation.
func (s *MeetingService) Actor(ctx context.Context, actorID int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (s *MeetingService) Create(ctx context.Context, actorID int64, meeting *domain.Meeting) (*domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	meeting.ID = 0
	meeting.CreatedBy = actor.ID
	meeting.Tags = domain.NormalizeTags(strings.Join(meeting.Tags, ","))
	meeting.CreatedAt = s.now().UTC()

	if err := meeting.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, meeting.GroupID); err != nil {
		return nil, err
	}

	// The creator is auto-joined in the same transaction.
	creatorRSVP := &domain.MeetingResponse{
		UserID:   actor.ID,
		Response: domain.RSVPJoin,
	}
	if err := s.meetings.Create(ctx, meeting, creatorRSVP); err != nil {
		return nil, fmt.Errorf("failed to create meeting: %w", err)
	}

	s.audit(ctx, actor.ID, "meeting_created", fmt.Sprintf("meeting %d %q at %s", meeting.ID, meeting.Title, meeting.MeetingTime))
	s.notifyCreated(ctx, actor, *meeting)

	return s.meetings.GetByID(ctx, meeting.ID)
}

func (s *MeetingService) Update(ctx context.Context, actorID int64, meetingID int64, update domain.MeetingUpdate) (*domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !domain.CanModify(actor, *meeting) {
		return nil, fmt.Errorf("%w: only the creator or an admin can modify a meeting", domain.ErrAccessDenied)
	}

	previousTime := meeting.MeetingTime
	applyUpdate(meeting, update)

	if err := meeting.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkGroup(ctx, meeting.GroupID); err != nil {
		return nil, err
	}

	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("failed to update meeting: %w", err)
	}

	s.audit(ctx, actor.ID, "meeting_updated", fmt.Sprintf("meeting %d %q", meeting.ID, meeting.Title))

	// Update notifications only fire on a time change, compared on the
	// stored string. A rewrite of the same instant in another accepted
	// layout counts as a change.
	if meeting.MeetingTime != previousTime {
		s.notifyUpdated(ctx, actor, *meeting)
	}

	return s.meetings.GetByID(ctx, meeting.ID)
}

func (s *MeetingService) Delete(ctx context.Context, actorID int64, meetingID int64) error {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return err
	}
	if !domain.CanModify(actor, *meeting) {
		return fmt.Errorf("%w: only the creator or an admin can delete a meeting", domain.ErrAccessDenied)
	}

	if err := s.meetings.Delete(ctx, meetingID); err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}

	s.audit(ctx, actor.ID, "meeting_deleted", fmt.Sprintf("meeting %d %q", meeting.ID, meeting.Title))
	return nil
}

func (s *MeetingService) GetByID(ctx context.Context, actorID int64, meetingID int64) (*domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	if err := s.checkViewable(ctx, actor, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *MeetingService) List(ctx context.Context, actorID int64, opts ListOptions) ([]domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	params := repository.ListParams{
		Scope:  scope,
		Tags:   domain.NormalizeTags(strings.Join(opts.Tags, ",")),
		Offset: offset,
		Limit:  limit,
	}
	if opts.Upcoming {
		params.FromDate = s.now().In(s.location).Format("2006-01-02")
	}

	return s.meetings.List(ctx, params)
}

// ThisWeek lists the actor's visible meetings from Sunday through
// Saturday of the current week in the lab timezone, ascending.
func (s *MeetingService) ThisWeek(ctx context.Context, actorID int64) ([]domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	today := s.now().In(s.location)
	weekStart := today.AddDate(0, 0, -int(today.Weekday()))
	weekEnd := weekStart.AddDate(0, 0, 6)

	return s.meetings.BetweenDates(ctx, scope, weekStart.Format("2006-01-02"), weekEnd.Format("2006-01-02"))
}

func (s *MeetingService) ByMonth(ctx context.Context, actorID int64, year int, month int) ([]domain.Meeting, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month %d out of range", domain.ErrValidation, month)
	}
	if year < 1970 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d out of range", domain.ErrValidation, year)
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, err
	}

	return s.meetings.ByMonth(ctx, scope, year, month)
}

// AllTags returns the sorted union of tags across all meetings.
func (s *MeetingService) AllTags(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	columns, err := s.meetings.TagColumns(ctx)
	if err != nil {
		return nil, err
	}

	meetings := make([]domain.Meeting, 0, len(columns))
	for _, column := range columns {
		meetings = append(meetings, domain.Meeting{Tags: domain.NormalizeTags(column)})
	}
	return domain.AllTags(meetings), nil
}

func (s *MeetingService) Respond(ctx context.Context, actorID int64, meetingID int64, response string) (*domain.MeetingResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	rsvp, err := domain.ParseRSVPFromString(response)
	if err != nil {
		return nil, err
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewable(ctx, actor, meeting); err != nil {
		return nil, err
	}

	record := &domain.MeetingResponse{
		MeetingID: meeting.ID,
		UserID:    actor.ID,
		Response:  rsvp,
		CreatedAt: s.now().UTC(),
	}
	if err := s.responses.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}
	record.UserName = actor.Name
	return record, nil
}

func (s *MeetingService) ListResponses(ctx context.Context, actorID int64, meetingID int64) ([]domain.MeetingResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkViewable(ctx, actor, meeting); err != nil {
		return nil, err
	}

	return s.responses.ListByMeeting(ctx, meetingID)
}

// ExportCalendar renders the ICS payload and provider links for one
// meeting. Export degrades instead of failing on bad stored times.
func (s *MeetingService) ExportCalendar(ctx context.Context, actorID int64, meetingID int64) (calendar.Export, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return calendar.Export{}, err
	}

	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return calendar.Export{}, err
	}
	if err := s.checkViewable(ctx, actor, meeting); err != nil {
		return calendar.Export{}, err
	}

	return s.exporter.Export(meeting), nil
}

func (s *MeetingService) scopeFor(ctx context.Context, actor domain.User) (*repository.VisibilityScope, error) {
	if actor.IsAdmin {
		return nil, nil
	}

	groupIDs, err := s.groups.GroupIDsOfUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve group membership: %w", err)
	}
	return &repository.VisibilityScope{ActorID: actor.ID, GroupIDs: groupIDs}, nil
}

func (s *MeetingService) checkViewable(ctx context.Context, actor domain.User, meeting *domain.Meeting) error {
	var members map[int64]struct{}
	if meeting.IsPrivate && meeting.GroupID != nil {
		ids, err := s.groups.MemberIDs(ctx, *meeting.GroupID)
		if err != nil {
			return fmt.Errorf("failed to resolve group membership: %w", err)
		}
		members = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			members[id] = struct{}{}
		}
	}

	if !domain.CanView(actor, *meeting, members) {
		return fmt.Errorf("%w: meeting %d is private", domain.ErrAccessDenied, meeting.ID)
	}
	return nil
}

func (s *MeetingService) checkGroup(ctx context.Context, groupID *int64) error {
	if groupID == nil {
		return nil
	}
	if _, err := s.groups.GetByID(ctx, *groupID); err != nil {
		return fmt.Errorf("%w: group %d not found", domain.ErrValidation, *groupID)
	}
	return nil
}

// audience resolves notification recipients: group members for a group
// meeting, otherwise every lab member. The creator is a member like any
// other and is notified too; only the opt-out flag skips anyone, and
// that is applied at send time.
func (s *MeetingService) audience(ctx context.Context, meeting domain.Meeting) []domain.User {
	var (
		members []domain.User
		err     error
	)
	if meeting.GroupID != nil {
		members, err = s.groups.Members(ctx, *meeting.GroupID)
	} else {
		members, err = s.users.ListAll(ctx)
	}
	if err != nil {
		s.logger.Error("failed to resolve notification audience",
			zap.Int64("meetingId", meeting.ID),
			zap.Error(err),
		)
		return nil
	}
	return members
}

func (s *MeetingService) notifyCreated(ctx context.Context, actor domain.User, meeting domain.Meeting) {
	if s.notifier == nil {
		return
	}
	if recipients := s.audience(ctx, meeting); len(recipients) > 0 {
		s.notifier.EnqueueCreated(actor, meeting, recipients)
	}
}

func (s *MeetingService) notifyUpdated(ctx context.Context, actor domain.User, meeting domain.Meeting) {
	if s.notifier == nil {
		return
	}
	if recipients := s.audience(ctx, meeting); len(recipients) > 0 {
		s.notifier.EnqueueUpdated(actor, meeting, recipients)
	}
}

func (s *MeetingService) audit(ctx context.Context, actorID int64, action string, details string) {
	if s.audits == nil {
		return
	}

	entry := &domain.AuditEntry{
		UserID:    &actorID,
		Action:    action,
		Details:   details,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write audit entry",
			zap.String("action", action),
			zap.Error(err),
		)
	}
}

func applyUpdate(meeting *domain.Meeting, update domain.MeetingUpdate) {
	if update.Title != nil {
		meeting.Title = *update.Title
	}
	if update.Description != nil {
		meeting.Description = *update.Description
	}
	if update.MeetingTime != nil {
		meeting.MeetingTime = *update.MeetingTime
	}
	if update.ClearGroup {
		meeting.GroupID = nil
	} else if update.GroupID != nil {
		meeting.GroupID = update.GroupID
	}
	if update.IsPrivate != nil {
		meeting.IsPrivate = *update.IsPrivate
	}
	if update.Tags != nil {
		meeting.Tags = domain.NormalizeTags(strings.Join(update.Tags, ","))
	}
	if update.Summary != nil {
		meeting.Summary = *update.Summary
	}
}
