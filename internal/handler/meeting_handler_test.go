package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/labmanhq/labman/internal/calendar"
	"github.com/labmanhq/labman/internal/domain"
	"github.com/labmanhq/labman/internal/service"
	"github.com/labmanhq/labman/internal/transport"
)

type fakeMeetingService struct {
	actorFunc          func(ctx context.Context, actorID int64) (domain.User, error)
	createFunc         func(ctx context.Context, actorID int64, meeting *domain.Meeting) (*domain.Meeting, error)
	updateFunc         func(ctx context.Context, actorID int64, meetingID int64, update domain.MeetingUpdate) (*domain.Meeting, error)
	deleteFunc         func(ctx context.Context, actorID int64, meetingID int64) error
	getByIDFunc        func(ctx context.Context, actorID int64, meetingID int64) (*domain.Meeting, error)
	listFunc           func(ctx context.Context, actorID int64, opts service.ListOptions) ([]domain.Meeting, error)
	thisWeekFunc       func(ctx context.Context, actorID int64) ([]domain.Meeting, error)
	byMonthFunc        func(ctx context.Context, actorID int64, year int, month int) ([]domain.Meeting, error)
	allTagsFunc        func(ctx context.Context) ([]string, error)
	respondFunc        func(ctx context.Context, actorID int64, meetingID int64, response string) (*domain.MeetingResponse, error)
	listResponsesFunc  func(ctx context.Context, actorID int64, meetingID int64) ([]domain.MeetingResponse, error)
	exportCalendarFunc func(ctx context.Context, actorID int64, meetingID int64) (calendar.Export, error)
}

func (f *fakeMeetingService) Actor(ctx context.Context, actorID int64) (domain.User, error) {
	if f.actorFunc != nil {
		return f.actorFunc(ctx, actorID)
	}
	if actorID == 1 || actorID == 9 {
		return domain.User{ID: actorID, Name: "Asha", IsAdmin: actorID == 9}, nil
	}
	return domain.User{}, domain.ErrNotFound
}

func (f *fakeMeetingService) Create(ctx context.Context, actorID int64, meeting *domain.Meeting) (*domain.Meeting, error) {
	if f.createFunc != nil {
		return f.createFunc(ctx, actorID, meeting)
	}
	meeting.ID = 42
	meeting.CreatedBy = actorID
	return meeting, nil
}

func (f *fakeMeetingService) Update(ctx context.Context, actorID int64, meetingID int64, update domain.MeetingUpdate) (*domain.Meeting, error) {
	if f.updateFunc != nil {
		return f.updateFunc(ctx, actorID, meetingID, update)
	}
	return &domain.Meeting{ID: meetingID}, nil
}

func (f *fakeMeetingService) Delete(ctx context.Context, actorID int64, meetingID int64) error {
	if f.deleteFunc != nil {
		return f.deleteFunc(ctx, actorID, meetingID)
	}
	return nil
}

func (f *fakeMeetingService) GetByID(ctx context.Context, actorID int64, meetingID int64) (*domain.Meeting, error) {
	if f.getByIDFunc != nil {
		return f.getByIDFunc(ctx, actorID, meetingID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeMeetingService) List(ctx context.Context, actorID int64, opts service.ListOptions) ([]domain.Meeting, error) {
	if f.listFunc != nil {
		return f.listFunc(ctx, actorID, opts)
	}
	return nil, nil
}

func (f *fakeMeetingService) ThisWeek(ctx context.Context, actorID int64) ([]domain.Meeting, error) {
	if f.thisWeekFunc != nil {
		return f.thisWeekFunc(ctx, actorID)
	}
	return nil, nil
}

func (f *fakeMeetingService) ByMonth(ctx context.Context, actorID int64, year int, month int) ([]domain.Meeting, error) {
	if f.byMonthFunc != nil {
		return f.byMonthFunc(ctx, actorID, year, month)
	}
	return nil, nil
}

func (f *fakeMeetingService) AllTags(ctx context.Context) ([]string, error) {
	if f.allTagsFunc != nil {
		return f.allTagsFunc(ctx)
	}
	return nil, nil
}

func (f *fakeMeetingService) Respond(ctx context.Context, actorID int64, meetingID int64, response string) (*domain.MeetingResponse, error) {
	if f.respondFunc != nil {
		return f.respondFunc(ctx, actorID, meetingID, response)
	}
	rsvp, err := domain.ParseRSVPFromString(response)
	if err != nil {
		return nil, err
	}
	return &domain.MeetingResponse{MeetingID: meetingID, UserID: actorID, Response: rsvp}, nil
}

func (f *fakeMeetingService) ListResponses(ctx context.Context, actorID int64, meetingID int64) ([]domain.MeetingResponse, error) {
	if f.listResponsesFunc != nil {
		return f.listResponsesFunc(ctx, actorID, meetingID)
	}
	return nil, nil
}

func (f *fakeMeetingService) ExportCalendar(ctx context.Context, actorID int64, meetingID int64) (calendar.Export, error) {
	if f.exportCalendarFunc != nil {
		return f.exportCalendarFunc(ctx, actorID, meetingID)
	}
	return calendar.Export{GoogleURL: "#", OutlookURL: "#"}, nil
}

func newTestApp(t *testing.T, svc MeetingService) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: transport.ErrorHandler(zap.NewNop())})
	if err := RegisterMeetingRoutes(app, svc); err != nil {
		t.Fatalf("RegisterMeetingRoutes() error = %v", err)
	}
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		req.Header.Set(actorHeader, actor)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}

	rec := httptest.NewRecorder()
	rec.Code = resp.StatusCode
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	rec.Body = bytes.NewBuffer(data)
	return rec
}

func TestActorMiddlewareRejectsMissingOrUnknownActor(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeMeetingService{})

	tests := []struct {
		name  string
		actor string
	}{
		{name: "missing header", actor: ""},
		{name: "non-numeric header", actor: "abc"},
		{name: "unknown user", actor: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, app, "GET", "/v1/meetings", tt.actor, nil)
			if rec.Code != fiber.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestCreateMeetingReturnsCreated(t *testing.T) {
	t.Parallel()

	svc := &fakeMeetingService{}
	var gotMeeting domain.Meeting
	svc.createFunc = func(_ context.Context, actorID int64, meeting *domain.Meeting) (*domain.Meeting, error) {
		gotMeeting = *meeting
		meeting.ID = 42
		meeting.CreatedBy = actorID
		return meeting, nil
	}
	app := newTestApp(t, svc)

	rec := doJSON(t, app, "POST", "/v1/meetings", "1", createMeetingRequest{
		Title:       "Journal Club",
		MeetingTime: "2026-01-22T10:00",
		Tags:        "weekly, optics, weekly",
	})
	if rec.Code != fiber.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	if len(gotMeeting.Tags) != 2 {
		t.Fatalf("tags = %v, want deduplicated pair", gotMeeting.Tags)
	}

	var got meetingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ID != 42 || got.CreatedBy != 1 {
		t.Fatalf("response = %+v, want id 42 created by 1", got)
	}
}

func TestGetMeetingMapsDomainErrors(t *testing.T) {
	t.Parallel()

	svc := &fakeMeetingService{
		getByIDFunc: func(_ context.Context, actorID int64, meetingID int64) (*domain.Meeting, error) {
			if meetingID == 7 {
				return nil, domain.ErrAccessDenied
			}
			return nil, domain.ErrNotFound
		},
	}
	app := newTestApp(t, svc)

	if rec := doJSON(t, app, "GET", "/v1/meetings/7", "1", nil); rec.Code != fiber.StatusForbidden {
		t.Fatalf("private meeting status = %d, want 403", rec.Code)
	}
	if rec := doJSON(t, app, "GET", "/v1/meetings/8", "1", nil); rec.Code != fiber.StatusNotFound {
		t.Fatalf("missing meeting status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, app, "GET", "/v1/meetings/zero", "1", nil); rec.Code != fiber.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", rec.Code)
	}
}

func TestListMeetingsPassesQueryOptions(t *testing.T) {
	t.Parallel()

	svc := &fakeMeetingService{}
	var gotOpts service.ListOptions
	svc.listFunc = func(_ context.Context, _ int64, opts service.ListOptions) ([]domain.Meeting, error) {
		gotOpts = opts
		return []domain.Meeting{{ID: 1, Title: "Sync", MeetingTime: "2026-01-22T10:00"}}, nil
	}
	app := newTestApp(t, svc)

	rec := doJSON(t, app, "GET", "/v1/meetings?tags=weekly,optics&upcoming=true&offset=10&limit=20", "1", nil)
	if rec.Code != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	if len(gotOpts.Tags) != 2 || !gotOpts.Upcoming || gotOpts.Offset != 10 || gotOpts.Limit != 20 {
		t.Fatalf("options = %+v, want parsed query values", gotOpts)
	}
}

func TestRespondRejectsInvalidValue(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeMeetingService{
		respondFunc: func(_ context.Context, _ int64, _ int64, response string) (*domain.MeetingResponse, error) {
			return nil, domain.ErrValidation
		},
	})

	rec := doJSON(t, app, "POST", "/v1/meetings/42/respond", "1", respondRequest{Response: "maybe"})
	if rec.Code != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestExportCalendarRendersDegradedLinks(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeMeetingService{})

	rec := doJSON(t, app, "GET", "/v1/meetings/42/calendar", "1", nil)
	if rec.Code != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got calendarResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if got.ICS != nil {
		t.Fatal("degraded export must carry a null ics payload")
	}
	if got.GoogleURL != "#" || got.OutlookURL != "#" {
		t.Fatalf("links = %q %q, want placeholders", got.GoogleURL, got.OutlookURL)
	}
}

func TestDeleteMeetingReturnsNoContent(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, &fakeMeetingService{})

	rec := doJSON(t, app, "DELETE", "/v1/meetings/42", "1", nil)
	if rec.Code != fiber.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
}
