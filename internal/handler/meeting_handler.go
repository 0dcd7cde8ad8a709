package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/labmanhq/labman/internal/calendar"
	"github.com/labmanhq/labman/internal/domain"
	"github.com/labmanhq/labman/internal/service"
)

const actorHeader = "X-User-ID"

const actorLocalKey = "actorID"

// MeetingService is the surface of the meeting core consumed by HTTP
// transport.
type MeetingService interface {
	Actor(ctx context.Context, actorID int64) (domain.User, error)
	Create(ctx context.Context, actorID int64, meeting *domain.Meeting) (*domain.Meeting, error)
	Update(ctx context.Context, actorID int64, meetingID int64, update domain.MeetingUpdate) (*domain.Meeting, error)
	Delete(ctx context.Context, actorID int64, meetingID int64) error
	GetByID(ctx context.Context, actorID int64, meetingID int64) (*domain.Meeting, error)
	List(ctx context.Context, actorID int64, opts service.ListOptions) ([]domain.Meeting, error)
	ThisWeek(ctx context.Context, actorID int64) ([]domain.Meeting, error)
	ByMonth(ctx context.Context, actorID int64, year int, month int) ([]domain.Meeting, error)
	AllTags(ctx context.Context) ([]string, error)
	Respond(ctx context.Context, actorID int64, meetingID int64, response string) (*domain.MeetingResponse, error)
	ListResponses(ctx context.Context, actorID int64, meetingID int64) ([]domain.MeetingResponse, error)
	ExportCalendar(ctx context.Context, actorID int64, meetingID int64) (calendar.Export, error)
}

type MeetingHandler struct {
	service MeetingService
}

func NewMeetingHandler(service MeetingService) (*MeetingHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("meeting service is required")
	}
	return &MeetingHandler{service: service}, nil
}

func RegisterMeetingRoutes(router fiber.Router, service MeetingService) error {
	h, err := NewMeetingHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1", ActorMiddleware(service))
	v1.Post("/meetings", h.CreateMeeting)
	v1.Get("/meetings", h.ListMeetings)
	v1.Get("/meetings/week", h.ThisWeek)
	v1.Get("/meetings/month/:year/:month", h.ByMonth)
	v1.Get("/meetings/:id", h.GetMeeting)
	v1.Patch("/meetings/:id", h.UpdateMeeting)
	v1.Delete("/meetings/:id", h.DeleteMeeting)
	v1.Post("/meetings/:id/respond", h.Respond)
	v1.Get("/meetings/:id/responses", h.ListResponses)
	v1.Get("/meetings/:id/calendar", h.ExportCalendar)
	v1.Get("/tags", h.AllTags)

	return nil
}

// ActorMiddleware authenticates the X-User-ID header against the
// member directory and stashes the actor ID for the handlers.
func ActorMiddleware(service MeetingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(actorHeader))
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing "+actorHeader+" header")
		}

		actorID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || actorID < 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid "+actorHeader+" header")
		}

		if _, err := service.Actor(c.Context(), actorID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
			}
			return err
		}

		c.Locals(actorLocalKey, actorID)
		return c.Next()
	}
}

type createMeetingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MeetingTime string `json:"meetingTime"`
	GroupID     *int64 `json:"groupId"`
	IsPrivate   bool   `json:"isPrivate"`
	Tags        string `json:"tags"`
	Summary     string `json:"summary"`
}

type updateMeetingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	MeetingTime *string `json:"meetingTime"`
	GroupID     *int64  `json:"groupId"`
	ClearGroup  bool    `json:"clearGroup"`
	IsPrivate   *bool   `json:"isPrivate"`
	Tags        *string `json:"tags"`
	Summary     *string `json:"summary"`
}

type respondRequest struct {
	Response string `json:"response"`
}

type meetingResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	MeetingTime string    `json:"meetingTime"`
	CreatedBy   int64     `json:"createdBy"`
	CreatorName string    `json:"creatorName,omitempty"`
	GroupID     *int64    `json:"groupId,omitempty"`
	GroupName   string    `json:"groupName,omitempty"`
	IsPrivate   bool      `json:"isPrivate"`
	Tags        []string  `json:"tags,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

type rsvpResponse struct {
	MeetingID int64  `json:"meetingId"`
	UserID    int64  `json:"userId"`
	UserName  string `json:"userName,omitempty"`
	Response  string `json:"response"`
}

type calendarResponse struct {
	ICS        *string `json:"ics"`
	GoogleURL  string  `json:"googleUrl"`
	OutlookURL string  `json:"outlookUrl"`
}

func (h *MeetingHandler) CreateMeeting(c *fiber.Ctx) error {
	var req createMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	meeting := domain.Meeting{
		Title:       req.Title,
		Description: req.Description,
		MeetingTime: req.MeetingTime,
		GroupID:     req.GroupID,
		IsPrivate:   req.IsPrivate,
		Tags:        domain.NormalizeTags(req.Tags),
		Summary:     req.Summary,
	}

	created, err := h.service.Create(c.Context(), actorID(c), &meeting)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toMeetingResponse(created))
}

func (h *MeetingHandler) UpdateMeeting(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateMeetingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	update := domain.MeetingUpdate{
		Title:       req.Title,
		Description: req.Description,
		MeetingTime: req.MeetingTime,
		GroupID:     req.GroupID,
		ClearGroup:  req.ClearGroup,
		IsPrivate:   req.IsPrivate,
		Summary:     req.Summary,
	}
	if req.Tags != nil {
		update.Tags = domain.NormalizeTags(*req.Tags)
		if update.Tags == nil {
			update.Tags = []string{}
		}
	}

	updated, err := h.service.Update(c.Context(), actorID(c), meetingID, update)
	if err != nil {
		return err
	}
	return c.JSON(toMeetingResponse(updated))
}

func (h *MeetingHandler) DeleteMeeting(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), actorID(c), meetingID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MeetingHandler) GetMeeting(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	meeting, err := h.service.GetByID(c.Context(), actorID(c), meetingID)
	if err != nil {
		return err
	}
	return c.JSON(toMeetingResponse(meeting))
}

func (h *MeetingHandler) ListMeetings(c *fiber.Ctx) error {
	opts := service.ListOptions{
		Tags:     domain.NormalizeTags(c.Query("tags")),
		Upcoming: c.QueryBool("upcoming"),
		Offset:   c.QueryInt("offset", 0),
		Limit:    c.QueryInt("limit", 0),
	}

	meetings, err := h.service.List(c.Context(), actorID(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(toMeetingResponses(meetings))
}

func (h *MeetingHandler) ThisWeek(c *fiber.Ctx) error {
	meetings, err := h.service.ThisWeek(c.Context(), actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(toMeetingResponses(meetings))
}

func (h *MeetingHandler) ByMonth(c *fiber.Ctx) error {
	year, err := strconv.Atoi(c.Params("year"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid year")
	}
	month, err := strconv.Atoi(c.Params("month"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid month")
	}

	meetings, err := h.service.ByMonth(c.Context(), actorID(c), year, month)
	if err != nil {
		return err
	}
	return c.JSON(toMeetingResponses(meetings))
}

func (h *MeetingHandler) AllTags(c *fiber.Ctx) error {
	tags, err := h.service.AllTags(c.Context())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []string{}
	}
	return c.JSON(fiber.Map{"tags": tags})
}

func (h *MeetingHandler) Respond(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	record, err := h.service.Respond(c.Context(), actorID(c), meetingID, req.Response)
	if err != nil {
		return err
	}
	return c.JSON(toRSVPResponse(record))
}

func (h *MeetingHandler) ListResponses(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	records, err := h.service.ListResponses(c.Context(), actorID(c), meetingID)
	if err != nil {
		return err
	}

	items := make([]rsvpResponse, 0, len(records))
	for i := range records {
		items = append(items, toRSVPResponse(&records[i]))
	}
	return c.JSON(items)
}

func (h *MeetingHandler) ExportCalendar(c *fiber.Ctx) error {
	meetingID, err := pathID(c)
	if err != nil {
		return err
	}

	export, err := h.service.ExportCalendar(c.Context(), actorID(c), meetingID)
	if err != nil {
		return err
	}
	return c.JSON(calendarResponse{
		ICS:        export.ICS,
		GoogleURL:  export.GoogleURL,
		OutlookURL: export.OutlookURL,
	})
}

func actorID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(actorLocalKey).(int64)
	return id
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid meeting id")
	}
	return id, nil
}

func toMeetingResponse(m *domain.Meeting) meetingResponse {
	return meetingResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		MeetingTime: m.MeetingTime,
		CreatedBy:   m.CreatedBy,
		CreatorName: m.CreatorName,
		GroupID:     m.GroupID,
		GroupName:   m.GroupName,
		IsPrivate:   m.IsPrivate,
		Tags:        m.Tags,
		Summary:     m.Summary,
		CreatedAt:   m.CreatedAt,
	}
}

func toMeetingResponses(meetings []domain.Meeting) []meetingResponse {
	items := make([]meetingResponse, 0, len(meetings))
	for i := range meetings {
		items = append(items, toMeetingResponse(&meetings[i]))
	}
	return items
}

func toRSVPResponse(r *domain.MeetingResponse) rsvpResponse {
	return rsvpResponse{
		MeetingID: r.MeetingID,
		UserID:    r.UserID,
		UserName:  r.UserName,
		Response:  r.Response.String(),
	}
}
