package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/dto"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/services"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"go.uber.org/zap"
)

const invalidDatetimeMessage = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."

// EventHandler serves events, their lifecycle and participation.
type EventHandler struct {
	eventService *services.EventService
	logger       *zap.Logger
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(eventService *services.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

type eventRequest struct {
	Name         utils.Nullable[string] `json:"name"`
	Date         utils.Nullable[string] `json:"date"`
	Location     utils.Nullable[string] `json:"location"`
	Description  utils.Nullable[string] `json:"description"`
	Category     utils.Nullable[string] `json:"category"`
	Capacity     utils.Nullable[int]    `json:"capacity"`
	Organization utils.Nullable[uint64] `json:"organization"`
}

// input converts the request, parsing the date when one was sent.
func (r eventRequest) input() (services.EventInput, bool) {
	input := services.EventInput{
		Name:         r.Name,
		Location:     r.Location,
		Description:  r.Description,
		Category:     r.Category,
		Capacity:     r.Capacity,
		Organization: r.Organization,
	}

	input.Date.Set = r.Date.Set
	input.Date.Null = r.Date.Null
	if raw := r.Date.Ptr(); raw != nil {
		date, err := time.Parse(time.RFC3339, *raw)
		if err != nil {
			return input, false
		}
		input.Date.Value = date.UTC()
	}
	return input, true
}

func (h *EventHandler) bindEventInput(c *gin.Context) (services.EventInput, bool) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return services.EventInput{}, false
	}
	input, ok := req.input()
	if !ok {
		apierrors.Validation(c, "date", invalidDatetimeMessage)
		return services.EventInput{}, false
	}
	return input, true
}

func parseEventQuery(c *gin.Context, scope services.EventScope) (services.EventQuery, bool) {
	query := services.EventQuery{
		Scope:      scope,
		DateFilter: c.Query("date_filter"),
		DateFrom:   c.Query("date_from"),
		DateTo:     c.Query("date_to"),
		Search:     strings.TrimSpace(c.Query("search")),
		Pagination: utils.GetPaginationParams(c),
	}

	for _, category := range c.QueryArray("category") {
		for _, part := range strings.Split(category, ",") {
			if part = strings.TrimSpace(part); part != "" {
				query.Categories = append(query.Categories, part)
			}
		}
	}

	raw := c.Query("organization_id")
	if raw == "" {
		raw = c.Query("organization")
	}
	if raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.Validation(c, "organization_id", "Select a valid choice.")
			return query, false
		}
		query.OrganizationID = &id
	}
	return query, true
}

func (h *EventHandler) respondEventList(c *gin.Context, details []services.EventDetail, total int64, params utils.PaginationParams) {
	c.JSON(http.StatusOK, gin.H{
		"events": dto.ToEventDTOs(details),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListEvents returns visible events, earliest date first
func (h *EventHandler) ListEvents(c *gin.Context) {
	h.listScoped(c, services.ScopeAll)
}

// UpcomingEvents returns visible events dated from now on
func (h *EventHandler) UpcomingEvents(c *gin.Context) {
	h.listScoped(c, services.ScopeUpcoming)
}

// PastEvents returns visible events dated before now
func (h *EventHandler) PastEvents(c *gin.Context) {
	h.listScoped(c, services.ScopePast)
}

func (h *EventHandler) listScoped(c *gin.Context, scope services.EventScope) {
	query, ok := parseEventQuery(c, scope)
	if !ok {
		return
	}

	details, total, err := h.eventService.List(c.Request.Context(), middleware.GetActor(c), query)
	if err != nil {
		h.respondEventError(c, err)
		return
	}
	h.respondEventList(c, details, total, query.Pagination)
}

// ParticipatingEvents lists events the caller is registered for
func (h *EventHandler) ParticipatingEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	details, total, err := h.eventService.Participating(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondEventError(c, err)
		return
	}
	h.respondEventList(c, details, total, params)
}

// InterestedEvents lists events the caller marked as interesting
func (h *EventHandler) InterestedEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	details, total, err := h.eventService.Interested(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondEventError(c, err)
		return
	}
	h.respondEventList(c, details, total, params)
}

// OrganizedEvents lists events the caller organizes
func (h *EventHandler) OrganizedEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	details, total, err := h.eventService.Organized(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondEventError(c, err)
		return
	}
	h.respondEventList(c, details, total, params)
}

// CreateEvent creates an event in one of the caller's organizations
func (h *EventHandler) CreateEvent(c *gin.Context) {
	input, ok := h.bindEventInput(c)
	if !ok {
		return
	}

	detail, err := h.eventService.Create(c.Request.Context(), middleware.GetActor(c), input)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEventDTO(*detail))
}

// GetEvent returns a single event
func (h *EventHandler) GetEvent(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	detail, err := h.eventService.Get(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTO(*detail))
}

// UpdateEvent changes event fields. PUT and PATCH both apply only the fields sent.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}
	input, ok := h.bindEventInput(c)
	if !ok {
		return
	}

	detail, err := h.eventService.Update(c.Request.Context(), middleware.GetActor(c), eventID, input)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTO(*detail))
}

// DeleteEvent removes an event
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	if err := h.eventService.Delete(c.Request.Context(), middleware.GetActor(c), eventID); err != nil {
		h.respondEventError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CancelEvent marks an event as cancelled
func (h *EventHandler) CancelEvent(c *gin.Context) {
	h.transition(c, h.eventService.Cancel, "Event cancelled.")
}

// UncancelEvent reactivates a cancelled event
func (h *EventHandler) UncancelEvent(c *gin.Context) {
	h.transition(c, h.eventService.Uncancel, "Event reactivated.")
}

func (h *EventHandler) transition(c *gin.Context, apply func(context.Context, access.Actor, uint64) (*services.EventDetail, error), detail string) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	event, err := apply(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail": detail,
		"event":  dto.ToEventDTO(*event),
	})
}

// Participate registers the caller for an event
func (h *EventHandler) Participate(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	result, err := h.eventService.Participate(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	status := http.StatusCreated
	switch result.Outcome {
	case services.OutcomeAlreadyRegistered:
		status = http.StatusOK
	case services.OutcomeFull:
		status = http.StatusBadRequest
	}
	c.JSON(status, dto.ToParticipationDTO(*result))
}

// LeaveEvent removes the caller's registration
func (h *EventHandler) LeaveEvent(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	result, err := h.eventService.Leave(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	status := http.StatusOK
	if result.Outcome == services.OutcomeNotRegistered {
		status = http.StatusNotFound
	}
	c.JSON(status, dto.ToParticipationDTO(*result))
}

// AddInterest marks an event as interesting to the caller
func (h *EventHandler) AddInterest(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	result, err := h.eventService.AddInterest(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToInterestDTO(*result))
}

// RemoveInterest clears the caller's interest mark
func (h *EventHandler) RemoveInterest(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	result, err := h.eventService.RemoveInterest(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInterestDTO(*result))
}

// ListParticipants lists users registered for an event. Members only.
func (h *EventHandler) ListParticipants(c *gin.Context) {
	eventID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid event ID")
		return
	}

	users, err := h.eventService.Participants(c.Request.Context(), middleware.GetActor(c), eventID)
	if err != nil {
		h.respondEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": dto.ToUserDTOs(users),
		"count":        len(users),
	})
}

func (h *EventHandler) respondEventError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrEventNotFound):
		apierrors.NotFound(c, "Event not found.")
	case errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, "Organization not found.")
	case errors.Is(err, services.ErrEventNotCancelled):
		apierrors.Conflict(c, "Event is not cancelled.")
	case errors.Is(err, services.ErrAlreadyInterested):
		apierrors.Conflict(c, "You are already interested in this event.")
	case errors.Is(err, services.ErrNotInterested):
		apierrors.Conflict(c, "You are not interested in this event.")
	default:
		respondInternalError(c, h.logger, err)
	}
}
