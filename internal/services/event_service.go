package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrEventNotFound       = errors.New("event not found")
	ErrEventNotCancelled   = errors.New("event is not cancelled")
	ErrAlreadyInterested   = errors.New("you are already interested in this event")
	ErrNotInterested       = errors.New("you are not interested in this event")
	errOrganizationMissing = invalid("organization", "Organization is required.")
)

// EventService provides business logic for events, their lifecycle and
// participation.
type EventService struct {
	eventRepo repository.EventRepository
	orgs      *OrganizationService
	now       func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(eventRepo repository.EventRepository, orgs *OrganizationService) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		orgs:      orgs,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// EventDetail is an event with aggregates computed for one caller.
type EventDetail struct {
	Event models.Event
	repository.EventStats
	IsFull bool
}

// EventInput carries event fields. Absent fields are left unchanged on update.
type EventInput struct {
	Name         utils.Nullable[string]
	Date         utils.Nullable[time.Time]
	Location     utils.Nullable[string]
	Description  utils.Nullable[string]
	Category     utils.Nullable[string]
	Capacity     utils.Nullable[int]
	Organization utils.Nullable[uint64]
}

// EventScope restricts listings by date relative to now.
type EventScope int

const (
	ScopeAll EventScope = iota
	ScopeUpcoming
	ScopePast
)

// EventQuery holds caller-supplied listing filters.
type EventQuery struct {
	Scope          EventScope
	OrganizationID *uint64
	Categories     []string
	DateFilter     string
	DateFrom       string
	DateTo         string
	Search         string
	Pagination     utils.PaginationParams
}

func (s *EventService) find(ctx context.Context, id uint64) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return event, nil
}

// load finds an event and the actor's relationship to its organization.
// Cancelled events are reported as missing to callers outside the organization.
func (s *EventService) load(ctx context.Context, actor access.Actor, id uint64) (*models.Event, access.Relationship, error) {
	event, err := s.find(ctx, id)
	if err != nil {
		return nil, access.RelationshipAnonymous, err
	}
	rel, err := s.orgs.Relationship(ctx, actor, &event.Organization)
	if err != nil {
		return nil, access.RelationshipAnonymous, err
	}
	if event.IsCancelled() && !access.CanSeeAllEvents(rel) {
		return nil, rel, ErrEventNotFound
	}
	return event, rel, nil
}

func (s *EventService) details(ctx context.Context, actor access.Actor, events []models.Event) ([]EventDetail, error) {
	ids := make([]uint64, len(events))
	for i, event := range events {
		ids[i] = event.ID
	}

	stats, err := s.eventRepo.Stats(ctx, ids, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event stats: %w", err)
	}

	details := make([]EventDetail, len(events))
	for i, event := range events {
		st := stats[event.ID]
		details[i] = EventDetail{
			Event:      event,
			EventStats: st,
			IsFull:     access.IsFull(event.Capacity, st.ParticipantCount),
		}
	}
	return details, nil
}

func (s *EventService) detail(ctx context.Context, actor access.Actor, event *models.Event) (*EventDetail, error) {
	details, err := s.details(ctx, actor, []models.Event{*event})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// List returns events visible to the actor: active events everywhere plus
// every event of organizations the actor owns or collaborates on.
func (s *EventService) List(ctx context.Context, actor access.Actor, query EventQuery) ([]EventDetail, int64, error) {
	filter, err := s.buildFilter(query)
	if err != nil {
		return nil, 0, err
	}

	if actor.IsAuthenticated() {
		memberIDs, err := s.orgs.orgRepo.MemberOrganizationIDs(ctx, actor.UserID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load memberships: %w", err)
		}
		filter.MemberOrganizationIDs = memberIDs
	}

	return s.list(ctx, actor, filter)
}

// ForOrganization lists an organization's events. Outsiders see active events
// only; the owner and collaborators see every status.
func (s *EventService) ForOrganization(ctx context.Context, actor access.Actor, organizationID uint64, params utils.PaginationParams) ([]EventDetail, int64, error) {
	_, rel, err := s.orgs.Load(ctx, actor, organizationID)
	if err != nil {
		return nil, 0, err
	}

	return s.list(ctx, actor, repository.EventFilter{
		OrganizationID: &organizationID,
		AllStatuses:    access.CanSeeAllEvents(rel),
		Pagination:     params,
	})
}

// Participating lists the events the actor is registered for.
func (s *EventService) Participating(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]EventDetail, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, access.ErrAuthenticationRequired
	}
	return s.list(ctx, actor, repository.EventFilter{ParticipantID: &actor.UserID, AllStatuses: true, Pagination: params})
}

// Interested lists the events the actor marked as interesting.
func (s *EventService) Interested(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]EventDetail, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, access.ErrAuthenticationRequired
	}
	return s.list(ctx, actor, repository.EventFilter{InterestedID: &actor.UserID, AllStatuses: true, Pagination: params})
}

// Organized lists the events the actor created.
func (s *EventService) Organized(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]EventDetail, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, access.ErrAuthenticationRequired
	}
	return s.list(ctx, actor, repository.EventFilter{OrganizerID: &actor.UserID, AllStatuses: true, Pagination: params})
}

func (s *EventService) list(ctx context.Context, actor access.Actor, filter repository.EventFilter) ([]EventDetail, int64, error) {
	events, total, err := s.eventRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	details, err := s.details(ctx, actor, events)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *EventService) buildFilter(query EventQuery) (repository.EventFilter, error) {
	now := s.now()
	filter := repository.EventFilter{
		OrganizationID: query.OrganizationID,
		Search:         query.Search,
		Pagination:     query.Pagination,
	}

	for _, category := range query.Categories {
		if category = strings.TrimSpace(category); category != "" {
			filter.Categories = append(filter.Categories, category)
		}
	}

	var from, to []time.Time
	switch query.Scope {
	case ScopeUpcoming:
		from = append(from, now)
	case ScopePast:
		to = append(to, now.Add(-time.Nanosecond))
		filter.SortDesc = true
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch query.DateFilter {
	case "":
	case "today":
		from = append(from, startOfDay)
		to = append(to, endOfDay(startOfDay))
	case "tomorrow":
		tomorrow := startOfDay.AddDate(0, 0, 1)
		from = append(from, tomorrow)
		to = append(to, endOfDay(tomorrow))
	case "this_week":
		daysUntilSunday := (7 - int(now.Weekday())) % 7
		from = append(from, startOfDay)
		to = append(to, endOfDay(startOfDay.AddDate(0, 0, daysUntilSunday)))
	default:
		return filter, invalid("date_filter", "Use one of today, tomorrow, this_week.")
	}

	if query.DateFrom != "" {
		date, err := time.ParseInLocation(constants.DateLayout, query.DateFrom, time.UTC)
		if err != nil {
			return filter, invalid("date_from", "Date has wrong format. Use YYYY-MM-DD.")
		}
		from = append(from, date)
	}
	if query.DateTo != "" {
		date, err := time.ParseInLocation(constants.DateLayout, query.DateTo, time.UTC)
		if err != nil {
			return filter, invalid("date_to", "Date has wrong format. Use YYYY-MM-DD.")
		}
		to = append(to, endOfDay(date))
	}

	filter.DateFrom = latest(from)
	filter.DateTo = earliest(to)
	return filter, nil
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func latest(times []time.Time) *time.Time {
	if len(times) == 0 {
		return nil
	}
	t := times[0]
	for _, candidate := range times[1:] {
		if candidate.After(t) {
			t = candidate
		}
	}
	return &t
}

func earliest(times []time.Time) *time.Time {
	if len(times) == 0 {
		return nil
	}
	t := times[0]
	for _, candidate := range times[1:] {
		if candidate.Before(t) {
			t = candidate
		}
	}
	return &t
}

// Get returns an event visible to the actor.
func (s *EventService) Get(ctx context.Context, actor access.Actor, id uint64) (*EventDetail, error) {
	event, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, actor, event)
}

// Create creates an event in an organization the actor owns or collaborates
// on. The actor always becomes the organizer.
func (s *EventService) Create(ctx context.Context, actor access.Actor, input EventInput) (*EventDetail, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	organizationID := input.Organization.Ptr()
	if organizationID == nil || *organizationID == 0 {
		return nil, errOrganizationMissing
	}

	org, rel, err := s.orgs.Load(ctx, actor, *organizationID)
	if err != nil {
		if errors.Is(err, ErrOrganizationNotFound) {
			return nil, invalid("organization", fmt.Sprintf("Invalid pk %q - object does not exist.", fmt.Sprint(*organizationID)))
		}
		return nil, err
	}
	if err := access.CanCreateEvent(actor, rel); err != nil {
		return nil, err
	}

	if input.Name.Ptr() == nil {
		return nil, invalid("name", "This field is required.")
	}
	if input.Date.Ptr() == nil {
		return nil, invalid("date", "This field is required.")
	}

	event := &models.Event{
		OrganizerID:    actor.UserID,
		OrganizationID: org.ID,
		Status:         models.EventStatusActive,
	}
	if err := applyEventInput(event, input); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return s.Get(ctx, actor, event.ID)
}

// Update changes event fields. The organization can never be cleared or moved.
func (s *EventService) Update(ctx context.Context, actor access.Actor, id uint64, input EventInput) (*EventDetail, error) {
	event, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageEvent(actor, rel, event.OrganizerID); err != nil {
		return nil, err
	}

	if input.Organization.Set {
		if input.Organization.Null || input.Organization.Value == 0 {
			return nil, errOrganizationMissing
		}
		if input.Organization.Value != event.OrganizationID {
			return nil, invalid("organization", "Organization cannot be changed.")
		}
	}
	if input.Name.Set && (input.Name.Null || strings.TrimSpace(input.Name.Value) == "") {
		return nil, invalid("name", "This field may not be blank.")
	}
	if input.Date.Set && input.Date.Null {
		return nil, invalid("date", "This field may not be null.")
	}

	if err := applyEventInput(event, input); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return s.Get(ctx, actor, event.ID)
}

func applyEventInput(event *models.Event, input EventInput) error {
	if input.Capacity.Set {
		capacity := input.Capacity.Ptr()
		switch {
		case capacity == nil || *capacity == 0:
			event.Capacity = nil
		case *capacity < 0:
			return invalid("capacity", "Capacity cannot be negative.")
		default:
			event.Capacity = capacity
		}
	}

	if name := input.Name.Ptr(); name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return invalid("name", "This field may not be blank.")
		}
		event.Name = trimmed
	}
	if date := input.Date.Ptr(); date != nil {
		event.Date = date.UTC()
	}
	if input.Location.Set {
		event.Location = strings.TrimSpace(input.Location.Value)
	}
	if input.Description.Set {
		event.Description = strings.TrimSpace(input.Description.Value)
	}
	if input.Category.Set {
		event.Category = strings.TrimSpace(input.Category.Value)
	}
	return nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, actor access.Actor, id uint64) error {
	event, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := access.CanManageEvent(actor, rel, event.OrganizerID); err != nil {
		return err
	}

	if err := s.eventRepo.Delete(ctx, event.ID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// Cancel moves an event to Cancelled. Cancelling a cancelled event is a no-op.
func (s *EventService) Cancel(ctx context.Context, actor access.Actor, id uint64) (*EventDetail, error) {
	return s.transition(ctx, actor, id, models.EventStatusCancelled)
}

// Uncancel moves a cancelled event back to Active.
func (s *EventService) Uncancel(ctx context.Context, actor access.Actor, id uint64) (*EventDetail, error) {
	return s.transition(ctx, actor, id, models.EventStatusActive)
}

func (s *EventService) transition(ctx context.Context, actor access.Actor, id uint64, to models.EventStatus) (*EventDetail, error) {
	event, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageEvent(actor, rel, event.OrganizerID); err != nil {
		return nil, err
	}
	if to == models.EventStatusActive && !event.IsCancelled() {
		return nil, ErrEventNotCancelled
	}

	if event.Status != to {
		if err := s.eventRepo.UpdateStatus(ctx, event.ID, to); err != nil {
			return nil, fmt.Errorf("failed to update event status: %w", err)
		}
		event.Status = to
	}

	return s.detail(ctx, actor, event)
}

// Participants lists the users registered for an event. Owner and
// collaborators only.
func (s *EventService) Participants(ctx context.Context, actor access.Actor, id uint64) ([]models.User, error) {
	event, rel, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	if !access.CanSeeAllEvents(rel) {
		return nil, &access.Denial{Reason: "Only the organization owner or collaborators can view participants."}
	}

	users, err := s.eventRepo.ListParticipants(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return users, nil
}

// ParticipationOutcome is the result of a join or leave attempt.
type ParticipationOutcome int

const (
	OutcomeRegistered ParticipationOutcome = iota
	OutcomeAlreadyRegistered
	OutcomeFull
	OutcomeRemoved
	OutcomeNotRegistered
)

// ParticipationResult reports an outcome together with the event's state after
// the attempt.
type ParticipationResult struct {
	Outcome          ParticipationOutcome
	ParticipantCount int64
	IsParticipating  bool
	IsFull           bool
}

// Detail returns the caller-facing message for the outcome.
func (r ParticipationResult) Detail() string {
	switch r.Outcome {
	case OutcomeAlreadyRegistered:
		return "Already registered."
	case OutcomeFull:
		return "Event is full."
	case OutcomeRemoved:
		return "Participation removed."
	case OutcomeNotRegistered:
		return "You are not registered for this event."
	default:
		return "Participation registered."
	}
}

// Participate registers the actor for an event unless already registered or
// the event is full.
func (s *EventService) Participate(ctx context.Context, actor access.Actor, id uint64) (*ParticipationResult, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	event, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	outcome := OutcomeRegistered
	already, err := s.eventRepo.IsParticipant(ctx, event.ID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}
	if already {
		outcome = OutcomeAlreadyRegistered
	} else {
		inserted, err := s.eventRepo.AddParticipant(ctx, event.ID, actor.UserID, s.now())
		switch {
		case errors.Is(err, repository.ErrAlreadyParticipant):
			outcome = OutcomeAlreadyRegistered
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrEventNotFound
		case err != nil:
			return nil, fmt.Errorf("failed to add participant: %w", err)
		case !inserted:
			outcome = OutcomeFull
		}
	}

	return s.participationResult(ctx, event, actor, outcome)
}

// Leave removes the actor's registration for an event.
func (s *EventService) Leave(ctx context.Context, actor access.Actor, id uint64) (*ParticipationResult, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	event, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.eventRepo.RemoveParticipant(ctx, event.ID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove participant: %w", err)
	}
	outcome := OutcomeRemoved
	if !removed {
		outcome = OutcomeNotRegistered
	}

	return s.participationResult(ctx, event, actor, outcome)
}

func (s *EventService) participationResult(ctx context.Context, event *models.Event, actor access.Actor, outcome ParticipationOutcome) (*ParticipationResult, error) {
	count, err := s.eventRepo.CountParticipants(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	participating, err := s.eventRepo.IsParticipant(ctx, event.ID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check participation: %w", err)
	}

	return &ParticipationResult{
		Outcome:          outcome,
		ParticipantCount: count,
		IsParticipating:  participating,
		IsFull:           access.IsFull(event.Capacity, count),
	}, nil
}

// InterestResult reports the actor's interest state after a change.
type InterestResult struct {
	IsInterested  bool
	InterestCount int64
}

// AddInterest marks an event as interesting to the actor.
func (s *EventService) AddInterest(ctx context.Context, actor access.Actor, id uint64) (*InterestResult, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	event, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.eventRepo.AddInterest(ctx, event.ID, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyInterested
		}
		return nil, fmt.Errorf("failed to add interest: %w", err)
	}
	return s.interestResult(ctx, event.ID, actor)
}

// RemoveInterest clears the actor's interest mark.
func (s *EventService) RemoveInterest(ctx context.Context, actor access.Actor, id uint64) (*InterestResult, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	event, _, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	removed, err := s.eventRepo.RemoveInterest(ctx, event.ID, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove interest: %w", err)
	}
	if !removed {
		return nil, ErrNotInterested
	}
	return s.interestResult(ctx, event.ID, actor)
}

func (s *EventService) interestResult(ctx context.Context, eventID uint64, actor access.Actor) (*InterestResult, error) {
	stats, err := s.eventRepo.Stats(ctx, []uint64{eventID}, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event stats: %w", err)
	}
	st := stats[eventID]
	return &InterestResult{IsInterested: st.IsInterested, InterestCount: st.InterestCount}, nil
}
