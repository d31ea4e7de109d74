package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// EventStore is the persistence the schedule needs.
type EventStore interface {
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]model.AcademicEvent, error)
	GetByID(ctx context.Context, schoolID, id uuid.UUID) (*model.AcademicEvent, error)
	Create(ctx context.Context, e *model.AcademicEvent) error
	Update(ctx context.Context, e *model.AcademicEvent) error
	Delete(ctx context.Context, schoolID, id uuid.UUID) error
}

// JSONCache is a read-through cache for list endpoints.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// ScheduleFilter narrows the admin calendar. Empty or "all" values match everything.
type ScheduleFilter struct {
	Search string `form:"search" binding:"max=200"`
	Type   string `form:"type" binding:"omitempty,oneof=all exam assignment holiday event deadline meeting sports cultural"`
	Status string `form:"status" binding:"omitempty,oneof=all active cancelled completed draft"`
	Month  string `form:"month" binding:"omitempty,datetime=2006-01"`
}

// Match reports whether the event passes every filter.
func (f ScheduleFilter) Match(e *model.AcademicEvent) bool {
	if f.Type != "" && f.Type != "all" && string(e.EventType) != f.Type {
		return false
	}
	if f.Status != "" && f.Status != "all" && string(e.Status) != f.Status {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(e.Title), q) &&
			!strings.Contains(strings.ToLower(e.Description), q) &&
			!strings.Contains(strings.ToLower(e.Subject), q) {
			return false
		}
	}
	return true
}

// ScheduleView is the admin calendar payload. Days is only set for a month view.
type ScheduleView struct {
	Events []model.AcademicEvent             `json:"events"`
	Days   map[string][]model.AcademicEvent `json:"days,omitempty"`
}

// ScheduleService manages the academic calendar with a per-school cache.
type ScheduleService struct {
	events EventStore
	cache  JSONCache
	ttl    time.Duration
	log    zerolog.Logger
}

// NewScheduleService creates a new ScheduleService.
func NewScheduleService(events EventStore, cache JSONCache, ttl time.Duration, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		events: events,
		cache:  cache,
		ttl:    ttl,
		log:    log.With().Str("component", "schedule_service").Logger(),
	}
}

// all returns the school's events from cache, falling back to the database.
func (s *ScheduleService) all(ctx context.Context, schoolID uuid.UUID) ([]model.AcademicEvent, error) {
	key := config.CacheKey.ScheduleKey(schoolID)

	var cached []model.AcademicEvent
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("school_id", schoolID.String()).Msg("Schedule cache read failed")
	}
	if hit {
		return cached, nil
	}

	events, err := s.events.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if err := s.cache.SetJSON(ctx, key, events, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("school_id", schoolID.String()).Msg("Schedule cache write failed")
	}
	return events, nil
}

func (s *ScheduleService) invalidate(ctx context.Context, schoolID uuid.UUID) {
	if err := s.cache.Delete(ctx, config.CacheKey.ScheduleKey(schoolID)); err != nil {
		s.log.Error().Err(err).Str("school_id", schoolID.String()).Msg("Schedule cache invalidation failed")
	}
}

// List returns the filtered calendar. With a month set the events are
// restricted to those overlapping the month and bucketed by day.
func (s *ScheduleService) List(ctx context.Context, schoolID uuid.UUID, f ScheduleFilter) (*ScheduleView, error) {
	events, err := s.all(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	var window *DateRange
	if f.Month != "" {
		r, err := MonthRange(f.Month)
		if err != nil {
			return nil, err
		}
		window = &r
	}

	filtered := make([]model.AcademicEvent, 0, len(events))
	for i := range events {
		if !f.Match(&events[i]) {
			continue
		}
		if window != nil {
			span := eventSpan(&events[i])
			if span.To.Before(window.From) || span.From.After(window.To) {
				continue
			}
		}
		filtered = append(filtered, events[i])
	}

	view := &ScheduleView{Events: filtered}
	if window != nil {
		view.Days = BucketByDay(filtered, window)
	}
	return view, nil
}

// ListForAudience returns active events addressed to the given role.
func (s *ScheduleService) ListForAudience(ctx context.Context, schoolID uuid.UUID, role model.Role) ([]model.AcademicEvent, error) {
	events, err := s.all(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	out := make([]model.AcademicEvent, 0)
	for _, e := range events {
		if e.Status != model.EventStatusActive {
			continue
		}
		if slices.Contains(e.TargetAudience, string(role)) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Create validates and stores a new event.
func (s *ScheduleService) Create(ctx context.Context, actor Actor, req *model.EventRequest) (*model.AcademicEvent, error) {
	e := &model.AcademicEvent{SchoolID: actor.SchoolID, CreatedBy: actor.UserID}
	if err := applyEventRequest(e, req); err != nil {
		return nil, err
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate(ctx, actor.SchoolID)

	s.log.Info().Str("school_id", actor.SchoolID.String()).Str("event_id", e.ID.String()).Msg("Academic event created")
	return e, nil
}

// Update overwrites an existing event.
func (s *ScheduleService) Update(ctx context.Context, schoolID, id uuid.UUID, req *model.EventRequest) (*model.AcademicEvent, error) {
	e, err := s.events.GetByID(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventRequest(e, req); err != nil {
		return nil, err
	}
	if err := s.events.Update(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate(ctx, schoolID)
	return e, nil
}

// Delete removes an event.
func (s *ScheduleService) Delete(ctx context.Context, schoolID, id uuid.UUID) error {
	if err := s.events.Delete(ctx, schoolID, id); err != nil {
		return err
	}
	s.invalidate(ctx, schoolID)

	s.log.Info().Str("school_id", schoolID.String()).Str("event_id", id.String()).Msg("Academic event deleted")
	return nil
}

func applyEventRequest(e *model.AcademicEvent, req *model.EventRequest) error {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return ErrTitleRequired
	}
	start, err := ParseDay(req.StartDate)
	if err != nil {
		return err
	}
	var end *time.Time
	if req.EndDate != "" {
		d, err := ParseDay(req.EndDate)
		if err != nil {
			return err
		}
		if d.Before(start) {
			return ErrInvalidDateRange
		}
		end = &d
	}

	e.Title = title
	e.Description = req.Description
	e.EventType = req.EventType
	e.StartDate = start
	e.EndDate = end
	e.AllDay = req.AllDay == nil || *req.AllDay
	e.TargetAudience = req.TargetAudience
	if len(e.TargetAudience) == 0 {
		e.TargetAudience = []string{string(model.RoleStudent), string(model.RoleTeacher), string(model.RoleParent)}
	}
	e.GradeLevels = req.GradeLevels
	if e.GradeLevels == nil {
		e.GradeLevels = []string{}
	}
	e.Subject = req.Subject
	e.AcademicYear = req.AcademicYear
	e.Term = req.Term
	e.Status = req.Status
	if e.Status == "" {
		e.Status = model.EventStatusActive
	}
	e.Priority = req.Priority
	if e.Priority == "" {
		e.Priority = model.PriorityNormal
	}
	e.Location = req.Location
	e.MeetingLink = req.MeetingLink
	e.SendNotification = req.SendNotification != nil && *req.SendNotification
	return nil
}
