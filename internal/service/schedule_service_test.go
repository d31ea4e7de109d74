package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventStore struct {
	mu     sync.Mutex
	events []model.AcademicEvent
	lists  int
}

func (f *fakeEventStore) ListBySchool(_ context.Context, schoolID uuid.UUID) ([]model.AcademicEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	out := make([]model.AcademicEvent, 0)
	for _, e := range f.events {
		if e.SchoolID == schoolID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) GetByID(_ context.Context, schoolID, id uuid.UUID) (*model.AcademicEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.SchoolID == schoolID && e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEventStore) Create(_ context.Context, e *model.AcademicEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeEventStore) Update(_ context.Context, e *model.AcademicEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].ID == e.ID {
			f.events[i] = *e
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeEventStore) Delete(_ context.Context, schoolID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.events {
		if f.events[i].SchoolID == schoolID && f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func newScheduleFixture() (*ScheduleService, *fakeEventStore, *memoryCache, Actor) {
	store := &fakeEventStore{}
	cache := newMemoryCache()
	svc := NewScheduleService(store, cache, 0, zerolog.Nop())
	admin := Actor{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleAdmin}
	return svc, store, cache, admin
}

func eventRequest(title, start, end string) *model.EventRequest {
	return &model.EventRequest{
		Title:        title,
		EventType:    model.EventTypeExam,
		StartDate:    start,
		EndDate:      end,
		AcademicYear: "2026/2027",
	}
}

func TestScheduleService_ListIsFreshAfterMutations(t *testing.T) {
	ctx := context.Background()
	svc, store, _, admin := newScheduleFixture()

	view, err := svc.List(ctx, admin.SchoolID, ScheduleFilter{})
	require.NoError(t, err)
	require.Empty(t, view.Events)

	// Served from cache.
	_, err = svc.List(ctx, admin.SchoolID, ScheduleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.lists)

	created, err := svc.Create(ctx, admin, eventRequest("Midterm", "2026-10-20", ""))
	require.NoError(t, err)

	view, err = svc.List(ctx, admin.SchoolID, ScheduleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Midterm"}, titles(view.Events))

	_, err = svc.Update(ctx, admin.SchoolID, created.ID, eventRequest("Final", "2026-10-21", ""))
	require.NoError(t, err)

	view, err = svc.List(ctx, admin.SchoolID, ScheduleFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Final"}, titles(view.Events))

	require.NoError(t, svc.Delete(ctx, admin.SchoolID, created.ID))

	view, err = svc.List(ctx, admin.SchoolID, ScheduleFilter{})
	require.NoError(t, err)
	assert.Empty(t, view.Events)
}

func TestScheduleService_MonthViewBucketsOverlappingEvents(t *testing.T) {
	ctx := context.Background()
	svc, _, _, admin := newScheduleFixture()

	for _, req := range []*model.EventRequest{
		eventRequest("spans", "2026-09-29", "2026-10-02"),
		eventRequest("inside", "2026-10-15", ""),
		eventRequest("outside", "2026-11-01", ""),
	} {
		_, err := svc.Create(ctx, admin, req)
		require.NoError(t, err)
	}

	view, err := svc.List(ctx, admin.SchoolID, ScheduleFilter{Month: "2026-10"})
	require.NoError(t, err)

	assert.Equal(t, []string{"spans", "inside"}, titles(view.Events))
	assert.Equal(t, []string{"spans"}, titles(view.Days["2026-10-01"]))
	assert.Equal(t, []string{"inside"}, titles(view.Days["2026-10-15"]))
	assert.NotContains(t, view.Days, "2026-09-30")
	assert.Len(t, view.Days, 3)
}

func TestScheduleService_CreateDefaultsAndValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, admin := newScheduleFixture()

	e, err := svc.Create(ctx, admin, eventRequest("Trip", "2026-10-20", ""))
	require.NoError(t, err)
	assert.True(t, e.AllDay)
	assert.Equal(t, model.EventStatusActive, e.Status)
	assert.Equal(t, model.PriorityNormal, e.Priority)
	assert.Equal(t, []string{"student", "teacher", "parent"}, e.TargetAudience)
	assert.Equal(t, admin.UserID, e.CreatedBy)

	_, err = svc.Create(ctx, admin, eventRequest("Backwards", "2026-10-20", "2026-10-19"))
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.Create(ctx, admin, eventRequest("   ", "2026-10-20", ""))
	assert.ErrorIs(t, err, ErrTitleRequired)
	_, err = svc.Update(ctx, admin.SchoolID, e.ID, eventRequest("\t", "2026-10-20", ""))
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestScheduleService_ListForAudience(t *testing.T) {
	ctx := context.Background()
	svc, _, _, admin := newScheduleFixture()

	parentsOnly := eventRequest("Parent evening", "2026-10-20", "")
	parentsOnly.TargetAudience = []string{"parent"}
	_, err := svc.Create(ctx, admin, parentsOnly)
	require.NoError(t, err)

	draft := eventRequest("Draft", "2026-10-21", "")
	draft.Status = model.EventStatusDraft
	_, err = svc.Create(ctx, admin, draft)
	require.NoError(t, err)

	students, err := svc.ListForAudience(ctx, admin.SchoolID, model.RoleStudent)
	require.NoError(t, err)
	assert.Empty(t, students)

	parents, err := svc.ListForAudience(ctx, admin.SchoolID, model.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, []string{"Parent evening"}, titles(parents))

	admins, err := svc.ListForAudience(ctx, admin.SchoolID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)

	staff := eventRequest("Staff briefing", "2026-10-22", "")
	staff.TargetAudience = []string{"teacher", "admin"}
	_, err = svc.Create(ctx, admin, staff)
	require.NoError(t, err)

	admins, err = svc.ListForAudience(ctx, admin.SchoolID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, []string{"Staff briefing"}, titles(admins))
}

func TestScheduleFilter_Match(t *testing.T) {
	e := &model.AcademicEvent{Title: "Science Fair", EventType: model.EventTypeEvent, Status: model.EventStatusActive, Subject: "Physics"}

	assert.True(t, ScheduleFilter{}.Match(e))
	assert.True(t, ScheduleFilter{Type: "all", Status: "all"}.Match(e))
	assert.True(t, ScheduleFilter{Search: "physics"}.Match(e))
	assert.False(t, ScheduleFilter{Type: "exam"}.Match(e))
	assert.False(t, ScheduleFilter{Status: "draft"}.Match(e))
	assert.False(t, ScheduleFilter{Search: "math"}.Match(e))
}
