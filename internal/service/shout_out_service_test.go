package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeShoutOutStore struct {
	templates []model.ShoutOutTemplate
	students  []model.ShoutOutStudent
	created   []model.ShoutOut
	xp        map[uuid.UUID]int
	since     time.Time
}

func (f *fakeShoutOutStore) ListByTeacher(_ context.Context, _, teacherID uuid.UUID, category string) ([]model.ShoutOut, error) {
	out := make([]model.ShoutOut, 0)
	for _, s := range f.created {
		if s.TeacherID == teacherID && (category == "" || string(s.Category) == category) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShoutOutStore) ListTemplates(context.Context, uuid.UUID) ([]model.ShoutOutTemplate, error) {
	return f.templates, nil
}

func (f *fakeShoutOutStore) GetTemplate(_ context.Context, _, id uuid.UUID) (*model.ShoutOutTemplate, error) {
	for _, t := range f.templates {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeShoutOutStore) Create(_ context.Context, s *model.ShoutOut, xp int) error {
	s.ID = uuid.New()
	f.created = append(f.created, *s)
	f.xp[s.StudentID] += xp
	return nil
}

func (f *fakeShoutOutStore) ListStudents(_ context.Context, _ uuid.UUID, _ *uuid.UUID, since time.Time) ([]model.ShoutOutStudent, error) {
	f.since = since
	return f.students, nil
}

func TestResolveShoutOut(t *testing.T) {
	tmpl := &model.ShoutOutTemplate{Category: model.CategoryKindness, Message: "Thank you for helping!", Badge: "heart"}

	category, msg, badge, err := ResolveShoutOut(&model.SendShoutOutRequest{}, tmpl)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryKindness, category)
	assert.Equal(t, "Thank you for helping!", msg)
	assert.Equal(t, "heart", badge)

	category, msg, _, err = ResolveShoutOut(&model.SendShoutOutRequest{Category: model.CategoryAcademic, Message: " Great essay "}, tmpl)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryAcademic, category)
	assert.Equal(t, "Great essay", msg)

	category, _, badge, err = ResolveShoutOut(&model.SendShoutOutRequest{Message: "Well done"}, nil)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryEffort, category)
	assert.Empty(t, badge)

	_, _, _, err = ResolveShoutOut(&model.SendShoutOutRequest{Message: "   "}, nil)
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestShoutOutService_SendFromTemplateAwardsXP(t *testing.T) {
	ctx := context.Background()
	tmplID := uuid.New()
	store := &fakeShoutOutStore{
		templates: []model.ShoutOutTemplate{{ID: tmplID, Category: model.CategoryLeadership, Message: "Great leadership!", Badge: "star"}},
		xp:        make(map[uuid.UUID]int),
	}
	svc := NewShoutOutService(store, zerolog.Nop())
	teacher := Actor{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleTeacher}
	student := uuid.New()

	so, err := svc.Send(ctx, teacher, &model.SendShoutOutRequest{StudentID: student, TemplateID: &tmplID, IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryLeadership, so.Category)
	assert.Equal(t, "star", so.Badge)
	assert.Equal(t, ShoutOutXP, store.xp[student])

	missing := uuid.New()
	_, err = svc.Send(ctx, teacher, &model.SendShoutOutRequest{StudentID: student, TemplateID: &missing})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := svc.List(ctx, teacher, "all")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = svc.List(ctx, teacher, "academic")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestShoutOutService_StudentsSearch(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	store := &fakeShoutOutStore{
		students: []model.ShoutOutStudent{
			{ID: uuid.New(), Name: "Ana Lee", ClassName: "7A"},
			{ID: uuid.New(), Name: "Ben Kim", ClassName: "8B"},
		},
		xp: make(map[uuid.UUID]int),
	}
	svc := NewShoutOutService(store, zerolog.Nop())
	svc.now = func() time.Time { return now }
	teacher := Actor{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleTeacher}

	got, err := svc.Students(context.Background(), teacher, nil, "8b")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ben Kim", got[0].Name)
	assert.Equal(t, now.Add(-30*24*time.Hour), store.since)

	got, err = svc.Students(context.Background(), teacher, nil, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
