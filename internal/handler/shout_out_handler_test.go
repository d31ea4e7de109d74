package handler

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memShoutOuts struct {
	mu        sync.Mutex
	templates []model.ShoutOutTemplate
	sent      []model.ShoutOut
	xp        map[uuid.UUID]int
	students  []model.ShoutOutStudent
}

func (m *memShoutOuts) ListByTeacher(_ context.Context, schoolID, teacherID uuid.UUID, category string) ([]model.ShoutOut, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.ShoutOut, 0)
	for _, so := range m.sent {
		if so.SchoolID == schoolID && so.TeacherID == teacherID && (category == "" || string(so.Category) == category) {
			out = append(out, so)
		}
	}
	return out, nil
}

func (m *memShoutOuts) ListTemplates(context.Context, uuid.UUID) ([]model.ShoutOutTemplate, error) {
	return m.templates, nil
}

func (m *memShoutOuts) GetTemplate(_ context.Context, _, id uuid.UUID) (*model.ShoutOutTemplate, error) {
	for _, t := range m.templates {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memShoutOuts) Create(_ context.Context, so *model.ShoutOut, xp int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	so.ID = uuid.New()
	so.CreatedAt = time.Now()
	m.sent = append(m.sent, *so)
	m.xp[so.StudentID] += xp
	return nil
}

func (m *memShoutOuts) ListStudents(_ context.Context, _ uuid.UUID, classID *uuid.UUID, _ time.Time) ([]model.ShoutOutStudent, error) {
	out := make([]model.ShoutOutStudent, 0)
	for _, s := range m.students {
		if classID == nil || s.ClassID == *classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func shoutOutRouter(store *memShoutOuts, claims *service.Claims) *gin.Engine {
	h := NewShoutOutHandler(service.NewShoutOutService(store, zerolog.Nop()))
	r := gin.New()
	r.Use(response.RequestIDMiddleware(zerolog.Nop()))
	teacher := r.Group("/teacher", withClaims(claims))
	teacher.GET("/shout-outs", h.ListShoutOuts)
	teacher.POST("/shout-outs", h.SendShoutOut)
	teacher.GET("/shout-out-templates", h.ListTemplates)
	teacher.GET("/students", h.ListStudents)
	return r
}

func TestShoutOutHandler_SendFromTemplate(t *testing.T) {
	claims := &service.Claims{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleTeacher}
	tmpl := model.ShoutOutTemplate{
		ID: uuid.New(), Category: model.CategoryKindness, Title: "Kind heart",
		Message: "Thank you for helping a classmate!", Badge: "heart",
	}
	store := &memShoutOuts{templates: []model.ShoutOutTemplate{tmpl}, xp: map[uuid.UUID]int{}}
	r := shoutOutRouter(store, claims)
	student := uuid.New()

	w, env := do(t, r, http.MethodPost, "/teacher/shout-outs", map[string]any{
		"student_id":  student,
		"template_id": tmpl.ID,
		"is_public":   true,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var sent struct {
		ShoutOut model.ShoutOut `json:"shout_out"`
	}
	dataInto(t, env, &sent)
	assert.Equal(t, model.CategoryKindness, sent.ShoutOut.Category)
	assert.Equal(t, tmpl.Message, sent.ShoutOut.Message)
	assert.Equal(t, "heart", sent.ShoutOut.Badge)
	assert.Equal(t, service.ShoutOutXP, store.xp[student])

	w, env = do(t, r, http.MethodGet, "/teacher/shout-outs?category=kindness", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		ShoutOuts []model.ShoutOut `json:"shout_outs"`
	}
	dataInto(t, env, &list)
	require.Len(t, list.ShoutOuts, 1)

	w, env = do(t, r, http.MethodGet, "/teacher/shout-outs?category=academic", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dataInto(t, env, &list)
	assert.Empty(t, list.ShoutOuts)
}

func TestShoutOutHandler_Rejections(t *testing.T) {
	claims := &service.Claims{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleTeacher}
	r := shoutOutRouter(&memShoutOuts{xp: map[uuid.UUID]int{}}, claims)

	w, env := do(t, r, http.MethodPost, "/teacher/shout-outs", map[string]any{"student_id": uuid.New()})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrMessageRequired, env.Error.Code)

	w, env = do(t, r, http.MethodPost, "/teacher/shout-outs", map[string]any{
		"student_id": uuid.New(),
		"category":   "sports",
		"message":    "Great match",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "category")

	w, env = do(t, r, http.MethodPost, "/teacher/shout-outs", map[string]any{
		"student_id":  uuid.New(),
		"template_id": uuid.New(),
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.ErrNotFound, env.Error.Code)
}

func TestShoutOutHandler_ListStudents(t *testing.T) {
	claims := &service.Claims{UserID: uuid.New(), SchoolID: uuid.New(), Role: model.RoleTeacher}
	classA, classB := uuid.New(), uuid.New()
	store := &memShoutOuts{xp: map[uuid.UUID]int{}, students: []model.ShoutOutStudent{
		{ID: uuid.New(), Name: "Ana Lim", ClassID: classA, ClassName: "7A"},
		{ID: uuid.New(), Name: "Budi Hartono", ClassID: classB, ClassName: "7B"},
	}}
	r := shoutOutRouter(store, claims)

	var body struct {
		Students []model.ShoutOutStudent `json:"students"`
	}
	w, env := do(t, r, http.MethodGet, "/teacher/students?class_id=all&search=budi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	dataInto(t, env, &body)
	require.Len(t, body.Students, 1)
	assert.Equal(t, "Budi Hartono", body.Students[0].Name)

	w, env = do(t, r, http.MethodGet, "/teacher/students?class_id="+classA.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	dataInto(t, env, &body)
	require.Len(t, body.Students, 1)
	assert.Equal(t, "7A", body.Students[0].ClassName)

	w, env = do(t, r, http.MethodGet, "/teacher/students?class_id=7A", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidID, env.Error.Code)
}
