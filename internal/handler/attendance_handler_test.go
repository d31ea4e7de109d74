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

type memClasses struct {
	class    model.Class
	teacher  uuid.UUID
	students []model.RosterEntry
}

func (m *memClasses) GetByID(_ context.Context, schoolID, id uuid.UUID) (*model.Class, error) {
	if m.class.SchoolID != schoolID || m.class.ID != id {
		return nil, repository.ErrNotFound
	}
	c := m.class
	return &c, nil
}

func (m *memClasses) ListBySchool(context.Context, uuid.UUID) ([]model.Class, error) {
	return []model.Class{m.class}, nil
}

func (m *memClasses) ListForTeacher(_ context.Context, _, teacherID uuid.UUID) ([]model.Class, error) {
	if teacherID != m.teacher {
		return []model.Class{}, nil
	}
	return []model.Class{m.class}, nil
}

func (m *memClasses) IsTeacherAssigned(_ context.Context, teacherID, classID uuid.UUID) (bool, error) {
	return teacherID == m.teacher && classID == m.class.ID, nil
}

func (m *memClasses) ListRoster(context.Context, uuid.UUID) ([]model.RosterEntry, error) {
	return append([]model.RosterEntry(nil), m.students...), nil
}

func (m *memClasses) RosterSizes(context.Context, uuid.UUID) (map[uuid.UUID]int, error) {
	return map[uuid.UUID]int{m.class.ID: len(m.students)}, nil
}

func (m *memClasses) PrimaryTeachers(context.Context, uuid.UUID) (map[uuid.UUID]string, error) {
	return map[uuid.UUID]string{m.class.ID: "Ms. Sari"}, nil
}

type memAttendance struct {
	mu      sync.Mutex
	records []model.AttendanceRecord
}

func (m *memAttendance) ListForClass(_ context.Context, classID uuid.UUID, date string) ([]model.AttendanceRecord, error) {
	return m.ListForClassRange(context.Background(), classID, date, date)
}

func (m *memAttendance) ListForSchool(_ context.Context, schoolID uuid.UUID, date string) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AttendanceRecord, 0)
	for _, r := range m.records {
		if r.SchoolID == schoolID && r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAttendance) ListForClassRange(_ context.Context, classID uuid.UUID, from, to string) ([]model.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.AttendanceRecord, 0)
	for _, r := range m.records {
		if r.ClassID == classID && r.Date >= from && r.Date <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memAttendance) Upsert(_ context.Context, records []model.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
next:
	for _, rec := range records {
		for i := range m.records {
			r := &m.records[i]
			if r.StudentID == rec.StudentID && r.ClassID == rec.ClassID && r.Date == rec.Date {
				*r = rec
				continue next
			}
		}
		m.records = append(m.records, rec)
	}
	return nil
}

type attendanceFixture struct {
	router  *gin.Engine
	classes *memClasses
	teacher *service.Claims
}

func newAttendanceFixture(claims func(schoolID, teacherID uuid.UUID) *service.Claims) attendanceFixture {
	schoolID, teacherID := uuid.New(), uuid.New()
	classes := &memClasses{
		class:   model.Class{ID: uuid.New(), SchoolID: schoolID, ClassName: "Grade 7A", GradeLevel: "7"},
		teacher: teacherID,
		students: []model.RosterEntry{
			{StudentID: uuid.New(), FirstName: "Ana", LastName: "Lim", StudentNumber: "7A-001"},
			{StudentID: uuid.New(), FirstName: "Budi", LastName: "Hartono", StudentNumber: "7A-002"},
			{StudentID: uuid.New(), FirstName: "Cici", LastName: "Wijaya", StudentNumber: "7A-003"},
		},
	}
	svc := service.NewAttendanceService(classes, &memAttendance{}, zerolog.Nop())
	h := NewAttendanceHandler(svc)
	c := claims(schoolID, teacherID)

	r := gin.New()
	r.Use(response.RequestIDMiddleware(zerolog.Nop()))
	teacher := r.Group("/teacher/attendance", withClaims(c))
	teacher.GET("/classes", h.ListClasses)
	teacher.GET("/classes/:class_id", h.GetRoster)
	teacher.POST("", h.SaveRoster)
	teacher.POST("/bulk", h.BulkMark)
	admin := r.Group("/admin/attendance", withClaims(c))
	admin.GET("", h.SchoolOverview)
	admin.GET("/heatmap", h.Heatmap)
	return attendanceFixture{router: r, classes: classes, teacher: c}
}

func assignedTeacher(schoolID, teacherID uuid.UUID) *service.Claims {
	return &service.Claims{UserID: teacherID, SchoolID: schoolID, Role: model.RoleTeacher}
}

func TestAttendanceHandler_SaveBulkAndRoster(t *testing.T) {
	fx := newAttendanceFixture(assignedTeacher)
	classID := fx.classes.class.ID
	ana, budi := fx.classes.students[0].StudentID, fx.classes.students[1].StudentID
	date := "2026-10-16"

	w, env := do(t, fx.router, http.MethodPost, "/teacher/attendance", map[string]any{
		"class_id": classID,
		"date":     date,
		"records":  []map[string]any{{"student_id": ana, "status": "late", "notes": "bus"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var saved struct {
		Saved int `json:"saved"`
	}
	dataInto(t, env, &saved)
	assert.Equal(t, 1, saved.Saved)

	w, env = do(t, fx.router, http.MethodPost, "/teacher/attendance/bulk", map[string]any{
		"class_id":    classID,
		"date":        date,
		"status":      "present",
		"student_ids": []uuid.UUID{budi, uuid.New()},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var bulk struct {
		Updated    int         `json:"updated"`
		StudentIDs []uuid.UUID `json:"student_ids"`
	}
	dataInto(t, env, &bulk)
	assert.Equal(t, 1, bulk.Updated)
	assert.Equal(t, []uuid.UUID{budi}, bulk.StudentIDs)

	w, env = do(t, fx.router, http.MethodGet, "/teacher/attendance/classes/"+classID.String()+"?date="+date+"&status=unmarked", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view service.RosterView
	dataInto(t, env, &view)
	assert.Equal(t, date, view.Date)
	require.Len(t, view.Students, 1)
	assert.Equal(t, "Cici", view.Students[0].FirstName)
	assert.Equal(t, 3, view.Summary.TotalStudents)
	assert.Equal(t, 1, view.Summary.LateCount)
	assert.Equal(t, 1, view.Summary.PresentCount)
}

func TestAttendanceHandler_BindingAndAccess(t *testing.T) {
	fx := newAttendanceFixture(assignedTeacher)
	classID := fx.classes.class.ID

	w, env := do(t, fx.router, http.MethodGet, "/teacher/attendance/classes/"+classID.String()+"?date=16-10-2026", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "date")

	w, env = do(t, fx.router, http.MethodPost, "/teacher/attendance", map[string]any{
		"class_id": classID,
		"date":     "2026-10-16",
		"records":  []map[string]any{{"student_id": uuid.New(), "status": "sleeping"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrValidation, env.Error.Code)

	outsider := newAttendanceFixture(func(schoolID, _ uuid.UUID) *service.Claims {
		return &service.Claims{UserID: uuid.New(), SchoolID: schoolID, Role: model.RoleTeacher}
	})
	w, env = do(t, outsider.router, http.MethodGet, "/teacher/attendance/classes/"+outsider.classes.class.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, response.ErrClassAccess, env.Error.Code)
}

func TestAttendanceHandler_Heatmap(t *testing.T) {
	fx := newAttendanceFixture(func(schoolID, _ uuid.UUID) *service.Claims {
		return &service.Claims{UserID: uuid.New(), SchoolID: schoolID, Role: model.RoleAdmin}
	})
	classID := fx.classes.class.ID.String()

	w, env := do(t, fx.router, http.MethodGet, "/admin/attendance/heatmap?class_id="+classID+"&start_date=2026-10-01&end_date=2026-10-03", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var heatmap model.AttendanceHeatmap
	dataInto(t, env, &heatmap)
	assert.Equal(t, []string{"2026-10-01", "2026-10-02", "2026-10-03"}, heatmap.Dates)
	require.Len(t, heatmap.Students, 3)
	assert.Len(t, heatmap.Students[0].Attendance, 3)
	assert.Equal(t, 3, heatmap.Summary.TotalDays)

	w, env = do(t, fx.router, http.MethodGet, "/admin/attendance/heatmap", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "class_id")

	w, env = do(t, fx.router, http.MethodGet, "/admin/attendance/heatmap?class_id="+classID+"&start_date=2026-10-05&end_date=2026-10-01", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.ErrInvalidDate, env.Error.Code)

	w, _ = do(t, fx.router, http.MethodGet, "/admin/attendance/heatmap?class_id="+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttendanceHandler_OverviewPagination(t *testing.T) {
	fx := newAttendanceFixture(func(schoolID, _ uuid.UUID) *service.Claims {
		return &service.Claims{UserID: uuid.New(), SchoolID: schoolID, Role: model.RoleAdmin}
	})
	today := time.Now().UTC().Format("2006-01-02")

	w, env := do(t, fx.router, http.MethodGet, "/admin/attendance?page=3&limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view service.AdminAttendanceView
	dataInto(t, env, &view)
	assert.Equal(t, today, view.Date)
	assert.Empty(t, view.Records)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.Page)

	w, env = do(t, fx.router, http.MethodGet, "/admin/attendance?class_id=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Fields, "class_id")
}
