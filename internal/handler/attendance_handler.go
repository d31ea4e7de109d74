package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// AttendanceHandler handles daily attendance marking.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// ListClasses godoc
// GET /api/v1/teacher/attendance/classes
// Lists the caller's classes with today's attendance summary.
func (h *AttendanceHandler) ListClasses(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	classes, err := h.attendanceService.TeacherClasses(c.Request.Context(), a)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"classes": classes})
}

// GetRoster godoc
// GET /api/v1/teacher/attendance/classes/:class_id?date=&search=&status=
func (h *AttendanceHandler) GetRoster(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	classID, ok := paramUUID(c, "class_id")
	if !ok {
		return
	}

	var f service.RosterFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attendanceService.Roster(c.Request.Context(), a, classID, f)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// SaveRoster godoc
// POST /api/v1/teacher/attendance
// Persists the whole day's roster in one transaction.
func (h *AttendanceHandler) SaveRoster(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.SaveRosterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	saved, err := h.attendanceService.SaveRoster(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"saved": saved})
}

// BulkMark godoc
// POST /api/v1/teacher/attendance/bulk
// Applies one status to the selected students, or the whole class.
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.BulkAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	updated, err := h.attendanceService.Bulk(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": len(updated), "student_ids": updated})
}

// SchoolOverview godoc
// GET /api/v1/admin/attendance?date=&class_id=&status=&search=&page=&limit=
func (h *AttendanceHandler) SchoolOverview(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var f service.AdminAttendanceFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.attendanceService.SchoolOverview(c.Request.Context(), a.SchoolID, f)
	if err != nil {
		failWith(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, view, view.Pagination)
}

// Heatmap godoc
// GET /api/v1/admin/attendance/heatmap?class_id=&start_date=&end_date=
// Defaults to the last 30 days.
func (h *AttendanceHandler) Heatmap(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var f service.HeatmapFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	heatmap, err := h.attendanceService.Heatmap(c.Request.Context(), a.SchoolID, f)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, heatmap)
}
