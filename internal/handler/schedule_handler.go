package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ScheduleHandler handles the academic calendar.
type ScheduleHandler struct {
	scheduleService *service.ScheduleService
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(scheduleService *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{scheduleService: scheduleService}
}

// ListEvents godoc
// GET /api/v1/admin/academic-schedule
// Lists the school's events. ?month=YYYY-MM adds the per-day buckets.
func (h *ScheduleHandler) ListEvents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var f service.ScheduleFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.scheduleService.List(c.Request.Context(), a.SchoolID, f)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ListVisibleEvents godoc
// GET /api/v1/academic-schedule
// Lists active events addressed to the caller's role.
func (h *ScheduleHandler) ListVisibleEvents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	events, err := h.scheduleService.ListForAudience(c.Request.Context(), a.SchoolID, a.Role)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"events": events})
}

// CreateEvent godoc
// POST /api/v1/admin/academic-schedule
func (h *ScheduleHandler) CreateEvent(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.EventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	event, err := h.scheduleService.Create(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"event": event})
}

// UpdateEvent godoc
// PUT /api/v1/admin/academic-schedule/:id
func (h *ScheduleHandler) UpdateEvent(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.EventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	event, err := h.scheduleService.Update(c.Request.Context(), a.SchoolID, id, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"event": event})
}

// DeleteEvent godoc
// DELETE /api/v1/admin/academic-schedule/:id
func (h *ScheduleHandler) DeleteEvent(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.scheduleService.Delete(c.Request.Context(), a.SchoolID, id); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "event deleted successfully"})
}
