package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ShoutOutHandler handles teacher shout-outs.
type ShoutOutHandler struct {
	shoutOutService *service.ShoutOutService
}

// NewShoutOutHandler creates a new ShoutOutHandler.
func NewShoutOutHandler(shoutOutService *service.ShoutOutService) *ShoutOutHandler {
	return &ShoutOutHandler{shoutOutService: shoutOutService}
}

// ListShoutOuts godoc
// GET /api/v1/teacher/shout-outs?category=
func (h *ShoutOutHandler) ListShoutOuts(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	list, err := h.shoutOutService.List(c.Request.Context(), a, c.Query("category"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"shout_outs": list})
}

// ListTemplates godoc
// GET /api/v1/teacher/shout-out-templates
func (h *ShoutOutHandler) ListTemplates(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	templates, err := h.shoutOutService.Templates(c.Request.Context(), a)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"templates": templates})
}

// SendShoutOut godoc
// POST /api/v1/teacher/shout-outs
func (h *ShoutOutHandler) SendShoutOut(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.SendShoutOutRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	so, err := h.shoutOutService.Send(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"shout_out": so})
}

// ListStudents godoc
// GET /api/v1/teacher/students?class_id=&search=
func (h *ShoutOutHandler) ListStudents(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var classID *uuid.UUID
	if raw := c.Query("class_id"); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		classID = &id
	}

	students, err := h.shoutOutService.Students(c.Request.Context(), a, classID, c.Query("search"))
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"students": students})
}
