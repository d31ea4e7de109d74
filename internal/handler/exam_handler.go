package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// ExamHandler handles teacher examinations.
type ExamHandler struct {
	examService *service.ExamService
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService) *ExamHandler {
	return &ExamHandler{examService: examService}
}

// ListExams godoc
// GET /api/v1/teacher/examinations
// Lists the caller's exams with analytics, subjects and stats.
func (h *ExamHandler) ListExams(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var f service.ExamFilter
	if fields := validator.BindQuery(c, &f); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	list, err := h.examService.List(c.Request.Context(), a, f)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, list)
}

// CreateExam godoc
// POST /api/v1/teacher/examinations
func (h *ExamHandler) CreateExam(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var req model.ExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), a, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// GetExam godoc
// GET /api/v1/teacher/examinations/:id
func (h *ExamHandler) GetExam(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Get(c.Request.Context(), a, id)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/teacher/examinations/:id
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.ExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), a, id, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// PublishExam godoc
// POST /api/v1/teacher/examinations/:id/publish
func (h *ExamHandler) PublishExam(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.Publish(c.Request.Context(), a, id)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/teacher/examinations/:id
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), a, id); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "exam deleted successfully"})
}
