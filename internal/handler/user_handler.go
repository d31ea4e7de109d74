package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// UserHandler handles the admin user directory.
type UserHandler struct {
	userService    *service.UserService
	maxUploadBytes int64
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, maxUploadBytes int64) *UserHandler {
	return &UserHandler{userService: userService, maxUploadBytes: maxUploadBytes}
}

// ListUsers godoc
// GET /api/v1/admin/users
// Filters, sorts and paginates users; ?group_by= returns groups instead.
func (h *UserHandler) ListUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	var q service.UserQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	page, err := h.userService.List(c.Request.Context(), a.SchoolID, q)
	if err != nil {
		failWith(c, err)
		return
	}

	if page.Groups != nil {
		response.Success(c, http.StatusOK, gin.H{"groups": page.Groups})
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": page.Users}, page.Pagination)
}

// GetStats godoc
// GET /api/v1/admin/users/stats
func (h *UserHandler) GetStats(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	stats, err := h.userService.Stats(c.Request.Context(), a.SchoolID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"stats": stats})
}

// GetFacets godoc
// GET /api/v1/admin/users/facets
func (h *UserHandler) GetFacets(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	facets, err := h.userService.Facets(c.Request.Context(), a.SchoolID)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, facets)
}

// UpdateUser godoc
// PATCH /api/v1/admin/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateUserRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), a.SchoolID, id, &req)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// ToggleStatus godoc
// PATCH /api/v1/admin/users/:id/status
// Flips the account between active and inactive.
func (h *UserHandler) ToggleStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ToggleStatus(c.Request.Context(), a, id)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// DeleteUser godoc
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), a, id); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "user deleted successfully"})
}

// ExportUsers godoc
// GET /api/v1/admin/users/export?fields=&role=
// Streams an xlsx workbook of the selected columns.
func (h *UserHandler) ExportUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	fields, err := service.ParseExportFields(c.Query("fields"))
	if err != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"fields": err.Error()})
		return
	}

	data, err := h.userService.Export(c.Request.Context(), a.SchoolID, fields, c.DefaultQuery("role", "all"))
	if err != nil {
		failWith(c, err)
		return
	}

	filename := fmt.Sprintf("users-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ImportUsers godoc
// POST /api/v1/admin/users/import
// Creates users from an uploaded xlsx sheet (multipart field "file").
func (h *UserHandler) ImportUsers(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrSpreadsheetRequired)
		return
	}
	defer file.Close()

	result, err := h.userService.Import(c.Request.Context(), a.SchoolID, file)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
