package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// POST /api/v1/auth/login
// Authenticates with email and password and returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// Logout godoc
// POST /api/v1/auth/logout
// Revokes the current token.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), claims); err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.authService.Me(c.Request.Context(), claims)
	if err != nil {
		failWith(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}
