package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// RequireRole allows the request only when the caller holds one of roles.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if !slices.Contains(roles, claims.Role) {
			response.AbortFail(c, http.StatusForbidden, response.ErrRoleNotAllowed)
			return
		}

		c.Next()
	}
}
