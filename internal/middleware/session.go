package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/response"
)

// RevocationChecker reports logged-out token ids and suspended users.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
	IsSuspended(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RejectRevoked rejects tokens whose JTI is on the logout deny list and tokens
// of users deactivated or deleted since sign-in. Must run after RequireJWT.
func RejectRevoked(checker RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		revoked, err := checker.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if revoked {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionRevoked)
			return
		}

		suspended, err := checker.IsSuspended(c.Request.Context(), claims.UserID)
		if err != nil {
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		if suspended {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrAccountInactive)
			return
		}

		c.Next()
	}
}
