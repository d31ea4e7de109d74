package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

// ContextKeyClaims is the Gin context key for JWT claims.
const ContextKeyClaims = "claims"

// TokenValidator parses bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*service.Claims, error)
}

var errTokenMissing = errors.New("authorization header or token query required")

// RequireJWT validates the bearer token and stores its claims on the context.
// WebSocket clients, which cannot set headers, may pass ?token= instead.
func RequireJWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := auth.ValidateToken(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) (string, error) {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1], nil
		}
	}
	if t := c.Query("token"); t != "" {
		return t, nil
	}
	return "", errTokenMissing
}
