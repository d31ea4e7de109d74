package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ContextKeyRequestID is the Gin context key for the request ID.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware generates a unique request ID for every request and
// attaches a request-scoped logger to the request context.
func RequestIDMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header("X-Request-ID", reqID)

		reqLog := log.With().Str("request_id", reqID).Logger()
		c.Request = c.Request.WithContext(reqLog.WithContext(c.Request.Context()))
		c.Next()
	}
}
