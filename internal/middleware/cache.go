package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// PrivateCache lets only the caller's browser reuse a response for maxAgeSeconds.
func PrivateCache(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}

// NoStore disables caching of sensitive responses.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
