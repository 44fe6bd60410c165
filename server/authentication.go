package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// Authentication gin middleware requiring a bearer token. An empty token
// leaves the route open.
func Authentication(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		header := c.Request.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		provided := strings.TrimPrefix(header, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Next()
	}
}
