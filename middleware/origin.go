package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Origin handles CORS for the REST surface and lets socket upgrades through.
// Browsers talk to the relay from a different dev origin, so allow all.
func Origin() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
