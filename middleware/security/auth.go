package security

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	toolsec "chatrelay/tools/security"
)

// CtxUserIDKey is where the verified subject lands for downstream handlers.
const CtxUserIDKey = "authUserId"

type Options struct {
	JWT toolsec.Options
}

// Middleware verifies a Bearer token and stores its subject in the request
// context. Missing or invalid tokens abort with 401.
func Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}

		sub, err := toolsec.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Set(CtxUserIDKey, sub)
		c.Next()
	}
}
