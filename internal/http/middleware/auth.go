package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/support-bot-backend/internal/platform/logger"
)

type AdminAuthMiddleware struct {
	log  *logger.Logger
	user string
	pass string
}

func NewAdminAuthMiddleware(log *logger.Logger, user, pass string) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		log:  log.With("Middleware", "AdminAuthMiddleware"),
		user: user,
		pass: pass,
	}
}

// RequireBasicAuth guards the admin surface with HTTP basic auth. Credential
// comparison is constant time.
func (am *AdminAuthMiddleware) RequireBasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !am.match(user, pass) {
			c.Header("WWW-Authenticate", `Basic realm="Admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"message": "authentication required", "code": "unauthorized"},
			})
			return
		}
		c.Next()
	}
}

func (am *AdminAuthMiddleware) match(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(am.user)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(am.pass)) == 1
	return userOK && passOK
}
