// README: Auth middleware verifying Firebase ID tokens.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripbot/internal/infra"
)

const (
	ctxUID   = "auth.uid"
	ctxEmail = "auth.email"
)

// Auth rejects requests without a valid "Bearer <id token>" header and
// stores the caller's uid and verified email on the context.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || token == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUID, token.UID)
		c.Set(ctxEmail, token.Email())
		c.Next()
	}
}

// CallerUID returns the authenticated uid, or "" on unauthenticated routes.
func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

// CallerEmail returns the caller's verified email, or "".
func CallerEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// Authenticated reports whether Auth ran for this request.
func Authenticated(c *gin.Context) bool {
	_, ok := c.Get(ctxUID)
	return ok
}
