package auth

import (
	"net/http"
	"strings"

	"tripplanner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoginPath is where anonymous browsers are sent.
const LoginPath = "/login"

// RequireUser guards routes that need a logged in session. Browsers are
// redirected to the login page with notice as a warning flash; JSON callers
// get a 401.
func RequireUser(manager *session.Manager, notice string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.FromContext(c)
		if sess.IsAuthenticated() {
			c.Next()
			return
		}
		if wantsJSON(c.Request) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		sess.AddFlash(session.FlashWarning, notice)
		if err := manager.Save(c, sess); err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("save session failed")
		}
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
