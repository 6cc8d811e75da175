package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const contextKey = "session"

// Middleware loads the request session and exposes it through FromContext.
// Store failures degrade to an anonymous session.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := m.Load(c)
		if err != nil {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("load session failed")
			s, err = New()
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}
		c.Set(contextKey, s)
		c.Next()
	}
}

// FromContext returns the session attached by Middleware. Without the
// middleware it returns an empty session so callers never see nil.
func FromContext(c *gin.Context) *Session {
	if v, ok := c.Get(contextKey); ok {
		if s, ok := v.(*Session); ok {
			return s
		}
	}
	s, err := New()
	if err != nil {
		s = &Session{}
	}
	c.Set(contextKey, s)
	return s
}
