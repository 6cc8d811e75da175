package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultCookieName = "tripplanner_session"
	defaultTTL        = 24 * time.Hour
)

// Manager issues the signed session cookie and moves session state between
// the request and the store. The cookie only carries the session id.
type Manager struct {
	store      Store
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
}

// Options tune the cookie issued by the manager.
type Options struct {
	TTL        time.Duration
	CookieName string
	Secure     bool
}

func NewManager(store Store, secret string, opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	return &Manager{
		store:      store,
		secret:     []byte(secret),
		ttl:        opts.TTL,
		cookieName: opts.CookieName,
		secure:     opts.Secure,
	}
}

// Load returns the session referenced by the request cookie, or a new
// anonymous session when the cookie is missing, tampered with or stale.
func (m *Manager) Load(c *gin.Context) (*Session, error) {
	raw, err := c.Cookie(m.cookieName)
	if err != nil || raw == "" {
		return New()
	}
	id, err := m.parseToken(raw)
	if err != nil {
		return New()
	}
	s, err := m.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return New()
		}
		return nil, err
	}
	if s.expired(time.Now()) {
		return New()
	}
	return s, nil
}

// Save persists the session, extends its lifetime and refreshes the cookie.
// Must be called before the response body is written.
func (m *Manager) Save(c *gin.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}
	now := time.Now().UTC()
	s.ExpiresAt = now.Add(m.ttl)
	if err := m.store.Save(c.Request.Context(), s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	token, err := m.signToken(s.ID, s.ExpiresAt)
	if err != nil {
		return err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.dirty = false
	return nil
}

// Renew moves the session to a fresh id, keeping its data. The old id is
// removed from the store.
func (m *Manager) Renew(c *gin.Context, s *Session) error {
	oldID := s.ID
	id, err := GenerateID()
	if err != nil {
		return err
	}
	if oldID != "" {
		if err := m.store.Delete(c.Request.Context(), oldID); err != nil {
			return fmt.Errorf("renew session: %w", err)
		}
	}
	s.ID = id
	s.CreatedAt = time.Now().UTC()
	s.dirty = true
	c.Set(contextKey, s)
	return nil
}

// Destroy deletes every trace of s and returns a new empty session that
// replaces it for the rest of the request.
func (m *Manager) Destroy(c *gin.Context, s *Session) (*Session, error) {
	if s != nil && s.ID != "" {
		if err := m.store.Delete(c.Request.Context(), s.ID); err != nil {
			return nil, fmt.Errorf("destroy session: %w", err)
		}
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	fresh, err := New()
	if err != nil {
		return nil, err
	}
	c.Set(contextKey, fresh)
	return fresh, nil
}

func (m *Manager) signToken(id string, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        id,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

func (m *Manager) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
