package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"time"

	"tripplanner/internal/models"
)

// Flash categories rendered by the page templates.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the server-side state behind one browser cookie.
type Session struct {
	ID        string             `json:"id"`
	UserID    int64              `json:"user_id,omitempty"`
	UserName  string             `json:"user_name,omitempty"`
	Travel    *models.TravelData `json:"travel_data,omitempty"`
	Flashes   []Flash            `json:"flashes,omitempty"`
	CSRF      string             `json:"csrf_token,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`

	dirty bool
}

// New returns an empty anonymous session with a fresh id.
func New() (*Session, error) {
	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, CreatedAt: time.Now().UTC()}, nil
}

// GenerateID returns 256 bits of randomness, base64url encoded.
func GenerateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID > 0
}

// SetUser records the authenticated identity.
func (s *Session) SetUser(id int64, name string) {
	s.UserID = id
	s.UserName = name
	s.dirty = true
}

// TravelData returns the last generated bundle, if any.
func (s *Session) TravelData() (*models.TravelData, bool) {
	if s == nil || s.Travel == nil {
		return nil, false
	}
	td := *s.Travel
	return &td, true
}

// SetTravelData replaces the stored bundle.
func (s *Session) SetTravelData(td models.TravelData) {
	s.Travel = &td
	s.dirty = true
}

func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
	s.dirty = true
}

// PopFlashes returns pending notices and removes them from the session.
func (s *Session) PopFlashes() []Flash {
	if s == nil || len(s.Flashes) == 0 {
		return nil
	}
	out := s.Flashes
	s.Flashes = nil
	s.dirty = true
	return out
}

// CSRFToken returns the token forms must echo back, creating it on first use.
func (s *Session) CSRFToken() (string, error) {
	if s.CSRF == "" {
		tok, err := GenerateID()
		if err != nil {
			return "", err
		}
		s.CSRF = tok
		s.dirty = true
	}
	return s.CSRF, nil
}

// ValidCSRFToken reports whether tok matches the session's form token.
func (s *Session) ValidCSRFToken(tok string) bool {
	if s == nil || s.CSRF == "" || tok == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRF), []byte(tok)) == 1
}

// Clear drops identity, travel data and notices.
func (s *Session) Clear() {
	s.UserID = 0
	s.UserName = ""
	s.Travel = nil
	s.Flashes = nil
	s.dirty = true
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	return s != nil && s.dirty
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
