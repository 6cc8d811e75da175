package session

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"tripplanner/internal/config"
	"tripplanner/internal/models"
	"tripplanner/internal/redis"

	"github.com/gin-gonic/gin"
)

func newTestContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	c.Request = req
	return c, rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			found = ck
		}
	}
	return found
}

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSessionAccessors(t *testing.T) {
	s := newSession(t)
	if s.ID == "" || s.IsAuthenticated() || s.Dirty() {
		t.Fatalf("unexpected fresh session: %+v", s)
	}

	s.SetUser(7, "Ann")
	if !s.IsAuthenticated() || !s.Dirty() {
		t.Fatalf("expected authenticated dirty session")
	}

	if _, ok := s.TravelData(); ok {
		t.Fatalf("fresh session must not carry travel data")
	}
	s.SetTravelData(models.TravelData{Destination: "Rome"})
	td, ok := s.TravelData()
	if !ok || td.Destination != "Rome" {
		t.Fatalf("unexpected travel data: %+v, %v", td, ok)
	}

	s.AddFlash(FlashInfo, "hello")
	flashes := s.PopFlashes()
	if len(flashes) != 1 || flashes[0] != (Flash{Category: FlashInfo, Message: "hello"}) {
		t.Fatalf("unexpected flashes: %+v", flashes)
	}
	if again := s.PopFlashes(); again != nil {
		t.Fatalf("flashes must be consumed once, got %+v", again)
	}

	s.Clear()
	if s.IsAuthenticated() {
		t.Fatalf("clear must drop the user")
	}
	if _, ok := s.TravelData(); ok {
		t.Fatalf("clear must drop travel data")
	}
}

func TestSessionCSRFToken(t *testing.T) {
	s := newSession(t)
	if s.ValidCSRFToken("") {
		t.Fatalf("empty token must never validate")
	}

	tok, err := s.CSRFToken()
	if err != nil {
		t.Fatalf("csrf token: %v", err)
	}
	if tok == "" || !s.Dirty() {
		t.Fatalf("expected a new token to mark the session dirty")
	}
	again, _ := s.CSRFToken()
	if again != tok {
		t.Fatalf("token must be stable within a session: %q != %q", again, tok)
	}
	if !s.ValidCSRFToken(tok) {
		t.Fatalf("own token rejected")
	}
	if s.ValidCSRFToken(tok+"x") || s.ValidCSRFToken("") {
		t.Fatalf("mismatched token accepted")
	}

	other := newSession(t)
	if other.ValidCSRFToken(tok) {
		t.Fatalf("session without a token accepted a foreign one")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	s := newSession(t)
	s.ExpiresAt = time.Now().Add(-time.Second)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired session, got %v", err)
	}
	if n := store.Len(); n != 0 {
		t.Fatalf("expired session should be evicted on read, %d left", n)
	}

	if err := store.Save(ctx, &Session{}); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestMemoryStoreSweepsOnSave(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		stale := newSession(t)
		stale.ExpiresAt = time.Now().Add(-time.Minute)
		if err := store.Save(ctx, stale); err != nil {
			t.Fatalf("save stale: %v", err)
		}
	}
	endless := newSession(t)
	if err := store.Save(ctx, endless); err != nil {
		t.Fatalf("save endless: %v", err)
	}
	live := newSession(t)
	live.ExpiresAt = time.Now().Add(time.Hour)
	if err := store.Save(ctx, live); err != nil {
		t.Fatalf("save live: %v", err)
	}

	// never read back, yet gone
	if n := store.Len(); n != 2 {
		t.Fatalf("expected only unexpired sessions to remain, got %d", n)
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Fatalf("live session lost: %v", err)
	}
	if _, err := store.Get(ctx, endless.ID); err != nil {
		t.Fatalf("session without expiry lost: %v", err)
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, "secret", Options{TTL: time.Hour})

	c, rec := newTestContext()
	s, err := mgr.Load(c)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.SetUser(3, "Bea")
	s.SetTravelData(models.TravelData{Destination: "Paris", Itinerary: "Day 1"})
	tok, _ := s.CSRFToken()
	if err := mgr.Save(c, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s.Dirty() {
		t.Fatalf("save must reset the dirty flag")
	}

	ck := findCookie(rec, DefaultCookieName)
	if ck == nil {
		t.Fatalf("expected a session cookie")
	}
	if !ck.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}
	if ck.Value == s.ID {
		t.Fatalf("cookie must carry a signed token, not the raw id")
	}

	c2, _ := newTestContext(ck)
	loaded, err := mgr.Load(c2)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.ID != s.ID || loaded.UserID != 3 {
		t.Fatalf("unexpected session after reload: %+v", loaded)
	}
	td, ok := loaded.TravelData()
	if !ok || td.Destination != "Paris" {
		t.Fatalf("travel data not persisted: %+v", td)
	}
	if !loaded.ValidCSRFToken(tok) {
		t.Fatalf("form token not persisted")
	}
}

func TestManagerRejectsForeignSignature(t *testing.T) {
	store := NewMemoryStore()
	issuer := NewManager(store, "one-secret", Options{})
	verifier := NewManager(store, "other-secret", Options{})

	c, rec := newTestContext()
	s, err := issuer.Load(c)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.SetUser(1, "Cy")
	if err := issuer.Save(c, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	c2, _ := newTestContext(findCookie(rec, DefaultCookieName))
	loaded, err := verifier.Load(c2)
	if err != nil {
		t.Fatalf("load with foreign key: %v", err)
	}
	if loaded.ID == s.ID || loaded.IsAuthenticated() {
		t.Fatalf("foreign signature must yield a fresh anonymous session")
	}
}

func TestManagerRenewAndDestroy(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, "secret", Options{})

	c, _ := newTestContext()
	s, err := mgr.Load(c)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tok, _ := s.CSRFToken()
	if err := mgr.Save(c, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	oldID := s.ID

	if err := mgr.Renew(c, s); err != nil {
		t.Fatalf("renew: %v", err)
	}
	if s.ID == oldID {
		t.Fatalf("renew must issue a new id")
	}
	if !s.ValidCSRFToken(tok) {
		t.Fatalf("renew must keep the form token")
	}
	if _, err := store.Get(context.Background(), oldID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("old id must be deleted, got %v", err)
	}
	if err := mgr.Save(c, s); err != nil {
		t.Fatalf("save renewed: %v", err)
	}

	s.SetUser(9, "Dee")
	if err := mgr.Save(c, s); err != nil {
		t.Fatalf("save user: %v", err)
	}
	fresh, err := mgr.Destroy(c, s)
	if err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if fresh.IsAuthenticated() || fresh.ValidCSRFToken(tok) {
		t.Fatalf("destroy must return a blank session")
	}
	if FromContext(c) != fresh {
		t.Fatalf("destroy must attach the fresh session to the context")
	}
	if _, err := store.Get(context.Background(), s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("destroyed session still stored: %v", err)
	}
}

func TestMiddlewareAttachesSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := NewManager(NewMemoryStore(), "secret", Options{})
	router := gin.New()
	router.Use(mgr.Middleware())
	router.GET("/", func(c *gin.Context) {
		s := FromContext(c)
		if s == nil || s.ID == "" {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	// nothing was saved, so no cookie is issued
	if ck := findCookie(rec, DefaultCookieName); ck != nil {
		t.Fatalf("unexpected cookie %v", ck)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis-backed session tests")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}

	client, err := redis.NewRedisClient(config.RedisConfig{Host: host, Port: port})
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()
	s := newSession(t)
	s.SetUser(5, "Eve")
	s.ExpiresAt = time.Now().Add(time.Minute)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.UserName != "Eve" {
		t.Fatalf("unexpected user name %q", got.UserName)
	}

	ttl, err := client.TTL(ctx, redisKeyPrefix+s.ID)
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
