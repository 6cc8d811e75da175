package api

import (
	"context"
	"net/http"
	"time"

	"tripplanner/internal/auth"
	"tripplanner/internal/metrics"
	"tripplanner/internal/models"
	"tripplanner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Authenticator creates and checks user accounts.
type Authenticator interface {
	Register(ctx context.Context, in auth.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
}

// ItineraryGenerator produces the markdown itinerary for a trip.
type ItineraryGenerator interface {
	Generate(ctx context.Context, destination, startDate, endDate string) (string, error)
}

// WeatherFetcher returns current conditions, or an error record.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, city string) models.WeatherRecord
}

const csrfField = "csrf_token"

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// Handler wires HTTP routes to the auth, itinerary and weather services.
type Handler struct {
	auth      Authenticator
	sessions  *session.Manager
	itinerary ItineraryGenerator
	weather   WeatherFetcher
	checks    []namedCheck
	now       func() time.Time
}

// NewHandler constructs a Handler instance.
func NewHandler(authSvc Authenticator, sessions *session.Manager, itinerary ItineraryGenerator, weather WeatherFetcher) *Handler {
	return &Handler{
		auth:      authSvc,
		sessions:  sessions,
		itinerary: itinerary,
		weather:   weather,
		now:       time.Now,
	}
}

// AddHealthCheck registers a dependency checked by /health.
func (h *Handler) AddHealthCheck(name string, check HealthCheck) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
}

// RegisterRoutes attaches templates and all HTTP routes to the router. The
// session middleware must already be installed on router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(parseTemplates())

	router.GET("/", h.page("homepage.html"))
	router.GET("/index", h.page("index.html"))
	router.GET("/about", h.page("about.html"))
	router.GET("/contact", h.page("contact.html"))

	router.GET("/login", h.page("login.html"))
	router.POST("/login", h.requireFormToken, h.login)
	router.GET("/register", h.page("register.html"))
	router.POST("/register", h.requireFormToken, h.register)
	router.GET("/logout", h.logout)

	router.GET("/dashboard",
		auth.RequireUser(h.sessions, "Please login to access your dashboard."),
		h.dashboard)
	router.POST("/generate_itinerary",
		auth.RequireUser(h.sessions, "Please login to generate an itinerary."),
		h.requireFormToken,
		h.generateItinerary)
	router.POST("/get_weather", h.getWeather)

	router.GET("/blog", placeholder("Blog"))
	router.GET("/trip_planner", placeholder("Trip Planner"))
	router.GET("/deals", placeholder("Deals"))

	router.GET("/health", h.health)
	router.GET("/metrics", metrics.Handler())
}

// render writes a page with the pending flashes, persisting the session
// first when it changed.
func (h *Handler) render(c *gin.Context, status int, name string, data gin.H) {
	sess := session.FromContext(c)
	if data == nil {
		data = gin.H{}
	}
	data["Flashes"] = sess.PopFlashes()
	data["LoggedIn"] = sess.IsAuthenticated()
	data["UserName"] = sess.UserName
	data["Now"] = h.now()
	token, err := sess.CSRFToken()
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("create form token failed")
	}
	data["CSRFToken"] = token
	h.saveSession(c, sess)
	c.HTML(status, name, data)
}

// requireFormToken rejects a form post whose csrf_token field does not match
// the token rendered into the poster's own session.
func (h *Handler) requireFormToken(c *gin.Context) {
	sess := session.FromContext(c)
	if !sess.ValidCSRFToken(c.PostForm(csrfField)) {
		zerolog.Ctx(c.Request.Context()).Warn().Str("path", c.FullPath()).Msg("form token mismatch")
		h.renderError(c, http.StatusForbidden, "Your form has expired. Please reload the page and try again.")
		c.Abort()
		return
	}
	c.Next()
}

// renderError shows the error page without touching the session.
func (h *Handler) renderError(c *gin.Context, status int, message string) {
	sess := session.FromContext(c)
	c.HTML(status, "error.html", gin.H{
		"Status":   status,
		"Message":  message,
		"LoggedIn": sess.IsAuthenticated(),
		"UserName": sess.UserName,
		"Now":      h.now(),
	})
}

func (h *Handler) redirect(c *gin.Context, sess *session.Session, location string) {
	h.saveSession(c, sess)
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) saveSession(c *gin.Context, sess *session.Session) {
	if !sess.Dirty() {
		return
	}
	if err := h.sessions.Save(c, sess); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("save session failed")
		_ = c.Error(err)
	}
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	for _, nc := range h.checks {
		if err := nc.check(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("check", nc.name).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": nc.name})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.render(c, http.StatusOK, name, nil)
	}
}

func placeholder(title string) gin.HandlerFunc {
	body := []byte("<h1>" + title + " Page Coming Soon!</h1>")
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}
