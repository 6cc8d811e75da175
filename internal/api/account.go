package api

import (
	"errors"
	"net/http"

	"tripplanner/internal/auth"
	"tripplanner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type loginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type registerForm struct {
	Name            string `form:"name" binding:"required"`
	Email           string `form:"email" binding:"required"`
	Password        string `form:"password" binding:"required"`
	ConfirmPassword string `form:"password2" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	sess := session.FromContext(c)
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		sess.AddFlash(session.FlashDanger, "Invalid email or password!")
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{"Email": form.Email})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("login failed")
			h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
			return
		}
		sess.AddFlash(session.FlashDanger, "Invalid email or password!")
		h.render(c, http.StatusUnauthorized, "login.html", gin.H{"Email": form.Email})
		return
	}

	// another account's itinerary and notices must not carry over
	if sess.IsAuthenticated() && sess.UserID != user.ID {
		sess.Clear()
	}
	if err := h.sessions.Renew(c, sess); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("renew session failed")
		h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	sess.SetUser(user.ID, user.Name)
	sess.AddFlash(session.FlashSuccess, "Welcome, "+user.Name+"!")
	zerolog.Ctx(c.Request.Context()).Info().Int64("user_id", user.ID).Msg("user logged in")
	h.redirect(c, sess, "/dashboard")
}

func (h *Handler) register(c *gin.Context) {
	sess := session.FromContext(c)
	var form registerForm
	if err := c.ShouldBind(&form); err != nil {
		sess.AddFlash(session.FlashDanger, "All fields are required!")
		h.redirect(c, sess, "/register")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrPasswordMismatch):
		sess.AddFlash(session.FlashDanger, "Passwords do not match!")
		h.redirect(c, sess, "/register")
		return
	case errors.Is(err, auth.ErrEmailTaken):
		sess.AddFlash(session.FlashDanger, "Email already registered!")
		h.redirect(c, sess, "/register")
		return
	case errors.Is(err, auth.ErrMissingFields):
		sess.AddFlash(session.FlashDanger, "All fields are required!")
		h.redirect(c, sess, "/register")
		return
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("register failed")
		h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	zerolog.Ctx(c.Request.Context()).Info().Int64("user_id", user.ID).Msg("user registered")
	sess.AddFlash(session.FlashSuccess, "Registration successful! You can now log in.")
	h.redirect(c, sess, "/login")
}

func (h *Handler) logout(c *gin.Context) {
	sess, err := h.sessions.Destroy(c, session.FromContext(c))
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("destroy session failed")
		h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}
	sess.AddFlash(session.FlashInfo, "You have been logged out!")
	h.redirect(c, sess, "/")
}
