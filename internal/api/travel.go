package api

import (
	"errors"
	"net/http"
	"strings"

	"tripplanner/internal/models"
	"tripplanner/internal/service/itinerary"
	"tripplanner/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type itineraryForm struct {
	Destination string `form:"destination" binding:"required"`
	StartDate   string `form:"startDate" binding:"required"`
	EndDate     string `form:"endDate" binding:"required"`
}

type weatherRequest struct {
	City string `json:"city" binding:"required"`
}

func (h *Handler) dashboard(c *gin.Context) {
	sess := session.FromContext(c)
	data := gin.H{}
	if td, ok := sess.TravelData(); ok {
		data["Travel"] = td
	}
	h.render(c, http.StatusOK, "dashboard.html", data)
}

func (h *Handler) generateItinerary(c *gin.Context) {
	ctx := c.Request.Context()
	sess := session.FromContext(c)

	var form itineraryForm
	if err := c.ShouldBind(&form); err != nil {
		sess.AddFlash(session.FlashDanger, "Please provide a destination and travel dates.")
		h.redirect(c, sess, "/dashboard")
		return
	}

	text, err := h.itinerary.Generate(ctx, form.Destination, form.StartDate, form.EndDate)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("destination", form.Destination).Msg("generate itinerary")
		if errors.Is(err, itinerary.ErrUpstream) {
			h.renderError(c, http.StatusBadGateway, "We could not generate your itinerary right now. Please try again later.")
			return
		}
		h.renderError(c, http.StatusInternalServerError, "Something went wrong. Please try again.")
		return
	}

	sess.SetTravelData(models.TravelData{
		Destination: form.Destination,
		StartDate:   form.StartDate,
		EndDate:     form.EndDate,
		Itinerary:   text,
		Weather:     h.weather.FetchWeather(ctx, form.Destination),
	})
	h.redirect(c, sess, "/dashboard")
}

func (h *Handler) getWeather(c *gin.Context) {
	var req weatherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "City not provided"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "City not provided"})
		return
	}
	c.JSON(http.StatusOK, h.weather.FetchWeather(c.Request.Context(), city))
}
