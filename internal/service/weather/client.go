// Package weather looks up current conditions from OpenWeatherMap.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tripplanner/internal/config"
	"tripplanner/internal/metrics"
	"tripplanner/internal/models"

	"github.com/rs/zerolog"
)

const (
	MissingAPIKey   = "Missing API Key"
	unknownAPIError = "Unknown error"
	currentPath     = "/data/2.5/weather"
)

// Client calls the current weather endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	iconBase   string
	httpClient *http.Client
}

func NewClient(cfg config.WeatherConfig, timeout time.Duration) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		iconBase:   cfg.IconBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type apiResponse struct {
	Message string `json:"message"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

// FetchWeather never fails; problems are reported in the record's Error.
func (c *Client) FetchWeather(ctx context.Context, city string) models.WeatherRecord {
	logger := zerolog.Ctx(ctx).With().Str("city", city).Logger()
	if c.apiKey == "" {
		metrics.ObserveWeather(metrics.OutcomeMissingKey)
		logger.Warn().Msg("weather api key not configured")
		return models.WeatherError(MissingAPIKey)
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+currentPath+"?"+q.Encode(), nil)
	if err != nil {
		metrics.ObserveWeather(metrics.OutcomeTransport)
		return models.WeatherError(err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ObserveWeather(metrics.OutcomeTransport)
		logger.Error().Err(err).Msg("weather request failed")
		return models.WeatherError(err.Error())
	}
	defer resp.Body.Close()

	var body apiResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode != http.StatusOK {
		msg := body.Message
		if decodeErr != nil || msg == "" {
			msg = unknownAPIError
		}
		metrics.ObserveWeather(metrics.OutcomeUpstream)
		logger.Warn().Int("status", resp.StatusCode).Str("message", msg).Msg("weather api error")
		return models.WeatherError("API Error: " + msg)
	}
	if decodeErr != nil {
		metrics.ObserveWeather(metrics.OutcomeTransport)
		logger.Error().Err(decodeErr).Msg("decode weather response")
		return models.WeatherError(decodeErr.Error())
	}
	if len(body.Weather) == 0 {
		metrics.ObserveWeather(metrics.OutcomeUpstream)
		return models.WeatherError("weather: response has no conditions")
	}

	metrics.ObserveWeather(metrics.OutcomeSuccess)
	return models.WeatherRecord{
		Location:    capitalize(city),
		Description: body.Weather[0].Description,
		Temperature: body.Main.Temp,
		TempMin:     body.Main.TempMin,
		TempMax:     body.Main.TempMax,
		Humidity:    body.Main.Humidity,
		WindSpeed:   body.Wind.Speed,
		Icon:        fmt.Sprintf("%s%s.png", c.iconBase, body.Weather[0].Icon),
	}
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
