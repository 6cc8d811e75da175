package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/ping", http.MethodGet, "200"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("/ping", http.MethodGet, "200"))
	if after-before != 1 {
		t.Fatalf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ObserveGeneration("gemini", OutcomeSuccess, 2*time.Second)
	ObserveWeather(OutcomeSuccess)

	router := gin.New()
	router.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"tripplanner_itinerary_generations_total", "tripplanner_weather_lookups_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics output missing %s", name)
		}
	}
}

func TestWeatherOutcomeLabelsAreDistinct(t *testing.T) {
	outcomes := []string{OutcomeSuccess, OutcomeUpstream, OutcomeMissingKey, OutcomeTransport}
	seen := make(map[string]bool)
	for _, outcome := range outcomes {
		if seen[outcome] {
			t.Fatalf("duplicate outcome label %q", outcome)
		}
		seen[outcome] = true

		before := testutil.ToFloat64(weatherLookups.WithLabelValues(outcome))
		ObserveWeather(outcome)
		if got := testutil.ToFloat64(weatherLookups.WithLabelValues(outcome)) - before; got != 1 {
			t.Fatalf("%s: expected counter to grow by 1, got %v", outcome, got)
		}
	}
}
