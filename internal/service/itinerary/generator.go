// Package itinerary turns a destination and date range into a day-by-day
// plan using a text generation model.
package itinerary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tripplanner/internal/metrics"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// ErrUpstream wraps any failure of the text generation service.
var ErrUpstream = errors.New("itinerary generation failed")

const promptTemplate = `Generate a structured, day-wise travel itinerary for %[1]s from %[2]s to %[3]s.

## Formatting:
- Each day should start with **Day X: [Date] - [Theme]**
- Use **bulleted points (-)** for activities.
- Ensure clear separation between days.

Example:
**Day 1: Exploring %[1]s**
- 09:00 AM: Arrive and check-in at the hotel.
- 10:00 AM: Visit the historic city center.
- 12:00 PM: Lunch at a famous local restaurant.
- 02:00 PM: Explore museums and cultural sites.
- 07:00 PM: Dinner at a waterfront restaurant.
`

// BuildPrompt renders the fixed itinerary prompt.
func BuildPrompt(destination, startDate, endDate string) string {
	return fmt.Sprintf(promptTemplate, destination, startDate, endDate)
}

// Generator asks the chat model for an itinerary.
type Generator struct {
	model    ChatModel
	provider string
	timeout  time.Duration
}

func NewGenerator(m ChatModel, provider string, timeout time.Duration) *Generator {
	return &Generator{model: m, provider: provider, timeout: timeout}
}

// Generate returns the model's markdown text unmodified. It makes exactly
// one call; there is no retry.
func (g *Generator) Generate(ctx context.Context, destination, startDate, endDate string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	logger := zerolog.Ctx(ctx).With().Str("provider", g.provider).Str("destination", destination).Logger()

	start := time.Now()
	msg, err := g.model.Generate(ctx, []*schema.Message{
		schema.UserMessage(BuildPrompt(destination, startDate, endDate)),
	})
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveGeneration(g.provider, metrics.OutcomeUpstream, elapsed)
		logger.Error().Err(err).Dur("duration", elapsed).Msg("itinerary generation failed")
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		metrics.ObserveGeneration(g.provider, metrics.OutcomeUpstream, elapsed)
		logger.Error().Dur("duration", elapsed).Msg("itinerary generation returned no text")
		return "", fmt.Errorf("%w: empty response", ErrUpstream)
	}
	metrics.ObserveGeneration(g.provider, metrics.OutcomeSuccess, elapsed)
	logger.Info().Dur("duration", elapsed).Int("chars", len(msg.Content)).Msg("itinerary generated")
	return msg.Content, nil
}
