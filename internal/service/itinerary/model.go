package itinerary

import (
	"context"
	"fmt"

	"tripplanner/internal/config"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// ChatModel is the part of an eino chat model the generator needs.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// NewChatModel builds the chat model for the named provider.
func NewChatModel(ctx context.Context, provider string, pc config.ProviderConfig) (ChatModel, error) {
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "gemini":
		cc := &genai.ClientConfig{
			APIKey:  pc.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if pc.BaseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: pc.BaseURL}
		}
		client, cerr := genai.NewClient(ctx, cc)
		if cerr != nil {
			return nil, fmt.Errorf("gemini client: %w", cerr)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  pc.Model,
		})
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: pc.BaseURL,
			Model:   pc.Model,
			APIKey:  pc.APIKey,
		})
	case "claude":
		var baseURLPtr *string
		if pc.BaseURL != "" {
			baseURLPtr = &pc.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    pc.APIKey,
			Model:     pc.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return chatModel, nil
}
