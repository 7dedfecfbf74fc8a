package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"google.golang.org/genai"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/models"
)

type geminiParams struct {
	TopP *float64 `mapstructure:"top_p"`
	TopK *float64 `mapstructure:"top_k"`
}

type geminiClient struct {
	client *genai.Client
	cfg    config.ProviderConfig
	params geminiParams
}

func newGemini(ctx context.Context, cfg config.ProviderConfig, apiKey string) (*judge, error) {
	var params geminiParams
	if err := mapstructure.Decode(cfg.Params, &params); err != nil {
		return nil, &ConfigError{Provider: cfg.Name, Reason: fmt.Sprintf("bad params: %v", err)}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ConfigError{Provider: cfg.Name, Reason: fmt.Sprintf("create client: %v", err)}
	}

	return &judge{
		cfg:  cfg,
		kind: KindGemini,
		c: &geminiClient{
			client: client,
			cfg:    cfg,
			params: params,
		},
	}, nil
}

func (g *geminiClient) complete(ctx context.Context, system, user string) (string, models.TokenUsage, error) {
	genCfg := &genai.GenerateContentConfig{
		Temperature:     ptr(float32(g.cfg.Temperature)),
		MaxOutputTokens: int32(g.cfg.MaxTokens),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		// Gemini has no JSON-object response_format knob; the MIME type
		// constraint serves the same purpose.
		ResponseMIMEType: "application/json",
	}
	if g.params.TopP != nil {
		genCfg.TopP = ptr(float32(*g.params.TopP))
	}
	if g.params.TopK != nil {
		genCfg.TopK = ptr(float32(*g.params.TopK))
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: user}}},
	}

	response, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, genCfg)
	if err != nil {
		return "", models.TokenUsage{}, g.classify(err)
	}

	var usage models.TokenUsage
	if response.UsageMetadata != nil {
		usage = models.TokenUsage{
			Prompt:     int(response.UsageMetadata.PromptTokenCount),
			Completion: int(response.UsageMetadata.CandidatesTokenCount),
			Total:      int(response.UsageMetadata.PromptTokenCount + response.UsageMetadata.CandidatesTokenCount),
		}
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", usage, &CallError{Provider: g.cfg.Name, Err: errors.New("empty response: no candidates")}
	}

	var sb strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", usage, &CallError{Provider: g.cfg.Name, Err: errors.New("empty response: no text parts")}
	}
	return sb.String(), usage, nil
}

// classify relies on message matching: the genai SDK does not expose a
// structured status code on its errors.
func (g *geminiClient) classify(err error) error {
	return &CallError{
		Provider:  g.cfg.Name,
		Retryable: transient(err) || retryableGeminiMessage(err.Error()),
		Err:       err,
	}
}

func retryableGeminiMessage(msg string) bool {
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "Resource exhausted") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "quota exceeded") ||
		strings.Contains(msg, "Overloaded") ||
		strings.Contains(msg, "Internal error") ||
		strings.Contains(msg, "server error")
}

func ptr[T any](v T) *T {
	return &v
}
