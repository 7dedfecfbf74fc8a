package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/go-viper/mapstructure/v2"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/models"
)

type anthropicParams struct {
	TopK *int64   `mapstructure:"top_k"`
	TopP *float64 `mapstructure:"top_p"`
}

type anthropicClient struct {
	client anthropic.Client
	cfg    config.ProviderConfig
	params anthropicParams
}

func newAnthropic(cfg config.ProviderConfig, apiKey string) (*judge, error) {
	var params anthropicParams
	if err := mapstructure.Decode(cfg.Params, &params); err != nil {
		return nil, &ConfigError{Provider: cfg.Name, Reason: fmt.Sprintf("bad params: %v", err)}
	}

	return &judge{
		cfg:  cfg,
		kind: KindAnthropic,
		c: &anthropicClient{
			client: anthropic.NewClient(option.WithAPIKey(apiKey)),
			cfg:    cfg,
			params: params,
		},
	}, nil
}

func (a *anthropicClient) complete(ctx context.Context, system, user string) (string, models.TokenUsage, error) {
	req := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.cfg.Model),
		MaxTokens:   int64(a.cfg.MaxTokens),
		Temperature: anthropic.Float(a.cfg.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			{
				Role:    anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(user)},
			},
		},
	}
	if a.params.TopK != nil {
		req.TopK = anthropic.Int(*a.params.TopK)
	}
	if a.params.TopP != nil {
		req.TopP = anthropic.Float(*a.params.TopP)
	}

	message, err := a.client.Messages.New(ctx, req)
	if err != nil {
		return "", models.TokenUsage{}, a.classify(err)
	}

	usage := models.TokenUsage{
		Prompt:     int(message.Usage.InputTokens),
		Completion: int(message.Usage.OutputTokens),
		Total:      int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}

	var sb strings.Builder
	for _, content := range message.Content {
		switch content.Type {
		case "text":
			sb.WriteString(content.Text)
		}
	}
	if sb.Len() == 0 {
		return "", usage, &CallError{Provider: a.cfg.Name, Err: errors.New("empty response: no text blocks")}
	}
	return sb.String(), usage, nil
}

func (a *anthropicClient) classify(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &CallError{
			Provider:   a.cfg.Name,
			StatusCode: apierr.StatusCode,
			Retryable:  retryableStatus(apierr.StatusCode),
			Err:        err,
		}
	}
	return &CallError{Provider: a.cfg.Name, Retryable: transient(err), Err: err}
}
