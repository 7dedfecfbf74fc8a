package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/models"
)

// openaiParams are the optional vendor knobs accepted under the provider's
// params block.
type openaiParams struct {
	Seed *int64   `mapstructure:"seed"`
	TopP *float64 `mapstructure:"top_p"`
}

type openaiClient struct {
	client openai.Client
	cfg    config.ProviderConfig
	params openaiParams
}

func newOpenAI(cfg config.ProviderConfig, apiKey string) (*judge, error) {
	var params openaiParams
	if err := mapstructure.Decode(cfg.Params, &params); err != nil {
		return nil, &ConfigError{Provider: cfg.Name, Reason: fmt.Sprintf("bad params: %v", err)}
	}

	return &judge{
		cfg:  cfg,
		kind: KindOpenAI,
		c: &openaiClient{
			client: openai.NewClient(option.WithAPIKey(apiKey)),
			cfg:    cfg,
			params: params,
		},
	}, nil
}

func (o *openaiClient) complete(ctx context.Context, system, user string) (string, models.TokenUsage, error) {
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxCompletionTokens: openai.Int(int64(o.cfg.MaxTokens)),
		Temperature:         openai.Float(o.cfg.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if o.params.Seed != nil {
		req.Seed = openai.Int(*o.params.Seed)
	}
	if o.params.TopP != nil {
		req.TopP = openai.Float(*o.params.TopP)
	}

	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", models.TokenUsage{}, o.classify(err)
	}

	usage := models.TokenUsage{
		Prompt:     int(resp.Usage.PromptTokens),
		Completion: int(resp.Usage.CompletionTokens),
		Total:      int(resp.Usage.TotalTokens),
	}

	if len(resp.Choices) == 0 {
		return "", usage, &CallError{Provider: o.cfg.Name, Err: errors.New("empty response: no choices")}
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (o *openaiClient) classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &CallError{
			Provider:   o.cfg.Name,
			StatusCode: apierr.StatusCode,
			Retryable:  retryableStatus(apierr.StatusCode),
			Err:        err,
		}
	}
	return &CallError{Provider: o.cfg.Name, Retryable: transient(err), Err: err}
}
