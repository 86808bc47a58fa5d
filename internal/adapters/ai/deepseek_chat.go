package ai

import (
	"context"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"marketpulse/pkg/errors"
	"marketpulse/pkg/logger"
)

// Ensure DeepSeekProvider implements ChatProvider
var _ ChatProvider = (*DeepSeekProvider)(nil)

// DeepSeekConfig configures the DeepSeek client
type DeepSeekConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// DeepSeekProvider talks to DeepSeek through its OpenAI compatible API
type DeepSeekProvider struct {
	client  openai.Client
	timeout time.Duration
	log     *logger.Logger
}

// NewDeepSeekProvider creates a DeepSeek chat provider.
// An empty API key yields errors.ErrNotConfigured.
func NewDeepSeekProvider(cfg DeepSeekConfig) (*DeepSeekProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrNotConfigured, "deepseek API key not configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultDeepSeekBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(cfg.MaxRetries),
	)

	return &DeepSeekProvider{
		client:  client,
		timeout: cfg.Timeout,
		log:     logger.Get().With("component", "deepseek_chat"),
	}, nil
}

// Name returns the provider identifier
func (p *DeepSeekProvider) Name() string {
	return ProviderNameDeepSeek
}

// Chat sends a chat completion request to DeepSeek
func (p *DeepSeekProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "chat request has no messages")
	}
	if req.Model == "" {
		req.Model = DefaultDeepSeekModel
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: convertMessages(req.Messages),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	start := time.Now()
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "deepseek chat completion: %v", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "deepseek returned no choices")
	}

	choice := completion.Choices[0]

	p.log.Debug("Chat completion finished",
		"model", completion.Model,
		"prompt_tokens", completion.Usage.PromptTokens,
		"completion_tokens", completion.Usage.CompletionTokens,
		"duration", time.Since(start),
	)

	return &ChatResponse{
		ID:           completion.ID,
		Model:        completion.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
	}, nil
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
