package provider

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
)

type anthropicProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewAnthropic creates a provider backed by the Anthropic Messages API.
// It accepts image media and is the preferred primary provider. SDK retries
// are disabled so the gateway owns the retry budget.
func NewAnthropic(cfg config.ProviderConfig, logger *slog.Logger) MultiModal {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &anthropicProvider{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxTokens),
		logger:    logger.With("provider", config.ProviderAnthropic),
	}
}

func (p *anthropicProvider) Name() string {
	return config.ProviderAnthropic
}

func (p *anthropicProvider) Generate(ctx context.Context, prompt string) (*Completion, error) {
	return p.send(ctx, anthropic.NewTextBlock(prompt))
}

func (p *anthropicProvider) GenerateMultiModal(ctx context.Context, prompt string, media Media) (*Completion, error) {
	image := anthropic.NewImageBlockBase64(
		media.ContentType,
		base64.StdEncoding.EncodeToString(media.Data),
	)
	return p.send(ctx, image, anthropic.NewTextBlock(prompt))
}

func (p *anthropicProvider) send(ctx context.Context, blocks ...anthropic.ContentBlockParamUnion) (*Completion, error) {
	message, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{
				Provider:   config.ProviderAnthropic,
				StatusCode: apiErr.StatusCode,
				Message:    apiErr.Error(),
			}
		}
		return nil, transportError(config.ProviderAnthropic, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, ErrEmptyResponse
	}

	p.logger.Debug(
		"completion received",
		"tokens_in", message.Usage.InputTokens,
		"tokens_out", message.Usage.OutputTokens,
	)

	return &Completion{
		Text:         text.String(),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}
