// Package provider adapts large-language-model services to a uniform
// prompt-in, text-out contract and classifies their failures.
package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
)

var (
	// ErrQuotaExceeded signals a rate-limit or quota rejection. The gateway
	// answers it with provider failover.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
	// ErrProvider signals a transient provider failure worth retrying.
	ErrProvider = errors.New("provider error")
	// ErrEmptyResponse indicates the provider returned no text content.
	ErrEmptyResponse = errors.New("provider returned no text content")
)

const systemPrompt = `You are a content policy risk analyst for a video platform. ` +
	`Follow the response format in each request exactly and respond with JSON only.`

// Completion is the text produced by one provider call.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Media is an inline non-text input such as a video keyframe.
type Media struct {
	Data        []byte
	ContentType string
}

// Provider generates text from a prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Completion, error)
}

// MultiModal is a Provider that also accepts media alongside the prompt.
type MultiModal interface {
	Provider
	GenerateMultiModal(ctx context.Context, prompt string, media Media) (*Completion, error)
}

// StatusError is an HTTP-level provider failure. It unwraps to
// ErrQuotaExceeded for 429 and ErrProvider for 408 and 5xx responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrQuotaExceeded
	case e.StatusCode == http.StatusRequestTimeout, e.StatusCode >= 500:
		return ErrProvider
	}
	return nil
}

// New builds a provider from configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) (Provider, error) {
	switch cfg.Name {
	case config.ProviderAnthropic:
		return NewAnthropic(cfg, logger), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Name)
	}
}

// transportError marks network failures and per-attempt timeouts as
// retryable provider errors.
func transportError(name string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrProvider, name, err)
	}
	return fmt.Errorf("%s: %w", name, err)
}
