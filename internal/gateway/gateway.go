// Package gateway routes prompts to the primary and secondary model
// providers through the shared budget, applying bounded retries and quota
// failover.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/budget"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
)

// ErrUnrecoverable is returned when retries and failover are exhausted.
// The fallback controller answers it with a lower analysis tier.
var ErrUnrecoverable = errors.New("model gateway exhausted")

// Observer receives provider call outcomes and failovers.
type Observer interface {
	ProviderCall(provider, outcome string)
	Failover(from, to, reason string)
}

// Config holds retry and timeout settings.
type Config struct {
	MaxAttempts          int
	BackoffBase          time.Duration
	BackoffMax           time.Duration
	CallTimeout          time.Duration
	ExpectedOutputTokens int
}

// Response is the text returned by whichever provider answered.
type Response struct {
	Text              string
	Provider          string
	Model             string
	VisualContextLost bool
}

// Gateway is safe for concurrent use.
type Gateway struct {
	cfg       Config
	primary   provider.Provider
	secondary provider.Provider
	budget    *budget.Tracker
	media     MediaSource
	logger    *slog.Logger
	observer  Observer
}

// New creates a Gateway. secondary and media may be nil; without a
// secondary provider quota errors are unrecoverable, and without a media
// source multi-modal calls degrade to text.
func New(
	cfg Config,
	primary provider.Provider,
	secondary provider.Provider,
	tracker *budget.Tracker,
	media MediaSource,
	logger *slog.Logger,
) *Gateway {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 90 * time.Second
	}
	if cfg.ExpectedOutputTokens <= 0 {
		cfg.ExpectedOutputTokens = 800
	}

	return &Gateway{
		cfg:       cfg,
		primary:   primary,
		secondary: secondary,
		budget:    tracker,
		media:     media,
		logger:    logger.With("system", "gateway"),
	}
}

// SetObserver registers o to receive call outcomes.
func (g *Gateway) SetObserver(o Observer) {
	g.observer = o
}

// Generate sends a text prompt to the primary provider, failing over once to
// the secondary provider on a quota error.
func (g *Gateway) Generate(ctx context.Context, prompt string) (*Response, error) {
	c, err := g.withRetry(ctx, g.primary, prompt, func(ctx context.Context) (*provider.Completion, error) {
		return g.primary.Generate(ctx, prompt)
	})
	if err == nil {
		return g.response(g.primary, c, false), nil
	}

	if !errors.Is(err, provider.ErrQuotaExceeded) || g.secondary == nil {
		return nil, g.unrecoverable(ctx, err)
	}

	g.failover(ctx, err)

	c, err = g.withRetry(ctx, g.secondary, prompt, func(ctx context.Context) (*provider.Completion, error) {
		return g.secondary.Generate(ctx, prompt)
	})
	if err != nil {
		return nil, g.unrecoverable(ctx, err)
	}

	return g.response(g.secondary, c, false), nil
}

// withRetry runs call up to MaxAttempts times. ErrProvider and empty
// responses are retried with exponential backoff; quota and other errors
// return immediately.
func (g *Gateway) withRetry(
	ctx context.Context,
	p provider.Provider,
	prompt string,
	call func(context.Context) (*provider.Completion, error),
) (*provider.Completion, error) {
	var lastErr error

	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, err := g.attempt(ctx, p, prompt, call)
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err

		if !retryable(err) {
			return nil, err
		}

		if attempt < g.cfg.MaxAttempts {
			wait := g.backoff(attempt)
			g.logger.Warn(
				"provider call failed, retrying",
				"provider", p.Name(),
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
			if err := sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("%s: %d attempts: %w", p.Name(), g.cfg.MaxAttempts, lastErr)
}

func (g *Gateway) attempt(
	ctx context.Context,
	p provider.Provider,
	prompt string,
	call func(context.Context) (*provider.Completion, error),
) (*provider.Completion, error) {
	est := budget.EstimateTokens(prompt, g.cfg.ExpectedOutputTokens)

	release, err := g.budget.Admit(ctx, est)
	if err != nil {
		return nil, err
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, g.cfg.CallTimeout)
	defer cancel()

	c, err := call(callCtx)
	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, provider.ErrProvider) {
			err = fmt.Errorf("%w: %s: call timed out: %w", provider.ErrProvider, p.Name(), err)
		}
		g.observe(p.Name(), outcome(err))
		return nil, err
	}

	g.budget.Reconcile(est, c.InputTokens+c.OutputTokens)
	g.observe(p.Name(), "ok")
	return c, nil
}

func (g *Gateway) backoff(attempt int) time.Duration {
	d := g.cfg.BackoffBase << (attempt - 1)
	if g.cfg.BackoffMax > 0 && d > g.cfg.BackoffMax {
		d = g.cfg.BackoffMax
	}
	if d > 0 {
		d += rand.N(d/5 + 1)
	}
	return d
}

func (g *Gateway) failover(ctx context.Context, cause error) {
	g.logger.WarnContext(
		ctx, "primary provider quota exceeded, failing over",
		"from", g.primary.Name(),
		"to", g.secondary.Name(),
		"error", cause,
	)
	if g.observer != nil {
		g.observer.Failover(g.primary.Name(), g.secondary.Name(), "quota")
	}
}

func (g *Gateway) unrecoverable(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %w", ErrUnrecoverable, err)
}

func (g *Gateway) observe(name, result string) {
	if g.observer != nil {
		g.observer.ProviderCall(name, result)
	}
}

func (g *Gateway) response(p provider.Provider, c *provider.Completion, lost bool) *Response {
	return &Response{
		Text:              c.Text,
		Provider:          p.Name(),
		Model:             c.Model,
		VisualContextLost: lost,
	}
}

func retryable(err error) bool {
	return errors.Is(err, provider.ErrProvider) || errors.Is(err, provider.ErrEmptyResponse)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, provider.ErrQuotaExceeded):
		return "quota"
	case retryable(err):
		return "retryable"
	default:
		return "error"
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
