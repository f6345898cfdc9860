package gateway_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/budget"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTracker() *budget.Tracker {
	return budget.New(budget.Config{TokensPerMinute: 1_000_000, RequestsPerMinute: 1000, MaxConcurrent: 4}, logger)
}

var cfg = gateway.Config{
	MaxAttempts: 3,
	BackoffBase: time.Millisecond,
	BackoffMax:  5 * time.Millisecond,
	CallTimeout: time.Second,
}

// sequence answers each call with the next reply; the last reply repeats.
func sequence(id string, replies ...error) *provider.Scripted {
	var (
		mu sync.Mutex
		i  int
	)
	return &provider.Scripted{
		ID: id,
		Respond: func(context.Context, string, *provider.Media) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			err := replies[min(i, len(replies)-1)]
			i++
			if err != nil {
				return "", err
			}
			return id + " ok", nil
		},
	}
}

// textOnly hides the multi-modal capability of a scripted provider.
type textOnly struct {
	s *provider.Scripted
}

func (p textOnly) Name() string {
	return p.s.Name()
}

func (p textOnly) Generate(ctx context.Context, prompt string) (*provider.Completion, error) {
	return p.s.Generate(ctx, prompt)
}

type observer struct {
	mu        sync.Mutex
	calls     []string
	failovers []string
}

func (o *observer) ProviderCall(name, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, name+":"+outcome)
}

func (o *observer) Failover(from, to, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failovers = append(o.failovers, fmt.Sprintf("%s->%s:%s", from, to, reason))
}

type media struct {
	err error
}

func (m media) Fetch(context.Context, string) (provider.Media, error) {
	if m.err != nil {
		return provider.Media{}, m.err
	}
	return provider.Media{Data: []byte("img"), ContentType: "image/png"}, nil
}

var (
	quota     = &provider.StatusError{Provider: "p", StatusCode: 429, Message: "slow down"}
	transient = &provider.StatusError{Provider: "p", StatusCode: 503, Message: "unavailable"}
	rejected  = &provider.StatusError{Provider: "p", StatusCode: 400, Message: "bad request"}
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name      string
		primary   []error
		secondary []error
		provider  string
		err       error
		primaryN  int
		failovers int
	}{
		{
			name:     "primary succeeds",
			primary:  []error{nil},
			provider: "primary",
			primaryN: 1,
		},
		{
			name:     "transient errors are retried",
			primary:  []error{transient, transient, nil},
			provider: "primary",
			primaryN: 3,
		},
		{
			name:     "retries are bounded",
			primary:  []error{transient},
			err:      gateway.ErrUnrecoverable,
			primaryN: 3,
		},
		{
			name:     "empty responses are retried",
			primary:  []error{provider.ErrEmptyResponse, nil},
			provider: "primary",
			primaryN: 2,
		},
		{
			name:      "quota fails over once",
			primary:   []error{quota},
			secondary: []error{nil},
			provider:  "secondary",
			primaryN:  1,
			failovers: 1,
		},
		{
			name:      "secondary exhaustion is unrecoverable",
			primary:   []error{quota},
			secondary: []error{quota},
			err:       gateway.ErrUnrecoverable,
			primaryN:  1,
			failovers: 1,
		},
		{
			name:     "client errors are not retried",
			primary:  []error{rejected},
			err:      gateway.ErrUnrecoverable,
			primaryN: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := sequence("primary", tt.primary...)
			secondary := sequence("secondary", append(tt.secondary, nil)...)
			obs := &observer{}

			gw := gateway.New(cfg, primary, secondary, newTracker(), nil, logger)
			gw.SetObserver(obs)

			resp, err := gw.Generate(context.Background(), "prompt")
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
			} else {
				if err != nil {
					t.Fatalf("Generate: %v", err)
				}
				if resp.Provider != tt.provider {
					t.Errorf("provider = %s, want %s", resp.Provider, tt.provider)
				}
				if resp.VisualContextLost {
					t.Error("text call flagged visual context lost")
				}
			}

			if primary.Calls() != tt.primaryN {
				t.Errorf("primary calls = %d, want %d", primary.Calls(), tt.primaryN)
			}
			if len(obs.failovers) != tt.failovers {
				t.Errorf("failovers = %v, want %d", obs.failovers, tt.failovers)
			}
		})
	}
}

func TestGenerate_NoSecondary(t *testing.T) {
	gw := gateway.New(cfg, sequence("primary", quota), nil, newTracker(), nil, logger)

	_, err := gw.Generate(context.Background(), "prompt")
	if !errors.Is(err, gateway.ErrUnrecoverable) || !errors.Is(err, provider.ErrQuotaExceeded) {
		t.Errorf("error = %v, want unrecoverable quota error", err)
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gw := gateway.New(cfg, sequence("primary", nil), nil, newTracker(), nil, logger)

	_, err := gw.Generate(ctx, "prompt")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if errors.Is(err, gateway.ErrUnrecoverable) {
		t.Error("cancellation reported as unrecoverable")
	}
}

func TestGenerate_CallTimeout(t *testing.T) {
	slow := &provider.Scripted{
		ID: "slow",
		Respond: func(ctx context.Context, _ string, _ *provider.Media) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	gw := gateway.New(gateway.Config{MaxAttempts: 2, CallTimeout: 10 * time.Millisecond}, slow, nil, newTracker(), nil, logger)

	_, err := gw.Generate(context.Background(), "prompt")
	if !errors.Is(err, gateway.ErrUnrecoverable) || !errors.Is(err, provider.ErrProvider) {
		t.Errorf("error = %v, want unrecoverable provider error", err)
	}
	if slow.Calls() != 2 {
		t.Errorf("calls = %d, want timeouts retried", slow.Calls())
	}
}

func TestGenerateMultiModal(t *testing.T) {
	req := gateway.MediaRequest{
		Ref:        "frames/1.png",
		Transcript: "hello there",
		Metadata:   map[string]string{"title": "My video"},
	}

	t.Run("primary sees media", func(t *testing.T) {
		primary := sequence("primary", nil)
		gw := gateway.New(cfg, primary, sequence("secondary", nil), newTracker(), media{}, logger)

		resp, err := gw.GenerateMultiModal(context.Background(), "prompt", req)
		if err != nil {
			t.Fatalf("GenerateMultiModal: %v", err)
		}
		if resp.Provider != "primary" || resp.VisualContextLost {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("quota degrades to secondary text", func(t *testing.T) {
		secondary := sequence("secondary", nil)
		gw := gateway.New(cfg, sequence("primary", quota), secondary, newTracker(), media{}, logger)

		resp, err := gw.GenerateMultiModal(context.Background(), "prompt", req)
		if err != nil {
			t.Fatalf("GenerateMultiModal: %v", err)
		}
		if resp.Provider != "secondary" || !resp.VisualContextLost {
			t.Errorf("response = %+v, want secondary with visual context lost", resp)
		}

		prompts := secondary.Prompts()
		if len(prompts) != 1 || !strings.Contains(prompts[0], "hello there") || !strings.Contains(prompts[0], "title: My video") {
			t.Errorf("secondary prompt = %q", prompts)
		}
	})

	t.Run("unavailable media degrades on primary", func(t *testing.T) {
		primary := sequence("primary", nil)
		gw := gateway.New(cfg, primary, nil, newTracker(), media{err: errors.New("missing")}, logger)

		resp, err := gw.GenerateMultiModal(context.Background(), "prompt", req)
		if err != nil {
			t.Fatalf("GenerateMultiModal: %v", err)
		}
		if resp.Provider != "primary" || !resp.VisualContextLost {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("text-only primary degrades", func(t *testing.T) {
		gw := gateway.New(cfg, textOnly{sequence("primary", nil)}, nil, newTracker(), media{}, logger)

		resp, err := gw.GenerateMultiModal(context.Background(), "prompt", req)
		if err != nil {
			t.Fatalf("GenerateMultiModal: %v", err)
		}
		if !resp.VisualContextLost {
			t.Error("visual context loss not flagged")
		}
	})
}

func TestTextOnlyPrompt(t *testing.T) {
	got := gateway.TextOnlyPrompt("Stage: basic", gateway.MediaRequest{
		Transcript: "words",
		Metadata:   map[string]string{"b": "2", "a": "1"},
	})

	if !strings.HasPrefix(got, "Stage: basic") {
		t.Errorf("prompt prefix lost: %q", got)
	}
	if strings.Index(got, "- a: 1") > strings.Index(got, "- b: 2") {
		t.Error("metadata not sorted")
	}
}
