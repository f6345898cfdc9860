package provider_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestStatusError(t *testing.T) {
	tests := []struct {
		status int
		quota  bool
		retry  bool
	}{
		{http.StatusTooManyRequests, true, false},
		{http.StatusServiceUnavailable, false, true},
		{http.StatusInternalServerError, false, true},
		{http.StatusRequestTimeout, false, true},
		{http.StatusBadRequest, false, false},
		{http.StatusUnauthorized, false, false},
	}

	for _, tt := range tests {
		err := error(&provider.StatusError{Provider: "x", StatusCode: tt.status})
		if got := errors.Is(err, provider.ErrQuotaExceeded); got != tt.quota {
			t.Errorf("status %d: quota = %v, want %v", tt.status, got, tt.quota)
		}
		if got := errors.Is(err, provider.ErrProvider); got != tt.retry {
			t.Errorf("status %d: provider error = %v, want %v", tt.status, got, tt.retry)
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{config.ProviderAnthropic, config.ProviderOpenAI} {
		p, err := provider.New(config.ProviderConfig{Name: name, Model: "m", MaxTokens: 100}, logger)
		if err != nil {
			t.Fatalf("New(%s): %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %s, want %s", p.Name(), name)
		}
	}

	if _, err := provider.New(config.ProviderConfig{Name: "nope"}, logger); err == nil {
		t.Error("expected error for unknown provider")
	}

	p, _ := provider.New(config.ProviderConfig{Name: config.ProviderAnthropic}, logger)
	if _, ok := p.(provider.MultiModal); !ok {
		t.Error("anthropic provider does not accept media")
	}
}

func openAIServer(t *testing.T, status int, body string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var received []map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		received = append(received, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &received
}

func newOpenAI(url string) provider.Provider {
	return provider.NewOpenAI(config.ProviderConfig{
		Name:      config.ProviderOpenAI,
		BaseURL:   url + "/",
		APIKey:    "secret",
		Model:     "gpt-test",
		MaxTokens: 256,
	}, logger)
}

func TestOpenAI_Generate(t *testing.T) {
	srv, received := openAIServer(t, http.StatusOK, `{
		"model": "gpt-test-0613",
		"choices": [{"message": {"role": "assistant", "content": "{\"ok\":true}"}}],
		"usage": {"prompt_tokens": 12, "completion_tokens": 4}
	}`)

	c, err := newOpenAI(srv.URL).Generate(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if c.Text != `{"ok":true}` || c.Model != "gpt-test-0613" {
		t.Errorf("completion = %+v", c)
	}
	if c.InputTokens != 12 || c.OutputTokens != 4 {
		t.Errorf("usage = %d/%d", c.InputTokens, c.OutputTokens)
	}

	req := (*received)[0]
	if req["model"] != "gpt-test" || req["max_tokens"] != float64(256) {
		t.Errorf("request = %v", req)
	}
	messages := req["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("got %d messages", len(messages))
	}
	if user := messages[1].(map[string]any); user["content"] != "classify this" {
		t.Errorf("user message = %v", user)
	}
}

func TestOpenAI_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"rate limit","type":"rate_limit"}}`, provider.ErrQuotaExceeded},
		{"server error", http.StatusBadGateway, `upstream down`, provider.ErrProvider},
		{"empty choices", http.StatusOK, `{"choices":[]}`, provider.ErrEmptyResponse},
		{"malformed body", http.StatusOK, `{"choices":`, provider.ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := openAIServer(t, tt.status, tt.body)

			_, err := newOpenAI(srv.URL).Generate(context.Background(), "p")
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("error message surfaced", func(t *testing.T) {
		srv, _ := openAIServer(t, http.StatusTooManyRequests, `{"error":{"message":"rate limit"}}`)

		_, err := newOpenAI(srv.URL).Generate(context.Background(), "p")
		var se *provider.StatusError
		if !errors.As(err, &se) || se.Message != "rate limit" || se.StatusCode != 429 {
			t.Errorf("error = %#v", err)
		}
	})
}

func TestOpenAI_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newOpenAI(url).Generate(context.Background(), "p")
	if !errors.Is(err, provider.ErrProvider) {
		t.Errorf("error = %v, want retryable provider error", err)
	}
}

func TestScripted(t *testing.T) {
	s := provider.NewScripted("fake", "answer")

	c, err := s.Generate(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if c.Text != "answer" || c.Model != "fake-scripted" || c.InputTokens != 2 {
		t.Errorf("completion = %+v", c)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.GenerateMultiModal(ctx, "p", provider.Media{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if s.Calls() != 2 {
		t.Errorf("calls = %d, want 2", s.Calls())
	}
}
