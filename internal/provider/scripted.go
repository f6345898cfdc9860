package provider

import (
	"context"
	"sync"
)

// Scripted is a deterministic in-process provider. Respond decides each
// reply; media is nil for text-only calls. It is used by tests and local
// dry runs.
type Scripted struct {
	ID      string
	Respond func(ctx context.Context, prompt string, media *Media) (string, error)

	mu      sync.Mutex
	prompts []string
}

// NewScripted creates a Scripted provider that always answers with text.
func NewScripted(id, text string) *Scripted {
	return &Scripted{
		ID: id,
		Respond: func(context.Context, string, *Media) (string, error) {
			return text, nil
		},
	}
}

func (s *Scripted) Name() string {
	return s.ID
}

func (s *Scripted) Generate(ctx context.Context, prompt string) (*Completion, error) {
	return s.call(ctx, prompt, nil)
}

func (s *Scripted) GenerateMultiModal(ctx context.Context, prompt string, media Media) (*Completion, error) {
	return s.call(ctx, prompt, &media)
}

// Prompts returns every prompt received so far.
func (s *Scripted) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

// Calls returns the number of calls received so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func (s *Scripted) call(ctx context.Context, prompt string, media *Media) (*Completion, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := s.Respond(ctx, prompt, media)
	if err != nil {
		return nil, err
	}

	return &Completion{
		Text:         text,
		Model:        s.ID + "-scripted",
		InputTokens:  len(prompt) / 4,
		OutputTokens: len(text) / 4,
	}, nil
}
