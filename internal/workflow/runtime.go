// Package workflow runs the analysis tiers. The enhanced tier orchestrates
// the staged model pipeline, the basic tier issues a single consolidated
// prompt, and the emergency tier produces a fixed result without any model
// call. Controller walks the tiers so every valid request yields a result.
package workflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/policy"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prepare"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
)

// Generator is the model gateway contract used by the stages.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*gateway.Response, error)
	GenerateMultiModal(ctx context.Context, prompt string, req gateway.MediaRequest) (*gateway.Response, error)
}

// Recorder receives stage and tier outcomes.
type Recorder interface {
	Stage(stage, status, strategy string)
	Analysis(mode string, d time.Duration)
	Degradation(tier string)
}

// Config sizes the pipeline. Lengths are in runes.
type Config struct {
	prepare.Config

	MaxSuggestions   int
	MinSuggestions   int
	ExcerptChars     int
	BasicMaxChars    int
	ChunkConcurrency int
}

// Runtime bundles the dependencies the tiers require. It is constructed by
// higher-level composition code from the infrastructure.
type Runtime struct {
	Gateway  Generator
	Prompts  prompts.Source
	Policy   *policy.Policy
	Config   Config
	Recorder Recorder
	Logger   *slog.Logger
}

func (rt *Runtime) init() {
	if rt.Prompts == nil {
		rt.Prompts = prompts.Defaults()
	}
	if rt.Recorder == nil {
		rt.Recorder = nopRecorder{}
	}
	if rt.Logger == nil {
		rt.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rt.Config.MaxSuggestions <= 0 {
		rt.Config.MaxSuggestions = 12
	}
	if rt.Config.MinSuggestions <= 0 {
		rt.Config.MinSuggestions = 5
	}
	if rt.Config.ExcerptChars <= 0 {
		rt.Config.ExcerptChars = 8000
	}
	if rt.Config.BasicMaxChars <= 0 {
		rt.Config.BasicMaxChars = 8000
	}
	if rt.Config.ChunkConcurrency <= 0 {
		rt.Config.ChunkConcurrency = 4
	}
}

type nopRecorder struct{}

func (nopRecorder) Stage(string, string, string)   {}
func (nopRecorder) Analysis(string, time.Duration) {}
func (nopRecorder) Degradation(string)             {}
