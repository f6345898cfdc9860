package infrastructure

import (
	"fmt"
	"log/slog"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/budget"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/metrics"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/policy"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prepare"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/workflow"
)

// Pipeline holds the process-wide analysis dependencies. The budget tracker
// and gateway are shared by every analysis.
type Pipeline struct {
	Policy  *policy.Policy
	Budget  *budget.Tracker
	Gateway *gateway.Gateway
	Metrics *metrics.Metrics
	Config  workflow.Config
	Logger  *slog.Logger
}

// NewPipeline builds the policy table, budget tracker, providers, and model
// gateway from configuration. media and m may be nil.
func NewPipeline(
	cfg *config.Config,
	logger *slog.Logger,
	media gateway.MediaSource,
	m *metrics.Metrics,
) (*Pipeline, error) {
	p, err := policy.Load(cfg.Analysis.PolicyFile)
	if err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}

	tracker := budget.New(budget.Config{
		TokensPerMinute:   cfg.Budget.TokensPerMinute,
		RequestsPerMinute: cfg.Budget.RequestsPerMinute,
		MaxConcurrent:     cfg.Budget.MaxConcurrent,
		InterCallDelay:    cfg.Budget.InterCallDelayDuration(),
		Window:            cfg.Budget.WindowDuration(),
		AdmitThreshold:    cfg.Budget.AdmitThreshold,
	}, logger)

	primary, err := provider.New(cfg.Providers.Primary, logger)
	if err != nil {
		return nil, fmt.Errorf("primary provider: %w", err)
	}

	var secondary provider.Provider
	if cfg.Providers.Secondary.APIKey != "" {
		secondary, err = provider.New(cfg.Providers.Secondary, logger)
		if err != nil {
			return nil, fmt.Errorf("secondary provider: %w", err)
		}
	} else {
		logger.Warn("secondary provider has no api key, quota failover disabled",
			"provider", cfg.Providers.Secondary.Name,
		)
	}

	gw := gateway.New(gateway.Config{
		MaxAttempts:          cfg.Gateway.MaxAttempts,
		BackoffBase:          cfg.Gateway.BackoffBaseDuration(),
		BackoffMax:           cfg.Gateway.BackoffMaxDuration(),
		CallTimeout:          cfg.Gateway.CallTimeoutDuration(),
		ExpectedOutputTokens: cfg.Providers.Primary.MaxTokens / 4,
	}, primary, secondary, tracker, media, logger)

	if m != nil {
		tracker.SetObserver(m)
		gw.SetObserver(m)
	}

	return &Pipeline{
		Policy:  p,
		Budget:  tracker,
		Gateway: gw,
		Metrics: m,
		Logger:  logger,
		Config: workflow.Config{
			Config: prepare.Config{
				ChunkSize:     cfg.Analysis.ChunkSize,
				ChunkOverlap:  cfg.Analysis.ChunkOverlap,
				MinTextLength: cfg.Analysis.MinTextLength,
				MaxTextLength: cfg.Analysis.MaxTextLength,
			},
			MaxSuggestions: cfg.Analysis.MaxSuggestions,
			MinSuggestions: cfg.Analysis.MinSuggestions,
			BasicMaxChars:  cfg.Analysis.BasicMaxChars,
		},
	}, nil
}

// Analyzer returns the fallback chain controller over the pipeline. source
// supplies stage instructions; nil uses the built-in defaults.
func (p *Pipeline) Analyzer(source prompts.Source, logger *slog.Logger) workflow.Analyzer {
	var recorder workflow.Recorder
	if p.Metrics != nil {
		recorder = p.Metrics
	}

	return workflow.NewController(&workflow.Runtime{
		Gateway:  p.Gateway,
		Prompts:  source,
		Policy:   p.Policy,
		Config:   p.Config,
		Recorder: recorder,
		Logger:   logger,
	})
}
