package workflow

import (
	"context"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/policy"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Emergency produces the fixed placeholder result of the policy without
// calling any model. It never fails.
type Emergency struct {
	policy *policy.Policy
}

// NewEmergency creates the emergency tier.
func NewEmergency(p *policy.Policy) *Emergency {
	return &Emergency{policy: p}
}

func (e *Emergency) Mode() risk.Mode {
	return risk.ModeEmergency
}

func (e *Emergency) Run(_ context.Context, _ risk.Request, _ *risk.Context) (*risk.Result, error) {
	score := risk.Clamp(e.policy.Emergency.Score)

	return &risk.Result{
		RiskScore:              score,
		RiskLevel:              e.policy.Level(score),
		Categories:             map[string]risk.CategoryResult{},
		Highlights:             []risk.Highlight{},
		Suggestions:            []risk.Suggestion{e.policy.EmergencySuggestion()},
		RiskySpans:             []risk.Span{},
		RiskyPhrases:           []string{},
		RiskyPhrasesByCategory: map[string][]string{},
		Message:                e.policy.Emergency.Message,
		Metadata: risk.Metadata{
			ModelUsed: "none",
			Mode:      risk.ModeEmergency,
		},
	}, nil
}
