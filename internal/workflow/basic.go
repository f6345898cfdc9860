package workflow

import (
	"cmp"
	"context"
	"slices"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/scoring"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/spans"
)

// Basic answers with one consolidated prompt. Its result has an empty
// category map. A response that cannot be extracted fails the tier.
type Basic struct {
	rt *Runtime
}

// NewBasic creates the basic tier.
func NewBasic(rt *Runtime) *Basic {
	rt.init()
	return &Basic{rt: rt}
}

func (b *Basic) Mode() risk.Mode {
	return risk.ModeBasic
}

func (b *Basic) Run(ctx context.Context, req risk.Request, actx *risk.Context) (*risk.Result, error) {
	tr := &trace{}
	p := b.rt.Policy

	sections := []prompts.Section{
		{Title: "Category names", Body: p.CategoryNames()},
	}
	if req.VideoContext != "" {
		sections = append(sections, prompts.Section{Title: "Video context", Body: req.VideoContext})
	}
	if req.Channel != nil {
		sections = append(sections, prompts.Section{Title: "Channel", Body: req.Channel})
	}
	if len(req.MediaMetadata) > 0 {
		sections = append(sections, prompts.Section{Title: "Media metadata", Body: req.MediaMetadata})
	}
	sections = append(sections, prompts.Section{
		Title: "Content",
		Body:  excerpt(actx.Text, b.rt.Config.BasicMaxChars),
	})

	resp, err := run[basicResponse](ctx, b.rt, tr, stageCall{
		stage:    prompts.StageBasic,
		schema:   basicSchema,
		sections: sections,
		strict:   true,
	})
	if err != nil {
		return nil, err
	}

	score := risk.Clamp(resp.RiskScore)

	highlights := make([]risk.Highlight, 0, len(resp.Highlights))
	for _, h := range resp.Highlights {
		if h.Category == "" {
			continue
		}
		h.RiskScore = risk.Clamp(h.RiskScore)
		if h.RiskScore <= p.Highlights.MinScore {
			continue
		}
		h.Severity = risk.Max(risk.ParseLevel(string(h.Severity)), p.CategorySeverity(h.RiskScore))
		highlights = append(highlights, h)
	}
	slices.SortFunc(highlights, func(a, b risk.Highlight) int {
		return cmp.Or(cmp.Compare(b.RiskScore, a.RiskScore), cmp.Compare(a.Category, b.Category))
	})
	if len(highlights) > p.Highlights.Limit {
		highlights = highlights[:p.Highlights.Limit]
	}

	assessment := &risk.Assessment{
		SeverityLevel:          risk.LevelLow,
		RiskyPhrases:           spans.UnionPhrases(resp.RiskyPhrases),
		RiskyPhrasesByCategory: map[string][]string{},
		RiskySpans:             []risk.Span{},
	}
	spans.Filter(assessment, p)
	mergeLexicon(assessment, scoring.ApplyLexicon(p, actx.Text, map[string]risk.CategoryResult{}), actx.Text)

	return &risk.Result{
		RiskScore:              score,
		RiskLevel:              p.Level(score),
		Categories:             map[string]risk.CategoryResult{},
		Highlights:             highlights,
		Suggestions:            finalizeSuggestions(resp.Suggestions, b.rt),
		FlaggedSection:         resp.FlaggedSection,
		RiskySpans:             assessment.RiskySpans,
		RiskyPhrases:           assessment.RiskyPhrases,
		RiskyPhrasesByCategory: assessment.RiskyPhrasesByCategory,
		Metadata: risk.Metadata{
			ModelUsed: tr.modelUsed(),
			Mode:      risk.ModeBasic,
			Chunks:    1,
			Stages:    tr.ordered(),
		},
	}, nil
}
