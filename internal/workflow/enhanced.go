package workflow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prepare"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/scoring"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/spans"
)

// Enhanced is the full staged pipeline:
//
//	context classification
//	  -> content origin (with channel context) || category analysis
//	  -> risk assessment (fanned out per chunk)
//	  -> confidence analysis
//	  -> suggestion generation
//
// Any gateway error aborts the tier; partial output is never returned.
type Enhanced struct {
	rt *Runtime
}

// NewEnhanced creates the enhanced tier.
func NewEnhanced(rt *Runtime) *Enhanced {
	rt.init()
	return &Enhanced{rt: rt}
}

func (e *Enhanced) Mode() risk.Mode {
	return risk.ModeEnhanced
}

// Run executes every stage in dependency order.
func (e *Enhanced) Run(ctx context.Context, req risk.Request, actx *risk.Context) (*risk.Result, error) {
	tr := &trace{}
	p := e.rt.Policy

	summary, err := e.classifyContext(ctx, tr, req, actx)
	if err != nil {
		return nil, err
	}

	var (
		origin     *risk.ContentOrigin
		categories map[string]risk.CategoryResult
	)

	g, gctx := errgroup.WithContext(ctx)
	if req.Channel != nil {
		g.Go(func() error {
			o, err := e.detectOrigin(gctx, tr, req, actx, summary)
			origin = o
			return err
		})
	} else {
		tr.skip(prompts.StageContentOrigin)
	}
	g.Go(func() error {
		c, err := e.analyzeCategories(gctx, tr, req, actx, summary)
		categories = c
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lexicon := scoring.ApplyLexicon(p, actx.Text, categories)

	assessment, err := e.assessRisk(ctx, tr, actx, summary, categories)
	if err != nil {
		return nil, err
	}
	spans.Filter(assessment, p)
	mergeLexicon(assessment, lexicon, actx.Text)

	confidence, err := e.analyzeConfidence(ctx, tr, actx, assessment, categories)
	if err != nil {
		return nil, err
	}

	suggestions, err := e.suggest(ctx, tr, summary, assessment, categories)
	if err != nil {
		return nil, err
	}

	score := scoring.Aggregate(p, categories)

	result := &risk.Result{
		RiskScore:              score.Score,
		RiskLevel:              score.Level,
		Categories:             categories,
		Context:                summary,
		Highlights:             score.Highlights,
		Suggestions:            suggestions,
		FlaggedSection:         assessment.FlaggedSection,
		RiskySpans:             assessment.RiskySpans,
		RiskyPhrases:           assessment.RiskyPhrases,
		RiskyPhrasesByCategory: assessment.RiskyPhrasesByCategory,
		Confidence:             &confidence,
		ContentOrigin:          origin,
		Metadata: risk.Metadata{
			ModelUsed:         tr.modelUsed(),
			Mode:              e.mode(req, tr),
			Chunks:            len(chunksOf(actx)),
			Stages:            tr.ordered(),
			VisualContextLost: tr.visualLost,
		},
	}

	if tr.visualLost {
		result.Metadata.Degradations = append(result.Metadata.Degradations,
			"visual context lost: media analyzed as text only")
	}

	return result, nil
}

func (e *Enhanced) mode(req risk.Request, tr *trace) risk.Mode {
	switch {
	case tr.defaulted:
		return risk.ModeFallback
	case req.MediaRef != "" && !tr.visualLost:
		return risk.ModeMultiModal
	default:
		return risk.ModeEnhanced
	}
}

func (e *Enhanced) classifyContext(
	ctx context.Context,
	tr *trace,
	req risk.Request,
	actx *risk.Context,
) (risk.ContextSummary, error) {
	call := stageCall{
		stage:    prompts.StageContextClassification,
		schema:   contextSchema,
		sections: e.contentSections(req, actx),
	}

	if req.MediaRef != "" {
		media := gateway.MediaRequest{
			Ref:        req.MediaRef,
			Transcript: req.Transcript,
			Metadata:   req.MediaMetadata,
		}
		if media.Transcript == "" {
			media.Transcript = excerpt(actx.Text, e.rt.Config.ExcerptChars)
		}
		call.send = func(ctx context.Context, prompt string) (*gateway.Response, error) {
			return e.rt.Gateway.GenerateMultiModal(ctx, prompt, media)
		}
	}

	return run[risk.ContextSummary](ctx, e.rt, tr, call)
}

func (e *Enhanced) detectOrigin(
	ctx context.Context,
	tr *trace,
	req risk.Request,
	actx *risk.Context,
	summary risk.ContextSummary,
) (*risk.ContentOrigin, error) {
	o, err := run[risk.ContentOrigin](ctx, e.rt, tr, stageCall{
		stage:  prompts.StageContentOrigin,
		schema: originSchema,
		sections: append([]prompts.Section{
			{Title: "Channel", Body: req.Channel},
			{Title: "Content context", Body: summary},
		}, e.contentSections(req, actx)...),
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

type categoryBrief struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (e *Enhanced) analyzeCategories(
	ctx context.Context,
	tr *trace,
	req risk.Request,
	actx *risk.Context,
	summary risk.ContextSummary,
) (map[string]risk.CategoryResult, error) {
	p := e.rt.Policy

	briefs := make([]categoryBrief, len(p.Categories))
	for i, c := range p.Categories {
		briefs[i] = categoryBrief{Name: c.Name, Label: c.Label, Description: c.Description}
	}

	resp, err := run[categoryResponse](ctx, e.rt, tr, stageCall{
		stage:  prompts.StageCategoryAnalysis,
		schema: categorySchema,
		sections: append([]prompts.Section{
			{Title: "Categories", Body: briefs},
			{Title: "Content context", Body: summary},
		}, e.contentSections(req, actx)...),
	})
	if err != nil {
		return nil, err
	}

	normalized := scoring.Normalize(p, resp.Categories)
	out := make(map[string]risk.CategoryResult, len(p.Categories))
	for _, name := range p.CategoryNames() {
		c, ok := normalized[name]
		if !ok {
			c = risk.CategoryResult{Severity: risk.LevelLow, Violations: []string{}}
		}
		out[name] = c
	}
	return out, nil
}

type categoryGuidance struct {
	RiskScore int        `json:"risk_score"`
	Severity  risk.Level `json:"severity"`
}

func (e *Enhanced) assessRisk(
	ctx context.Context,
	tr *trace,
	actx *risk.Context,
	summary risk.ContextSummary,
	categories map[string]risk.CategoryResult,
) (*risk.Assessment, error) {
	guidance := make(map[string]categoryGuidance)
	for name, c := range categories {
		if c.RiskScore > 0 {
			guidance[name] = categoryGuidance{RiskScore: c.RiskScore, Severity: c.Severity}
		}
	}

	chunks := chunksOf(actx)
	parts := make([]risk.Assessment, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.rt.Config.ChunkConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			call := stageCall{
				stage:  prompts.StageRiskAssessment,
				schema: riskSchema,
				sections: []prompts.Section{
					{Title: "Category names", Body: e.rt.Policy.CategoryNames()},
					{Title: "Category analysis", Body: guidance},
					{Title: "Content context", Body: summary},
					{Title: "Text", Body: chunk.Text},
				},
			}
			if len(chunks) > 1 {
				call.label = fmt.Sprintf("%s/chunk-%d", prompts.StageRiskAssessment, chunk.Index)
				call.sections = slices.Insert(call.sections, 3, prompts.Section{
					Title: "Position",
					Body:  fmt.Sprintf("chunk %d of %d", chunk.Index+1, len(chunks)),
				})
			}

			a, err := run[risk.Assessment](gctx, e.rt, tr, call)
			if err != nil {
				return err
			}

			a.RiskySpans = spans.Localize(a.RiskySpans, chunk.Text, chunk.Offset)
			parts[i] = a
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	combined := spans.Combine(parts, actx.Text)
	return &combined, nil
}

type assessmentBrief struct {
	OverallRiskScore int            `json:"overall_risk_score"`
	SeverityLevel    risk.Level     `json:"severity_level"`
	FlaggedSection   string         `json:"flagged_section"`
	RiskFactors      []string       `json:"risk_factors"`
	FlaggedSpans     int            `json:"flagged_spans"`
	CategoryScores   map[string]int `json:"category_scores"`
}

func brief(a *risk.Assessment, categories map[string]risk.CategoryResult) assessmentBrief {
	scores := make(map[string]int)
	for _, name := range slices.Sorted(maps.Keys(categories)) {
		if s := categories[name].RiskScore; s > 0 {
			scores[name] = s
		}
	}
	return assessmentBrief{
		OverallRiskScore: a.OverallRiskScore,
		SeverityLevel:    a.SeverityLevel,
		FlaggedSection:   a.FlaggedSection,
		RiskFactors:      a.RiskFactors,
		FlaggedSpans:     len(a.RiskySpans),
		CategoryScores:   scores,
	}
}

func (e *Enhanced) analyzeConfidence(
	ctx context.Context,
	tr *trace,
	actx *risk.Context,
	a *risk.Assessment,
	categories map[string]risk.CategoryResult,
) (risk.ConfidenceAnalysis, error) {
	sections := []prompts.Section{
		{Title: "Assessment", Body: brief(a, categories)},
		{Title: "Input", Body: map[string]any{
			"length":   actx.Length,
			"language": actx.Language,
			"chunks":   len(chunksOf(actx)),
			"caveats":  actx.Caveats,
		}},
	}

	c, err := run[risk.ConfidenceAnalysis](ctx, e.rt, tr, stageCall{
		stage:    prompts.StageConfidenceAnalysis,
		schema:   confidenceSchema,
		sections: sections,
	})
	if err != nil {
		return c, err
	}
	c.OverallConfidence = risk.Clamp(c.OverallConfidence)
	return c, nil
}

func (e *Enhanced) suggest(
	ctx context.Context,
	tr *trace,
	summary risk.ContextSummary,
	a *risk.Assessment,
	categories map[string]risk.CategoryResult,
) ([]risk.Suggestion, error) {
	resp, err := run[suggestionResponse](ctx, e.rt, tr, stageCall{
		stage:  prompts.StageSuggestionGeneration,
		schema: suggestionSchema,
		sections: []prompts.Section{
			{Title: "Content context", Body: summary},
			{Title: "Assessment", Body: brief(a, categories)},
			{Title: "Risky phrases", Body: a.RiskyPhrases},
		},
	})
	if err != nil {
		return nil, err
	}
	return finalizeSuggestions(resp.Suggestions, e.rt), nil
}

func (e *Enhanced) contentSections(req risk.Request, actx *risk.Context) []prompts.Section {
	var sections []prompts.Section
	if req.VideoContext != "" {
		sections = append(sections, prompts.Section{Title: "Video context", Body: req.VideoContext})
	}
	return append(sections, prompts.Section{
		Title: "Content",
		Body:  excerpt(actx.Text, e.rt.Config.ExcerptChars),
	})
}

// mergeLexicon folds lexicon hits into the merged assessment so that terms
// the model missed still appear as spans and phrases.
func mergeLexicon(a *risk.Assessment, hits []risk.Span, text string) {
	if len(hits) == 0 {
		return
	}

	phrases := make([]string, 0, len(hits))
	byCategory := make(map[string][]string)
	for _, h := range hits {
		phrase := strings.ToLower(h.Text)
		phrases = append(phrases, phrase)
		byCategory[h.PolicyCategory] = append(byCategory[h.PolicyCategory], phrase)
	}

	a.RiskySpans = spans.Merge(append(a.RiskySpans, hits...), text)
	a.RiskyPhrases = spans.UnionPhrases(a.RiskyPhrases, phrases)
	a.RiskyPhrasesByCategory = spans.UnionByCategory(a.RiskyPhrasesByCategory, byCategory)
	for _, h := range hits {
		a.SeverityLevel = risk.Max(a.SeverityLevel, h.RiskLevel)
	}
}

func chunksOf(actx *risk.Context) []prepare.Chunk {
	if !actx.NeedsChunking {
		return []prepare.Chunk{{Index: 0, Offset: 0, Text: actx.Text}}
	}
	return prepare.Split(actx.Text, actx.ChunkSize, actx.Overlap)
}
