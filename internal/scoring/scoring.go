// Package scoring turns per-category results into the overall risk score,
// level, and highlights using the weights and thresholds of a policy table.
package scoring

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/policy"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Score is the aggregated outcome of the category results.
type Score struct {
	Score      int
	Level      risk.Level
	Highlights []risk.Highlight
}

// Aggregate computes the weighted mean of all scoring categories, applies
// the cumulative-risk adjustments, caps the result at 100, and maps it to a
// level. Categories scoring zero do not dilute the mean.
func Aggregate(p *policy.Policy, categories map[string]risk.CategoryResult) Score {
	score := Adjust(p, categories, WeightedMean(p, categories))
	return Score{
		Score:      score,
		Level:      p.Level(score),
		Highlights: Highlights(p, categories),
	}
}

// WeightedMean averages the positive category scores by policy weight.
func WeightedMean(p *policy.Policy, categories map[string]risk.CategoryResult) int {
	var sum, weights float64
	for name, c := range categories {
		if c.RiskScore <= 0 {
			continue
		}
		w := p.Weight(name)
		sum += float64(risk.Clamp(c.RiskScore)) * w
		weights += w
	}
	if weights == 0 {
		return 0
	}
	return int(math.Round(sum / weights))
}

// Adjust applies the cumulative-risk heuristics to base: a floor when many
// categories co-occur above the threshold and a flat bonus when any single
// category spikes.
func Adjust(p *policy.Policy, categories map[string]risk.CategoryResult, base int) int {
	rules := p.Cumulative
	score := base

	elevated, spike := 0, false
	for _, c := range categories {
		if c.RiskScore >= rules.CategoryScore {
			elevated++
		}
		if c.RiskScore >= rules.SpikeScore {
			spike = true
		}
	}

	if rules.MinCategories > 0 && elevated >= rules.MinCategories {
		score = max(score, rules.Floor)
	}
	if spike {
		score += rules.SpikeBonus
	}
	return risk.Clamp(score)
}

// Highlights returns the highest-scoring categories above the policy
// minimum, ordered by score and then by name.
func Highlights(p *policy.Policy, categories map[string]risk.CategoryResult) []risk.Highlight {
	out := make([]risk.Highlight, 0, p.Highlights.Limit)
	for name, c := range categories {
		if c.RiskScore <= p.Highlights.MinScore {
			continue
		}
		out = append(out, risk.Highlight{
			Category:    name,
			RiskScore:   c.RiskScore,
			Severity:    c.Severity,
			Explanation: c.Explanation,
		})
	}

	slices.SortFunc(out, func(a, b risk.Highlight) int {
		return cmp.Or(cmp.Compare(b.RiskScore, a.RiskScore), cmp.Compare(a.Category, b.Category))
	})

	if len(out) > p.Highlights.Limit {
		out = out[:p.Highlights.Limit]
	}
	return out
}

// Normalize clamps category scores and confidences, keys categories by
// their lowercase name, and raises each severity to at least the level its
// score implies.
func Normalize(p *policy.Policy, categories map[string]risk.CategoryResult) map[string]risk.CategoryResult {
	out := make(map[string]risk.CategoryResult, len(categories))
	for name, c := range categories {
		c.RiskScore = risk.Clamp(c.RiskScore)
		c.Confidence = risk.Clamp(c.Confidence)
		c.Severity = risk.Max(risk.ParseLevel(string(c.Severity)), p.CategorySeverity(c.RiskScore))
		if c.Violations == nil {
			c.Violations = []string{}
		}
		out[strings.ToLower(strings.TrimSpace(name))] = c
	}
	return out
}

// ApplyLexicon raises categories to the floor of every lexicon term found in
// text and returns a span for each match. Matches whose text is on the
// allow-list are ignored.
func ApplyLexicon(p *policy.Policy, text string, categories map[string]risk.CategoryResult) []risk.Span {
	var found []risk.Span
	for _, m := range p.Scan(text) {
		if p.Allowed(m.Text) {
			continue
		}

		c := categories[m.Term.Category]
		c.RiskScore = max(c.RiskScore, m.Term.Floor)
		c.Severity = risk.Max(risk.Max(c.Severity, m.Severity), p.CategorySeverity(c.RiskScore))

		violation := fmt.Sprintf("contains %q", strings.ToLower(m.Term.Term))
		if !slices.Contains(c.Violations, violation) {
			c.Violations = append(c.Violations, violation)
		}
		if c.Explanation == "" {
			c.Explanation = fmt.Sprintf("Flagged term %q is associated with %s.", m.Text, m.Term.Category)
		}
		c.Confidence = max(c.Confidence, 50)
		categories[m.Term.Category] = c

		found = append(found, risk.Span{
			Text:           m.Text,
			StartIndex:     m.Start,
			EndIndex:       m.End,
			RiskLevel:      m.Severity,
			PolicyCategory: m.Term.Category,
			Explanation:    fmt.Sprintf("matches flagged term %q", m.Term.Term),
		})
	}
	return found
}
