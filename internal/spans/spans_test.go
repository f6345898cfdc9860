package spans_test

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/spans"
)

type allowList map[string]bool

func (a allowList) Allowed(p string) bool { return a[strings.ToLower(p)] }

func span(start, end int, level risk.Level, category, explanation string) risk.Span {
	return risk.Span{
		StartIndex:     start,
		EndIndex:       end,
		RiskLevel:      level,
		PolicyCategory: category,
		Explanation:    explanation,
	}
}

func TestLocalize(t *testing.T) {
	chunk := "we will Kill the boss tonight"

	t.Run("valid indices translated", func(t *testing.T) {
		in := []risk.Span{{Text: "kill", StartIndex: 8, EndIndex: 12, RiskLevel: "high", PolicyCategory: " Violence "}}
		got := spans.Localize(in, chunk, 100)
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		s := got[0]
		if s.StartIndex != 108 || s.EndIndex != 112 {
			t.Errorf("indices = [%d,%d), want [108,112)", s.StartIndex, s.EndIndex)
		}
		if s.Text != "Kill" {
			t.Errorf("Text = %q, want chunk spelling", s.Text)
		}
		if s.RiskLevel != risk.LevelHigh || s.PolicyCategory != "violence" {
			t.Errorf("got level %q category %q", s.RiskLevel, s.PolicyCategory)
		}
	})

	t.Run("wrong indices relocated", func(t *testing.T) {
		in := []risk.Span{{Text: "the boss", StartIndex: 0, EndIndex: 3}}
		got := spans.Localize(in, chunk, 0)
		if len(got) != 1 || got[0].StartIndex != 13 || got[0].EndIndex != 21 {
			t.Errorf("got %+v, want [13,21)", got)
		}
	})

	t.Run("unplaceable dropped", func(t *testing.T) {
		in := []risk.Span{
			{Text: "absent", StartIndex: 0, EndIndex: 6},
			{StartIndex: 5, EndIndex: 2},
			{StartIndex: 0, EndIndex: 500},
		}
		if got := spans.Localize(in, chunk, 0); len(got) != 0 {
			t.Errorf("got %+v, want none", got)
		}
	})

	t.Run("missing text uses indices", func(t *testing.T) {
		got := spans.Localize([]risk.Span{{StartIndex: 0, EndIndex: 2}}, chunk, 10)
		if len(got) != 1 || got[0].Text != "we" || got[0].StartIndex != 10 {
			t.Errorf("got %+v", got)
		}
	})
}

func TestMerge(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz"

	t.Run("overlapping spans combine", func(t *testing.T) {
		in := []risk.Span{
			span(0, 5, risk.LevelLow, "spam", "repetitive"),
			span(3, 8, risk.LevelHigh, "violence", "threat"),
		}
		got := spans.Merge(in, text)
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}
		s := got[0]
		if s.StartIndex != 0 || s.EndIndex != 8 || s.Text != "abcdefgh" {
			t.Errorf("span = %+v", s)
		}
		if s.RiskLevel != risk.LevelHigh || s.PolicyCategory != "violence" {
			t.Errorf("severity winner = %q/%q, want HIGH/violence", s.RiskLevel, s.PolicyCategory)
		}
		if s.Explanation != "repetitive; threat" {
			t.Errorf("Explanation = %q", s.Explanation)
		}
	})

	t.Run("adjacent spans combine", func(t *testing.T) {
		got := spans.Merge([]risk.Span{
			span(0, 3, risk.LevelLow, "a", "x"),
			span(4, 6, risk.LevelLow, "a", "x"),
		}, text)
		if len(got) != 1 || got[0].EndIndex != 6 || got[0].Explanation != "x" {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("distant spans kept apart", func(t *testing.T) {
		got := spans.Merge([]risk.Span{
			span(10, 12, risk.LevelLow, "a", ""),
			span(0, 3, risk.LevelLow, "a", ""),
		}, text)
		if len(got) != 2 || got[0].StartIndex != 0 || got[1].StartIndex != 10 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("indices clamped to text", func(t *testing.T) {
		got := spans.Merge([]risk.Span{
			span(-4, 2, risk.LevelLow, "a", ""),
			span(24, 40, risk.LevelLow, "a", ""),
			span(30, 40, risk.LevelLow, "a", ""),
		}, text)
		if len(got) != 2 {
			t.Fatalf("got %+v", got)
		}
		for _, s := range got {
			if s.StartIndex < 0 || s.EndIndex > len(text) || s.StartIndex >= s.EndIndex {
				t.Errorf("span out of bounds: %+v", s)
			}
		}
	})

	t.Run("empty input", func(t *testing.T) {
		got := spans.Merge(nil, text)
		if got == nil || len(got) != 0 {
			t.Errorf("got %#v, want empty slice", got)
		}
	})
}

func TestMergeIdempotentAndCommutative(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 10)
	levels := []risk.Level{risk.LevelLow, risk.LevelMedium, risk.LevelHigh}
	categories := []string{"violence", "spam", "profanity"}

	r := rand.New(rand.NewPCG(1, 2))
	for i := range 50 {
		var in []risk.Span
		for range r.IntN(12) + 1 {
			start := r.IntN(len(text) + 10) - 5
			in = append(in, span(
				start,
				start+r.IntN(20)+1,
				levels[r.IntN(len(levels))],
				categories[r.IntN(len(categories))],
				"reason "+string(rune('a'+r.IntN(4))),
			))
		}

		once := spans.Merge(in, text)
		twice := spans.Merge(once, text)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("case %d: merge not idempotent\nonce:  %+v\ntwice: %+v", i, once, twice)
		}

		shuffled := slices.Clone(in)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if other := spans.Merge(shuffled, text); !reflect.DeepEqual(once, other) {
			t.Fatalf("case %d: merge depends on order\n%+v\n%+v", i, once, other)
		}

		for _, s := range once {
			if s.StartIndex < 0 || s.EndIndex > len(text) || s.StartIndex >= s.EndIndex {
				t.Fatalf("case %d: span out of bounds %+v", i, s)
			}
		}
	}
}

func TestUnionPhrases(t *testing.T) {
	got := spans.UnionPhrases([]string{"Kill", "gun ", ""}, []string{"kill", "GUN", "knife"})
	want := []string{"Kill", "gun", "knife"}
	if !slices.Equal(got, want) {
		t.Errorf("UnionPhrases = %v, want %v", got, want)
	}
}

func TestUnionByCategory(t *testing.T) {
	got := spans.UnionByCategory(
		map[string][]string{"Violence": {"kill"}},
		map[string][]string{"violence": {"KILL", "stab"}, "spam": {}},
	)
	if !slices.Equal(got["violence"], []string{"kill", "stab"}) {
		t.Errorf("violence = %v", got["violence"])
	}
	if _, ok := got["spam"]; ok {
		t.Error("empty category should be dropped")
	}
}

func TestFilter(t *testing.T) {
	a := &risk.Assessment{
		RiskyPhrases: []string{"killing it", "kill"},
		RiskyPhrasesByCategory: map[string][]string{
			"violence": {"killing it", "kill"},
			"spam":     {"Killing It"},
		},
		RiskySpans: []risk.Span{{Text: "killing it"}, {Text: "kill"}},
	}

	removed := spans.Filter(a, allowList{"killing it": true})

	if removed != 4 {
		t.Errorf("removed = %d, want 4", removed)
	}
	if !slices.Equal(a.RiskyPhrases, []string{"kill"}) {
		t.Errorf("RiskyPhrases = %v", a.RiskyPhrases)
	}
	if _, ok := a.RiskyPhrasesByCategory["spam"]; ok {
		t.Error("emptied category should be removed")
	}
	if len(a.RiskySpans) != 1 || a.RiskySpans[0].Text != "kill" {
		t.Errorf("RiskySpans = %+v", a.RiskySpans)
	}
}

func TestCombine(t *testing.T) {
	text := "one two three four five six"
	parts := []risk.Assessment{
		{
			OverallRiskScore: 30,
			FlaggedSection:   "two",
			SeverityLevel:    risk.LevelMedium,
			RiskFactors:      []string{"threat"},
			RiskySpans:       []risk.Span{span(4, 7, risk.LevelMedium, "violence", "a")},
			RiskyPhrases:     []string{"two"},
		},
		{
			OverallRiskScore: 60,
			FlaggedSection:   "three",
			SeverityLevel:    risk.LevelHigh,
			RiskFactors:      []string{"Threat", "slur"},
			RiskySpans:       []risk.Span{span(6, 13, risk.LevelHigh, "hate_speech", "b")},
			RiskyPhrases:     []string{"TWO", "three"},
			RiskyPhrasesByCategory: map[string][]string{
				"hate_speech": {"three"},
			},
		},
	}

	got := spans.Combine(parts, text)

	if got.OverallRiskScore != 60 || got.FlaggedSection != "three" {
		t.Errorf("score/section = %d/%q", got.OverallRiskScore, got.FlaggedSection)
	}
	if got.SeverityLevel != risk.LevelHigh {
		t.Errorf("SeverityLevel = %q", got.SeverityLevel)
	}
	if !slices.Equal(got.RiskFactors, []string{"threat", "slur"}) {
		t.Errorf("RiskFactors = %v", got.RiskFactors)
	}
	if len(got.RiskySpans) != 1 || got.RiskySpans[0].Text != "two three" {
		t.Errorf("RiskySpans = %+v", got.RiskySpans)
	}
	if !slices.Equal(got.RiskyPhrases, []string{"two", "three"}) {
		t.Errorf("RiskyPhrases = %v", got.RiskyPhrases)
	}
}
