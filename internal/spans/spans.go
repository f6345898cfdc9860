// Package spans reconciles risk assessments produced for overlapping chunks
// of one text. Spans are translated to absolute rune offsets, merged when
// they overlap or touch, and filtered against the false-positive allow-list.
package spans

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// MaxGap is the largest number of runes between two spans that still
// counts as adjacent.
const MaxGap = 1

const explanationSep = "; "

// AllowList reports phrases known to be harmless.
type AllowList interface {
	Allowed(phrase string) bool
}

// Localize validates spans reported for a chunk and translates them to
// absolute offsets. A span whose indices do not select its text is
// re-located by a case-insensitive search of the chunk; spans that cannot
// be placed are dropped.
func Localize(in []risk.Span, chunk string, offset int) []risk.Span {
	runes := []rune(chunk)
	lower := lowerRunes(runes)

	out := make([]risk.Span, 0, len(in))
	for _, s := range in {
		start, end, ok := place(s, runes, lower)
		if !ok {
			continue
		}
		out = append(out, risk.Span{
			Text:           string(runes[start:end]),
			StartIndex:     start + offset,
			EndIndex:       end + offset,
			RiskLevel:      risk.ParseLevel(string(s.RiskLevel)),
			PolicyCategory: strings.ToLower(strings.TrimSpace(s.PolicyCategory)),
			Explanation:    strings.TrimSpace(s.Explanation),
		})
	}
	return out
}

func place(s risk.Span, runes, lower []rune) (int, int, bool) {
	text := strings.TrimSpace(s.Text)
	valid := s.StartIndex >= 0 && s.StartIndex < s.EndIndex && s.EndIndex <= len(runes)

	if text == "" {
		return s.StartIndex, s.EndIndex, valid
	}

	needle := lowerRunes([]rune(text))
	if valid && slices.Equal(lower[s.StartIndex:s.EndIndex], needle) {
		return s.StartIndex, s.EndIndex, true
	}

	if i := indexRunes(lower, needle); i >= 0 {
		return i, i + len(needle), true
	}
	return 0, 0, false
}

// Merge returns spans sorted by position with overlapping or adjacent spans
// combined. The combined span takes the category and risk level of its most
// severe member and the de-duplicated explanations of all members. Indices
// are clamped to text and each span's Text is re-read from text. Merge is
// order-independent and Merge(Merge(s)) equals Merge(s).
func Merge(in []risk.Span, text string) []risk.Span {
	runes := []rune(text)
	n := len(runes)

	clamped := make([]risk.Span, 0, len(in))
	for _, s := range in {
		s.StartIndex = max(0, s.StartIndex)
		s.EndIndex = min(n, s.EndIndex)
		if s.StartIndex >= s.EndIndex {
			continue
		}
		s.RiskLevel = risk.ParseLevel(string(s.RiskLevel))
		clamped = append(clamped, s)
	}

	slices.SortFunc(clamped, compare)

	var out []risk.Span
	var explanations []string

	flush := func() {
		last := &out[len(out)-1]
		last.Explanation = strings.Join(explanations, explanationSep)
		last.Text = string(runes[last.StartIndex:last.EndIndex])
	}

	for _, s := range clamped {
		if len(out) > 0 && s.StartIndex <= out[len(out)-1].EndIndex+MaxGap {
			cur := &out[len(out)-1]
			cur.EndIndex = max(cur.EndIndex, s.EndIndex)
			if outranks(s, *cur) {
				cur.RiskLevel = s.RiskLevel
				cur.PolicyCategory = s.PolicyCategory
			}
			explanations = appendUnique(explanations, s.Explanation)
			continue
		}
		if len(out) > 0 {
			flush()
		}
		out = append(out, s)
		explanations = appendUnique(nil, s.Explanation)
	}
	if len(out) > 0 {
		flush()
	}

	if out == nil {
		out = []risk.Span{}
	}
	return out
}

func compare(a, b risk.Span) int {
	return cmp.Or(
		cmp.Compare(a.StartIndex, b.StartIndex),
		cmp.Compare(a.EndIndex, b.EndIndex),
		cmp.Compare(b.RiskLevel.Rank(), a.RiskLevel.Rank()),
		cmp.Compare(a.PolicyCategory, b.PolicyCategory),
		cmp.Compare(a.Explanation, b.Explanation),
	)
}

// outranks orders spans by severity, breaking ties on category name.
func outranks(a, b risk.Span) bool {
	if a.RiskLevel.Rank() != b.RiskLevel.Rank() {
		return a.RiskLevel.Rank() > b.RiskLevel.Rank()
	}
	return a.PolicyCategory < b.PolicyCategory
}

func appendUnique(list []string, explanation string) []string {
	for _, part := range strings.Split(explanation, explanationSep) {
		part = strings.TrimSpace(part)
		if part == "" || slices.Contains(list, part) {
			continue
		}
		list = append(list, part)
	}
	return list
}

// UnionPhrases combines phrase lists, de-duplicating case-insensitively and
// keeping the first spelling seen.
func UnionPhrases(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, p := range list {
			p = strings.TrimSpace(p)
			key := strings.ToLower(p)
			if p == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// UnionByCategory combines per-category phrase maps.
func UnionByCategory(maps ...map[string][]string) map[string][]string {
	grouped := make(map[string][][]string)
	for _, m := range maps {
		for category, phrases := range m {
			key := strings.ToLower(strings.TrimSpace(category))
			grouped[key] = append(grouped[key], phrases)
		}
	}

	out := make(map[string][]string, len(grouped))
	for category, lists := range grouped {
		if phrases := UnionPhrases(lists...); len(phrases) > 0 {
			out[category] = phrases
		}
	}
	return out
}

// Filter removes allow-listed phrases from the phrase list, the per-category
// map, and the spans of a. It returns the number of entries removed.
func Filter(a *risk.Assessment, allow AllowList) int {
	if allow == nil {
		return 0
	}
	removed := 0

	keep := func(p string) bool {
		if allow.Allowed(p) {
			removed++
			return false
		}
		return true
	}

	a.RiskyPhrases = slices.DeleteFunc(a.RiskyPhrases, func(p string) bool { return !keep(p) })

	for category, phrases := range a.RiskyPhrasesByCategory {
		phrases = slices.DeleteFunc(phrases, func(p string) bool { return !keep(p) })
		if len(phrases) == 0 {
			delete(a.RiskyPhrasesByCategory, category)
			continue
		}
		a.RiskyPhrasesByCategory[category] = phrases
	}

	a.RiskySpans = slices.DeleteFunc(a.RiskySpans, func(s risk.Span) bool { return !keep(s.Text) })

	return removed
}

// Combine reduces chunk assessments, already localized to absolute offsets,
// into one assessment of text.
func Combine(parts []risk.Assessment, text string) risk.Assessment {
	out := risk.Assessment{
		SeverityLevel:          risk.LevelLow,
		RiskFactors:            []string{},
		RiskySpans:             []risk.Span{},
		RiskyPhrases:           []string{},
		RiskyPhrasesByCategory: map[string][]string{},
	}

	var (
		all      []risk.Span
		factors  [][]string
		phrases  [][]string
		category []map[string][]string
		best     = -1
	)

	for _, p := range parts {
		if p.OverallRiskScore > best {
			best = p.OverallRiskScore
			out.OverallRiskScore = risk.Clamp(p.OverallRiskScore)
			out.FlaggedSection = p.FlaggedSection
		}
		out.SeverityLevel = risk.Max(out.SeverityLevel, risk.ParseLevel(string(p.SeverityLevel)))
		all = append(all, p.RiskySpans...)
		factors = append(factors, p.RiskFactors)
		phrases = append(phrases, p.RiskyPhrases)
		category = append(category, p.RiskyPhrasesByCategory)
	}

	out.RiskySpans = Merge(all, text)
	out.RiskFactors = UnionPhrases(factors...)
	out.RiskyPhrases = UnionPhrases(phrases...)
	out.RiskyPhrasesByCategory = UnionByCategory(category...)
	return out
}

func lowerRunes(r []rune) []rune {
	out := make([]rune, len(r))
	for i, c := range r {
		out[i] = unicode.ToLower(c)
	}
	return out
}

func indexRunes(hay, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(hay) {
		return -1
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if slices.Equal(hay[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}
