package workflow

import (
	"strings"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// finalizeSuggestions normalizes model suggestions, drops blanks and
// duplicate titles, caps the list at MaxSuggestions, and pads it to
// MinSuggestions from the policy's generic suggestions.
func finalizeSuggestions(in []risk.Suggestion, rt *Runtime) []risk.Suggestion {
	out := make([]risk.Suggestion, 0, rt.Config.MaxSuggestions)
	seen := make(map[string]struct{})

	add := func(s risk.Suggestion) {
		if len(out) >= rt.Config.MaxSuggestions {
			return
		}
		s.Title = strings.TrimSpace(s.Title)
		s.Text = strings.TrimSpace(s.Text)
		if s.Title == "" && s.Text == "" {
			return
		}
		if s.Title == "" {
			s.Title = s.Text
		}

		key := strings.ToLower(s.Title)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		s.Priority = risk.ParseLevel(string(s.Priority))
		s.ImpactScore = risk.Clamp(s.ImpactScore)
		out = append(out, s)
	}

	for _, s := range in {
		add(s)
	}

	if rt.Policy != nil {
		for _, s := range rt.Policy.PaddingSuggestions() {
			if len(out) >= rt.Config.MinSuggestions {
				break
			}
			add(s)
		}
	}

	return out
}
