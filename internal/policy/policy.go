// Package policy holds the authoritative category weights, thresholds, and
// word lists used to score content. A default table is embedded and may be
// overridden by a YAML file.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

//go:embed default.yaml
var defaultPolicy []byte

// Category is one scored policy dimension.
type Category struct {
	Name        string  `yaml:"name"`
	Label       string  `yaml:"label"`
	Weight      float64 `yaml:"weight"`
	Description string  `yaml:"description"`
}

// Levels maps an overall score to a risk level: score <= LowMax is LOW,
// score <= MediumMax is MEDIUM, anything above is HIGH.
type Levels struct {
	LowMax    int `yaml:"low_max"`
	MediumMax int `yaml:"medium_max"`
}

// Severity maps a single category score to a severity: score >= High is
// HIGH, score >= Medium is MEDIUM.
type Severity struct {
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
}

// Cumulative holds the co-occurrence adjustments applied after weighting.
type Cumulative struct {
	MinCategories int `yaml:"min_categories"`
	CategoryScore int `yaml:"category_score"`
	Floor         int `yaml:"floor"`
	SpikeScore    int `yaml:"spike_score"`
	SpikeBonus    int `yaml:"spike_bonus"`
}

// Highlights selects which categories are surfaced.
type Highlights struct {
	Limit    int `yaml:"limit"`
	MinScore int `yaml:"min_score"`
}

// Suggestion is the YAML form of risk.Suggestion.
type Suggestion struct {
	Title       string `yaml:"title"`
	Text        string `yaml:"text"`
	Priority    string `yaml:"priority"`
	ImpactScore int    `yaml:"impact_score"`
}

// Emergency is the fixed output of the AI-free tier.
type Emergency struct {
	Score      int        `yaml:"score"`
	Message    string     `yaml:"message"`
	Suggestion Suggestion `yaml:"suggestion"`
}

// Term is a lexicon entry that guarantees a minimum category score when the
// term occurs in the text as a whole word or phrase.
type Term struct {
	Term     string `yaml:"term"`
	Category string `yaml:"category"`
	Floor    int    `yaml:"floor"`
	Severity string `yaml:"severity"`

	pattern *regexp.Regexp
}

// Policy is the full scoring table.
type Policy struct {
	Version            int          `yaml:"version"`
	Categories         []Category   `yaml:"categories"`
	RiskLevels         Levels       `yaml:"risk_levels"`
	Severity           Severity     `yaml:"severity"`
	Cumulative         Cumulative   `yaml:"cumulative"`
	Highlights         Highlights   `yaml:"highlights"`
	Emergency          Emergency    `yaml:"emergency"`
	AllowList          []string     `yaml:"allow_list"`
	Lexicon            []Term       `yaml:"lexicon"`
	DefaultSuggestions []Suggestion `yaml:"default_suggestions"`

	allow map[string]struct{}
}

// Default returns the embedded policy table.
func Default() (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(defaultPolicy, &p); err != nil {
		return nil, fmt.Errorf("parse default policy: %w", err)
	}
	if err := p.compile(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Load reads a policy file layered over the embedded default. An empty path
// returns the default. Sequences in the file replace the default sequences.
func Load(path string) (*Policy, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(defaultPolicy, &p); err != nil {
		return nil, fmt.Errorf("parse default policy: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	if err := p.compile(); err != nil {
		return nil, fmt.Errorf("policy %s: %w", path, err)
	}
	return &p, nil
}

// Marshal renders the policy as YAML.
func (p *Policy) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}

func (p *Policy) compile() error {
	if len(p.Categories) == 0 {
		return fmt.Errorf("at least one category required")
	}
	if p.RiskLevels.LowMax >= p.RiskLevels.MediumMax {
		return fmt.Errorf("risk_levels.low_max must be below medium_max")
	}
	if p.Severity.Medium >= p.Severity.High {
		return fmt.Errorf("severity.medium must be below severity.high")
	}

	for _, c := range p.Categories {
		if c.Weight <= 0 {
			return fmt.Errorf("category %s: weight must be positive", c.Name)
		}
	}

	p.allow = make(map[string]struct{}, len(p.AllowList))
	for _, w := range p.AllowList {
		p.allow[normalize(w)] = struct{}{}
	}

	for i := range p.Lexicon {
		t := &p.Lexicon[i]
		if !p.HasCategory(t.Category) {
			return fmt.Errorf("lexicon term %q: unknown category %s", t.Term, t.Category)
		}
		pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(t.Term) + `\b`)
		if err != nil {
			return fmt.Errorf("lexicon term %q: %w", t.Term, err)
		}
		t.pattern = pattern
	}

	return nil
}

// CategoryNames returns the configured category names in table order.
func (p *Policy) CategoryNames() []string {
	names := make([]string, len(p.Categories))
	for i, c := range p.Categories {
		names[i] = c.Name
	}
	return names
}

// HasCategory reports whether name is a configured category.
func (p *Policy) HasCategory(name string) bool {
	return slices.ContainsFunc(p.Categories, func(c Category) bool {
		return c.Name == name
	})
}

// Weight returns the category weight. Unknown categories weigh 1.0.
func (p *Policy) Weight(name string) float64 {
	for _, c := range p.Categories {
		if c.Name == name {
			return c.Weight
		}
	}
	return 1.0
}

// Level maps an overall score to a risk level.
func (p *Policy) Level(score int) risk.Level {
	switch {
	case score <= p.RiskLevels.LowMax:
		return risk.LevelLow
	case score <= p.RiskLevels.MediumMax:
		return risk.LevelMedium
	default:
		return risk.LevelHigh
	}
}

// CategorySeverity maps a category score to a severity. These thresholds
// are intentionally distinct from the overall risk level thresholds.
func (p *Policy) CategorySeverity(score int) risk.Level {
	switch {
	case score >= p.Severity.High:
		return risk.LevelHigh
	case score >= p.Severity.Medium:
		return risk.LevelMedium
	default:
		return risk.LevelLow
	}
}

// Allowed reports whether phrase is on the false-positive allow-list.
func (p *Policy) Allowed(phrase string) bool {
	_, ok := p.allow[normalize(phrase)]
	return ok
}

// Match is one lexicon hit in rune coordinates.
type Match struct {
	Term     Term
	Text     string
	Start    int
	End      int
	Severity risk.Level
}

// Scan finds every lexicon term in text.
func (p *Policy) Scan(text string) []Match {
	var matches []Match
	for _, t := range p.Lexicon {
		if t.pattern == nil {
			continue
		}
		for _, loc := range t.pattern.FindAllStringIndex(text, -1) {
			start := utf8.RuneCountInString(text[:loc[0]])
			matches = append(matches, Match{
				Term:     t,
				Text:     text[loc[0]:loc[1]],
				Start:    start,
				End:      start + utf8.RuneCountInString(text[loc[0]:loc[1]]),
				Severity: risk.ParseLevel(t.Severity),
			})
		}
	}
	return matches
}

// EmergencySuggestion returns the retry suggestion of the emergency tier.
func (p *Policy) EmergencySuggestion() risk.Suggestion {
	return p.Emergency.Suggestion.toRisk()
}

// PaddingSuggestions returns the generic suggestions used to pad short
// suggestion lists.
func (p *Policy) PaddingSuggestions() []risk.Suggestion {
	out := make([]risk.Suggestion, len(p.DefaultSuggestions))
	for i, s := range p.DefaultSuggestions {
		out[i] = s.toRisk()
	}
	return out
}

func (s Suggestion) toRisk() risk.Suggestion {
	return risk.Suggestion{
		Title:       s.Title,
		Text:        s.Text,
		Priority:    risk.ParseLevel(s.Priority),
		ImpactScore: risk.Clamp(s.ImpactScore),
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
