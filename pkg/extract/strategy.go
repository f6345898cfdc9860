package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Strategy names, in cascade order.
const (
	StrategyDirect     = "direct"
	StrategyIsolate    = "isolate"
	StrategyStructural = "structural"
	StrategyQuotes     = "quotes"
	StrategyFields     = "fields"
)

var (
	errNoJSON      = errors.New("no JSON value found")
	errUnbalanced  = errors.New("unbalanced JSON value")
	errNoFields    = errors.New("no fields recovered")
	jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?` + "```")
)

// Strategy is one step of the repair cascade.
type Strategy interface {
	Name() string
	Attempt(text string) (any, error)
}

type strategy struct {
	name string
	fn   func(string) (any, error)
}

func (s strategy) Name() string                      { return s.name }
func (s strategy) Attempt(text string) (any, error) { return s.fn(text) }

// Strategies returns the cascade in order. The schema informs field
// extraction, the last step.
func Strategies(schema *Schema) []Strategy {
	return []Strategy{
		Direct(),
		Isolate(),
		Structural(),
		Quotes(),
		Fields(schema),
	}
}

// Direct parses the whole response as JSON.
func Direct() Strategy {
	return strategy{StrategyDirect, func(text string) (any, error) {
		return parse(strings.TrimSpace(text))
	}}
}

// Isolate strips markdown fences and surrounding prose, then parses the
// outermost balanced object or array.
func Isolate() Strategy {
	return strategy{StrategyIsolate, func(text string) (any, error) {
		candidate, err := isolate(text)
		if err != nil {
			return nil, err
		}
		return parse(candidate)
	}}
}

// Structural repairs trailing commas, unclosed strings and brackets,
// mismatched closers, stray escapes, raw newlines in strings, smart quotes,
// and Python literals before parsing.
func Structural() Strategy {
	return strategy{StrategyStructural, func(text string) (any, error) {
		candidate, ok := fragment(text)
		if !ok {
			return nil, errNoJSON
		}
		return parse(repairStructure(candidate))
	}}
}

// Quotes escapes unescaped double quotes inside string values, then applies
// structural repair. Keys are never rewritten.
func Quotes() Strategy {
	return strategy{StrategyQuotes, func(text string) (any, error) {
		candidate, ok := fragment(text)
		if !ok {
			return nil, errNoJSON
		}
		return parse(repairStructure(escapeInnerQuotes(candidate)))
	}}
}

// Fields recovers individual schema fields from text that cannot be parsed
// as a whole.
func Fields(schema *Schema) Strategy {
	return strategy{StrategyFields, func(text string) (any, error) {
		return recoverFields(schema, text)
	}}
}

func parse(s string) (any, error) {
	if s == "" {
		return nil, errNoJSON
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]any, []any:
		return v, nil
	}
	return nil, fmt.Errorf("%w: top-level %T", errNoJSON, v)
}

func unfence(text string) string {
	text = strings.TrimSpace(text)
	if m := jsonBlockRegex.FindStringSubmatch(text); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(strings.TrimPrefix(rest, "json"), "JSON")
		return strings.TrimSpace(rest)
	}
	return text
}

// fragment returns everything from the first opening bracket of the
// unfenced text.
func fragment(text string) (string, bool) {
	s := unfence(text)
	i := strings.IndexAny(s, "{[")
	if i < 0 {
		return "", false
	}
	return s[i:], true
}

func isolate(text string) (string, error) {
	s, ok := fragment(text)
	if !ok {
		return "", errNoJSON
	}

	depth := 0
	inStr, esc := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}
	return "", errUnbalanced
}
