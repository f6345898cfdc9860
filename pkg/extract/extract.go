// Package extract turns free-form model output into validated structured
// data. Each response is passed through an ordered list of repair
// strategies; the first result that validates against the schema wins.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrExtractionFailed is returned when no strategy produced a value that
// validates against the schema.
var ErrExtractionFailed = errors.New("structured output extraction failed")

// FailedError carries the original response text of a failed extraction.
type FailedError struct {
	Text     string
	Attempts map[string]error
}

func (e *FailedError) Error() string {
	text := e.Text
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return fmt.Sprintf("%s: %d strategies failed: %q", ErrExtractionFailed, len(e.Attempts), text)
}

func (e *FailedError) Unwrap() error {
	return ErrExtractionFailed
}

// Outcome reports which strategy produced the decoded value.
type Outcome struct {
	Strategy string
}

// StrategyDefaults names the outcome of a failed extraction.
const StrategyDefaults = "defaults"

// Decode extracts a T from text. On failure it returns T populated with the
// schema defaults together with a *FailedError, so callers can continue
// with documented defaults.
func Decode[T any](text string, schema *Schema) (T, Outcome, error) {
	var out T
	attempts := make(map[string]error)

	for _, s := range Strategies(schema) {
		raw, err := s.Attempt(text)
		if err != nil {
			attempts[s.Name()] = err
			continue
		}

		data, err := schema.Validate(raw)
		if err != nil {
			attempts[s.Name()] = err
			continue
		}

		if err := remarshal(data, &out); err != nil {
			attempts[s.Name()] = err
			continue
		}

		return out, Outcome{Strategy: s.Name()}, nil
	}

	out = *new(T)
	if err := remarshal(schema.Defaults(), &out); err != nil {
		return out, Outcome{Strategy: StrategyDefaults}, fmt.Errorf("apply defaults: %w", err)
	}

	return out, Outcome{Strategy: StrategyDefaults}, &FailedError{Text: text, Attempts: attempts}
}

func remarshal(data any, out any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
