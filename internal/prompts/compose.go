package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Source supplies the instructions and output specification of a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
}

type defaults struct{}

// Defaults returns a Source backed only by the hardcoded stage text.
func Defaults() Source {
	return defaults{}
}

func (defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return Instructions(stage)
}

func (defaults) Spec(_ context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

// Section is a titled block of input appended to a composed prompt. Body
// values that are not strings are rendered as indented JSON.
type Section struct {
	Title string
	Body  any
}

// Compose builds the prompt for a stage from its instructions, its output
// specification, and the given input sections. The first line always names
// the stage.
func Compose(ctx context.Context, src Source, stage Stage, sections ...Section) (string, error) {
	instructions, err := src.Instructions(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load instructions for %s: %w", stage, err)
	}

	spec, err := src.Spec(ctx, stage)
	if err != nil {
		return "", fmt.Errorf("load spec for %s: %w", stage, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Stage: %s\n\n", stage)
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)

	for _, s := range sections {
		body, ok := s.Body.(string)
		if !ok {
			data, err := json.MarshalIndent(s.Body, "", "  ")
			if err != nil {
				return "", fmt.Errorf("serialize %s: %w", s.Title, err)
			}
			body = string(data)
		}

		sb.WriteString("\n\n")
		sb.WriteString(s.Title)
		sb.WriteString(":\n\n")
		sb.WriteString(body)
	}

	return sb.String(), nil
}
