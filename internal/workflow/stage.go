package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/extract"
)

type sendFunc func(ctx context.Context, prompt string) (*gateway.Response, error)

// stageCall describes one model call of a stage.
type stageCall struct {
	stage    prompts.Stage
	label    string
	schema   *extract.Schema
	sections []prompts.Section
	send     sendFunc

	// strict fails the call instead of defaulting when extraction fails.
	strict bool
}

// run composes and sends the stage prompt and decodes the response into T.
// Gateway errors are returned and abort the tier. When the response cannot
// be extracted, the schema defaults are returned and the stage is traced as
// defaulted, unless the call is strict.
func run[T any](ctx context.Context, rt *Runtime, tr *trace, c stageCall) (T, error) {
	var zero T
	start := time.Now()

	label := c.label
	if label == "" {
		label = string(c.stage)
	}

	prompt, err := prompts.Compose(ctx, rt.Prompts, c.stage, c.sections...)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", label, err)
	}

	send := c.send
	if send == nil {
		send = rt.Gateway.Generate
	}

	resp, err := send(ctx, prompt)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", label, err)
	}
	if resp.VisualContextLost {
		tr.loseVisual()
	}

	out, outcome, err := extract.Decode[T](resp.Text, c.schema)
	status := risk.StageOK
	if err != nil && c.strict {
		rt.Recorder.Stage(string(c.stage), "failed", outcome.Strategy)
		return zero, fmt.Errorf("%s: %w", label, err)
	}
	if err != nil {
		status = risk.StageDefaulted
		rt.Logger.WarnContext(ctx, "stage output defaulted",
			"stage", label,
			"provider", resp.Provider,
			"error", err,
		)
	}

	st := risk.StageTrace{
		Stage:    label,
		Status:   status,
		Strategy: outcome.Strategy,
		Duration: elapsed(start),
	}
	tr.record(st, resp.Model)
	rt.Recorder.Stage(string(c.stage), string(status), outcome.Strategy)

	rt.Logger.InfoContext(ctx, "stage complete",
		"stage", label,
		"status", status,
		"strategy", outcome.Strategy,
		"provider", resp.Provider,
		"duration", st.Duration,
	)

	return out, nil
}

// excerpt returns at most n runes of text, marking truncation.
func excerpt(text string, n int) string {
	r := []rune(text)
	if n <= 0 || len(r) <= n {
		return text
	}
	return string(r[:n]) + "\n[truncated]"
}
