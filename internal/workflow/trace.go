package workflow

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// trace collects per-stage outcomes of one request. Stages running in
// parallel record into it concurrently.
type trace struct {
	mu         sync.Mutex
	stages     []risk.StageTrace
	models     []string
	visualLost bool
	defaulted  bool
}

func (t *trace) record(st risk.StageTrace, model string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stages = append(t.stages, st)
	if st.Status == risk.StageDefaulted {
		t.defaulted = true
	}
	if model != "" && !slices.Contains(t.models, model) {
		t.models = append(t.models, model)
	}
}

func (t *trace) skip(stage prompts.Stage) {
	t.record(risk.StageTrace{Stage: string(stage), Status: risk.StageSkipped}, "")
}

func (t *trace) loseVisual() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visualLost = true
}

// ordered returns the stage traces in pipeline order.
func (t *trace) ordered() []risk.StageTrace {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := slices.Clone(t.stages)
	slices.SortStableFunc(out, func(a, b risk.StageTrace) int {
		return stageIndex(a.Stage) - stageIndex(b.Stage)
	})
	return out
}

func (t *trace) modelUsed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.models, ", ")
}

func stageIndex(name string) int {
	base, _, _ := strings.Cut(name, "/")
	return slices.Index(prompts.Stages(), prompts.Stage(base))
}

func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
