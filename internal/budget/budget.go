// Package budget owns the process-wide token and request budget that every
// outbound model call is admitted through.
package budget

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Config sets the per-window ceilings. Window is normally one minute.
type Config struct {
	TokensPerMinute   int
	RequestsPerMinute int
	MaxConcurrent     int
	InterCallDelay    time.Duration
	Window            time.Duration
	AdmitThreshold    float64
}

// Observer receives the time each caller spent waiting for admission.
type Observer interface {
	ObserveBudgetWait(d time.Duration)
}

// State is a point-in-time view of the tracker.
type State struct {
	TokensUsed    int           `json:"tokens_used"`
	TokenCeiling  int           `json:"token_ceiling"`
	CallsInWindow int           `json:"calls_in_window"`
	InFlight      int64         `json:"in_flight"`
	ResetsIn      time.Duration `json:"resets_in"`
}

// Tracker admits model calls against a rolling request window, a token
// counter reset every window, and a cap on in-flight calls. Admission is
// serialized and separated by InterCallDelay. All methods are safe for
// concurrent use.
type Tracker struct {
	cfg      Config
	ceiling  int
	sem      *semaphore.Weighted
	gate     chan struct{}
	logger   *slog.Logger
	observer Observer

	mu          sync.Mutex
	windowStart time.Time
	tokens      int
	calls       []time.Time
	lastAdmit   time.Time

	inFlight atomic.Int64
}

// New creates a Tracker. Zero or negative config values fall back to
// permissive defaults so a Tracker is always usable.
func New(cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.RequestsPerMinute < 1 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.AdmitThreshold <= 0 || cfg.AdmitThreshold > 1 {
		cfg.AdmitThreshold = 0.8
	}

	ceiling := int(float64(cfg.TokensPerMinute) * cfg.AdmitThreshold)
	if cfg.TokensPerMinute <= 0 {
		ceiling = 0
	}

	return &Tracker{
		cfg:         cfg,
		ceiling:     ceiling,
		sem:         semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		gate:        make(chan struct{}, 1),
		logger:      logger.With("system", "budget"),
		calls:       make([]time.Time, 0, cfg.RequestsPerMinute),
		windowStart: time.Now(),
	}
}

// SetObserver registers o to receive admission wait durations.
func (t *Tracker) SetObserver(o Observer) {
	t.observer = o
}

// Admit blocks until a call estimated at est tokens fits the budget, then
// returns a release func the caller must invoke when the call finishes.
// The only error is the context's. An estimate larger than the ceiling is
// admitted alone at the start of a fresh window so no caller starves.
func (t *Tracker) Admit(ctx context.Context, est int) (func(), error) {
	start := time.Now()

	if err := t.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	select {
	case t.gate <- struct{}{}:
	case <-ctx.Done():
		t.sem.Release(1)
		return nil, ctx.Err()
	}
	defer func() { <-t.gate }()

	for {
		wait := t.reserve(est)
		if wait <= 0 {
			break
		}

		t.logger.Debug("admission deferred", "wait", wait, "estimate", est)

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			t.sem.Release(1)
			return nil, ctx.Err()
		}
	}

	t.inFlight.Add(1)
	if t.observer != nil {
		t.observer.ObserveBudgetWait(time.Since(start))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			t.inFlight.Add(-1)
			t.sem.Release(1)
		})
	}, nil
}

// Reconcile replaces an admitted estimate with the actual token usage
// reported by the provider.
func (t *Tracker) Reconcile(est, actual int) {
	if actual <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens = max(0, t.tokens+actual-est)
}

// Snapshot returns the current budget state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.roll(now)

	return State{
		TokensUsed:    t.tokens,
		TokenCeiling:  t.ceiling,
		CallsInWindow: len(t.calls),
		InFlight:      t.inFlight.Load(),
		ResetsIn:      t.windowStart.Add(t.cfg.Window).Sub(now),
	}
}

// reserve records the call and returns zero when it fits, or the duration
// to wait before trying again.
func (t *Tracker) reserve(est int) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.roll(now)

	if !t.lastAdmit.IsZero() {
		if gap := now.Sub(t.lastAdmit); gap < t.cfg.InterCallDelay {
			return atLeast(t.cfg.InterCallDelay - gap)
		}
	}

	if len(t.calls) >= t.cfg.RequestsPerMinute {
		return atLeast(t.calls[0].Add(t.cfg.Window).Sub(now))
	}

	if t.ceiling > 0 && t.tokens > 0 && t.tokens+est > t.ceiling {
		return atLeast(t.windowStart.Add(t.cfg.Window).Sub(now))
	}

	t.tokens += max(est, 0)
	t.calls = append(t.calls, now)
	t.lastAdmit = now
	return 0
}

func atLeast(d time.Duration) time.Duration {
	return max(d, time.Millisecond)
}

func (t *Tracker) roll(now time.Time) {
	if now.Sub(t.windowStart) >= t.cfg.Window {
		t.windowStart = now
		t.tokens = 0
	}

	cutoff := now.Add(-t.cfg.Window)
	i := 0
	for i < len(t.calls) && !t.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		t.calls = append(t.calls[:0], t.calls[i:]...)
	}
}

// EstimateTokens approximates the token cost of a prompt plus the expected
// completion size at four characters per token.
func EstimateTokens(prompt string, expectedOutput int) int {
	return len(prompt)/4 + 1 + max(expectedOutput, 0)
}
