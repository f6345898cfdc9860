package lifecycle_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/lifecycle"
)

func TestNotReadyBeforeStartup(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Error("should not be ready before WaitForStartup")
	}
}

func TestReadyAfterStartup(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if !lc.Ready() {
		t.Error("should be ready after WaitForStartup")
	}
}

func TestStartupHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var count atomic.Int32
	for range 3 {
		lc.OnStartup(func() {
			count.Add(1)
		})
	}

	lc.WaitForStartup()

	if got := count.Load(); got != 3 {
		t.Errorf("startup hooks: got %d, want 3", got)
	}
}

func TestShutdownHooksExecute(t *testing.T) {
	lc := lifecycle.New()

	var cleaned atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		cleaned.Store(true)
	})

	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	if !cleaned.Load() {
		t.Error("shutdown hook did not execute")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		time.Sleep(500 * time.Millisecond)
	})

	lc.WaitForStartup()

	err := lc.Shutdown(50 * time.Millisecond)
	if err == nil {
		t.Error("expected timeout error, got nil")
	}
}

func TestContextCancelledOnShutdown(t *testing.T) {
	lc := lifecycle.New()
	lc.WaitForStartup()

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	select {
	case <-lc.Context().Done():
	default:
		t.Error("context should be cancelled after shutdown")
	}
}

func TestCheckReportsFailingProbes(t *testing.T) {
	lc := lifecycle.New()
	down := errors.New("connection refused")

	lc.AddProbe("database", func(context.Context) error { return nil })
	lc.AddProbe("storage", func(context.Context) error { return down })

	failures := lc.Check(context.Background())
	if len(failures) != 1 {
		t.Fatalf("failures: got %d, want 1", len(failures))
	}
	if !errors.Is(failures["storage"], down) {
		t.Errorf("storage failure: got %v, want %v", failures["storage"], down)
	}
}

func TestAddProbeReplaces(t *testing.T) {
	lc := lifecycle.New()

	lc.AddProbe("database", func(context.Context) error { return errors.New("down") })
	lc.AddProbe("database", func(context.Context) error { return nil })

	if failures := lc.Check(context.Background()); len(failures) != 0 {
		t.Errorf("failures: got %v, want none", failures)
	}
}
