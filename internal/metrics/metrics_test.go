package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/metrics"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	m.ProviderCall("anthropic", "ok")
	m.Failover("anthropic", "openai", "quota")
	m.ObserveBudgetWait(time.Second)
	m.Analysis("enhanced", time.Second)
	m.Stage("risk_assessment", "ok", "direct")
	m.Degradation("basic")
	m.ObserveRoute("GET /analyses", 200, time.Millisecond)
}

func TestRecording(t *testing.T) {
	m := metrics.New()

	m.ProviderCall("anthropic", "ok")
	m.ProviderCall("anthropic", "ok")
	m.ProviderCall("openai", "quota")
	m.Failover("anthropic", "openai", "quota")
	m.Analysis("basic", 2*time.Second)
	m.Stage("risk_assessment", "defaulted", "defaults")
	m.Degradation("emergency")
	m.ObserveRoute("POST /analyses", 201, 40*time.Millisecond)

	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "tosguard_provider_calls_total" && len(f.GetMetric()) != 2 {
			t.Errorf("provider_calls series = %d, want 2", len(f.GetMetric()))
		}
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Result().Body)
	text := string(body)

	for _, want := range []string{
		`tosguard_provider_calls_total{outcome="ok",provider="anthropic"} 2`,
		`tosguard_provider_failovers_total{from="anthropic",reason="quota",to="openai"} 1`,
		`tosguard_analyses_total{mode="basic"} 1`,
		`tosguard_stage_results_total{stage="risk_assessment",status="defaulted",strategy="defaults"} 1`,
		`tosguard_tier_degradations_total{tier="emergency"} 1`,
		`tosguard_http_requests_total{code="201",route="POST /analyses"} 1`,
		`tosguard_http_request_duration_seconds_count{route="POST /analyses"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
