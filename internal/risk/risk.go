// Package risk defines the request, intermediate, and result types shared by
// every stage of the content-risk analysis pipeline.
package risk

import (
	"slices"
	"strings"
	"time"
)

// Level is a three-tier severity used for categories, spans, suggestion
// priorities, and the overall result.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

var levels = []Level{LevelLow, LevelMedium, LevelHigh}

// ParseLevel normalizes a model-supplied severity string.
// Unknown values map to LevelLow.
func ParseLevel(s string) Level {
	v := Level(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(levels, v) {
		return v
	}
	switch v {
	case "CRITICAL", "SEVERE":
		return LevelHigh
	case "MODERATE", "MED":
		return LevelMedium
	}
	return LevelLow
}

// Rank orders levels so that higher severity compares greater.
func (l Level) Rank() int {
	return slices.Index(levels, l)
}

// Max returns the more severe of two levels.
func Max(a, b Level) Level {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Mode records which analysis tier produced a result.
type Mode string

const (
	ModeEnhanced   Mode = "enhanced"
	ModeBasic      Mode = "basic"
	ModeFallback   Mode = "fallback"
	ModeEmergency  Mode = "emergency"
	ModeMultiModal Mode = "multi-modal"
)

// ChannelContext carries prior knowledge about the creator that published
// the content. Its presence enables content-origin detection.
type ChannelContext struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Niche           string   `json:"niche,omitempty"`
	SubscriberCount int64    `json:"subscriber_count,omitempty"`
	PriorStrikes    []string `json:"prior_strikes,omitempty"`
}

// Request is the inbound analysis contract.
type Request struct {
	Text          string            `json:"text"`
	VideoContext  string            `json:"video_context,omitempty"`
	Channel       *ChannelContext   `json:"channel,omitempty"`
	MediaRef      string            `json:"media_ref,omitempty"`
	Transcript    string            `json:"transcript,omitempty"`
	MediaMetadata map[string]string `json:"media_metadata,omitempty"`
}

// Context is derived once from a Request by the preparator and is not
// modified afterward.
type Context struct {
	Text          string   `json:"-"`
	Language      string   `json:"language"`
	Length        int      `json:"length"`
	NeedsChunking bool     `json:"needs_chunking"`
	ChunkSize     int      `json:"chunk_size"`
	Overlap       int      `json:"overlap"`
	Caveats       []string `json:"caveats,omitempty"`
}

// CategoryResult is the per-policy-category outcome of category analysis.
type CategoryResult struct {
	RiskScore   int      `json:"risk_score"`
	Confidence  int      `json:"confidence"`
	Violations  []string `json:"violations"`
	Severity    Level    `json:"severity"`
	Explanation string   `json:"explanation"`
}

// Span is a contiguous range of the analyzed text flagged as risky.
// Indices are rune offsets with StartIndex < EndIndex.
type Span struct {
	Text           string `json:"text"`
	StartIndex     int    `json:"start_index"`
	EndIndex       int    `json:"end_index"`
	RiskLevel      Level  `json:"risk_level"`
	PolicyCategory string `json:"policy_category"`
	Explanation    string `json:"explanation"`
}

// Assessment is the output of the risk assessment stage after chunk results
// have been merged.
type Assessment struct {
	OverallRiskScore       int                 `json:"overall_risk_score"`
	FlaggedSection         string              `json:"flagged_section"`
	RiskFactors            []string            `json:"risk_factors"`
	SeverityLevel          Level               `json:"severity_level"`
	RiskySpans             []Span              `json:"risky_spans"`
	RiskyPhrases           []string            `json:"risky_phrases"`
	RiskyPhrasesByCategory map[string][]string `json:"risky_phrases_by_category"`
}

// Suggestion is an actionable recommendation for reducing risk.
type Suggestion struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	Priority    Level  `json:"priority"`
	ImpactScore int    `json:"impact_score"`
}

// ContextSummary is the output of context classification.
type ContextSummary struct {
	ContentType    string `json:"content_type"`
	TargetAudience string `json:"target_audience"`
	Tone           string `json:"tone"`
	Intent         string `json:"intent"`
	Summary        string `json:"summary"`
}

// ContentOrigin is the output of content-origin detection.
type ContentOrigin struct {
	Origin     string `json:"origin"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// ConfidenceAnalysis describes how reliable the overall assessment is.
type ConfidenceAnalysis struct {
	OverallConfidence int      `json:"overall_confidence"`
	Factors           []string `json:"factors"`
	Limitations       []string `json:"limitations"`
}

// Highlight is one of the top-scoring categories surfaced to the reader.
type Highlight struct {
	Category    string `json:"category"`
	RiskScore   int    `json:"risk_score"`
	Severity    Level  `json:"severity"`
	Explanation string `json:"explanation"`
}

// StageStatus reports how a pipeline stage finished.
type StageStatus string

const (
	StageOK        StageStatus = "ok"
	StageDefaulted StageStatus = "defaulted"
	StageSkipped   StageStatus = "skipped"
)

// StageTrace records one stage execution in the result metadata.
type StageTrace struct {
	Stage    string        `json:"stage"`
	Status   StageStatus   `json:"status"`
	Strategy string        `json:"strategy,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Metadata describes how a result was produced.
type Metadata struct {
	ModelUsed         string        `json:"model_used"`
	Timestamp         time.Time     `json:"timestamp"`
	ProcessingTime    time.Duration `json:"processing_time"`
	ContentLength     int           `json:"content_length"`
	Mode              Mode          `json:"analysis_mode"`
	Language          string        `json:"language,omitempty"`
	Chunks            int           `json:"chunks,omitempty"`
	Caveats           []string      `json:"caveats,omitempty"`
	Stages            []StageTrace  `json:"stages,omitempty"`
	VisualContextLost bool          `json:"visual_context_lost,omitempty"`
	Degradations      []string      `json:"degradations,omitempty"`
}

// Result is the final analysis artifact. It is not modified after Analyze
// returns it.
type Result struct {
	RiskScore              int                       `json:"risk_score"`
	RiskLevel              Level                     `json:"risk_level"`
	Categories             map[string]CategoryResult `json:"categories"`
	Context                ContextSummary            `json:"context"`
	Highlights             []Highlight               `json:"highlights"`
	Suggestions            []Suggestion              `json:"suggestions"`
	FlaggedSection         string                    `json:"flagged_section,omitempty"`
	RiskySpans             []Span                    `json:"risky_spans"`
	RiskyPhrases           []string                  `json:"risky_phrases"`
	RiskyPhrasesByCategory map[string][]string       `json:"risky_phrases_by_category"`
	Confidence             *ConfidenceAnalysis       `json:"confidence_analysis,omitempty"`
	ContentOrigin          *ContentOrigin            `json:"content_origin,omitempty"`
	Message                string                    `json:"message,omitempty"`
	Metadata               Metadata                  `json:"analysis_metadata"`
}

// Clamp bounds a score to [0, 100].
func Clamp(v int) int {
	return max(0, min(100, v))
}
