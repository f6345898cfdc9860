package workflow

import (
	"math"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/extract"
)

var contextSchema = extract.NewSchema(
	extract.String("content_type").Alias("type", "category"),
	extract.String("target_audience").Alias("audience"),
	extract.String("tone"),
	extract.String("intent").Alias("purpose"),
	extract.String("summary").Alias("description"),
)

var originSchema = extract.NewSchema(
	extract.Enum("origin", "unknown", "original", "reupload", "compilation", "ai_generated", "unknown").
		Alias("content_origin", "source"),
	extract.Int("confidence", 0, 100, 0),
	extract.String("reasoning").Alias("explanation", "rationale"),
)

var categoryFields = []extract.Field{
	extract.Int("risk_score", 0, 100, 0).Alias("score"),
	extract.Int("confidence", 0, 100, 0),
	extract.Strings("violations"),
	extract.String("severity").Alias("severity_level", "risk_level"),
	extract.String("explanation").Alias("reasoning", "rationale"),
}

var categorySchema = extract.NewSchema(
	extract.ObjectMap("categories", categoryFields...).Alias("category_analysis", "policy_categories"),
)

type categoryResponse struct {
	Categories map[string]risk.CategoryResult `json:"categories"`
}

var spanFields = []extract.Field{
	extract.String("text").Alias("phrase"),
	extract.Int("start_index", 0, math.MaxInt32, 0).Alias("start"),
	extract.Int("end_index", 0, math.MaxInt32, 0).Alias("end"),
	extract.String("risk_level").Alias("severity", "level"),
	extract.String("policy_category").Alias("category"),
	extract.String("explanation").Alias("reason"),
}

var riskSchema = extract.NewSchema(
	extract.Int("overall_risk_score", 0, 100, 0).Alias("risk_score", "score"),
	extract.String("flagged_section"),
	extract.Strings("risk_factors"),
	extract.String("severity_level").Alias("severity", "risk_level"),
	extract.Objects("risky_spans", spanFields...).Alias("spans"),
	extract.Strings("risky_phrases"),
	extract.StringsMap("risky_phrases_by_category"),
)

var confidenceSchema = extract.NewSchema(
	extract.Int("overall_confidence", 0, 100, 0).Alias("confidence", "confidence_score"),
	extract.Strings("factors").Alias("confidence_factors"),
	extract.Strings("limitations"),
)

var suggestionFields = []extract.Field{
	extract.String("title"),
	extract.String("text").Alias("description", "suggestion", "recommendation"),
	extract.String("priority"),
	extract.Int("impact_score", 0, 100, 0).Alias("impact"),
}

var suggestionSchema = extract.NewSchema(
	extract.Objects("suggestions", suggestionFields...).Alias("recommendations"),
)

type suggestionResponse struct {
	Suggestions []risk.Suggestion `json:"suggestions"`
}

var basicSchema = extract.NewSchema(
	extract.Int("risk_score", 0, 100, 0).Alias("overall_risk_score", "score"),
	extract.String("risk_level"),
	extract.String("flagged_section"),
	extract.Objects("highlights",
		extract.String("category"),
		extract.Int("risk_score", 0, 100, 0).Alias("score"),
		extract.String("severity"),
		extract.String("explanation"),
	),
	extract.Objects("suggestions", suggestionFields...),
	extract.Strings("risky_phrases"),
)

type basicResponse struct {
	RiskScore      int               `json:"risk_score"`
	RiskLevel      string            `json:"risk_level"`
	FlaggedSection string            `json:"flagged_section"`
	Highlights     []risk.Highlight  `json:"highlights"`
	Suggestions    []risk.Suggestion `json:"suggestions"`
	RiskyPhrases   []string          `json:"risky_phrases"`
}
