package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies one model call of the analysis pipeline.
type Stage string

// Pipeline stages in execution order. StageBasic is the single consolidated
// prompt of the basic tier.
const (
	StageContextClassification Stage = "context_classification"
	StageContentOrigin         Stage = "content_origin"
	StageCategoryAnalysis      Stage = "category_analysis"
	StageRiskAssessment        Stage = "risk_assessment"
	StageConfidenceAnalysis    Stage = "confidence_analysis"
	StageSuggestionGeneration  Stage = "suggestion_generation"
	StageBasic                 Stage = "basic"
)

var stages = []Stage{
	StageContextClassification,
	StageContentOrigin,
	StageCategoryAnalysis,
	StageRiskAssessment,
	StageConfidenceAnalysis,
	StageSuggestionGeneration,
	StageBasic,
}

// Stages returns the list of valid stages.
func Stages() []Stage {
	return stages
}

// UnmarshalJSON validates that the decoded string is a known stage value.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage validates a string as a known stage.
// Returns ErrInvalidStage if the value is not recognized.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
