package prompts

const contextSpec = `Respond with a JSON object matching this exact structure:

{
  "content_type": "<type>",
  "target_audience": "<audience>",
  "tone": "<tone>",
  "intent": "<intent>",
  "summary": "<summary>"
}

Field constraints:
- content_type: Short label such as tutorial, vlog, commentary, gaming,
  news, music, comedy, or educational.
- target_audience: Who the content is made for, including whether it
  appears directed at children.
- tone: Short description such as informative, humorous, aggressive.
- intent: What the creator is trying to achieve.
- summary: Two or three sentences describing the content.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Do not score policy risk in this response`

const originSpec = `Respond with a JSON object matching this exact structure:

{
  "origin": "<original|reupload|compilation|ai_generated|unknown>",
  "confidence": 0,
  "reasoning": "<explanation>"
}

Field constraints:
- origin: One of the listed values.
- confidence: Integer from 0 to 100.
- reasoning: Brief explanation referencing the channel information.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const categorySpec = `Respond with a JSON object matching this exact structure:

{
  "categories": {
    "<category>": {
      "risk_score": 0,
      "confidence": 0,
      "violations": ["<violation>"],
      "severity": "<LOW|MEDIUM|HIGH>",
      "explanation": "<explanation>"
    }
  }
}

Field constraints:
- categories: One entry for every category listed in the prompt, keyed by
  the category name exactly as listed.
- risk_score: Integer from 0 to 100.
- confidence: Integer from 0 to 100.
- violations: Specific quoted problems. Empty array when there are none.
- severity: LOW, MEDIUM, or HIGH.
- explanation: One or two sentences justifying the score.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Include every listed category, even when its score is 0`

const riskSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_risk_score": 0,
  "flagged_section": "<text>",
  "risk_factors": ["<factor>"],
  "severity_level": "<LOW|MEDIUM|HIGH>",
  "risky_spans": [
    {
      "text": "<exact text>",
      "start_index": 0,
      "end_index": 0,
      "risk_level": "<LOW|MEDIUM|HIGH>",
      "policy_category": "<category>",
      "explanation": "<explanation>"
    }
  ],
  "risky_phrases": ["<phrase>"],
  "risky_phrases_by_category": {
    "<category>": ["<phrase>"]
  }
}

Field constraints:
- overall_risk_score: Integer from 0 to 100 for this text only.
- flagged_section: The single most concerning passage, quoted exactly.
  Empty string when nothing is concerning.
- risky_spans: start_index and end_index are character offsets into the
  text given in this prompt, with start_index < end_index. text must be
  copied exactly from that range.
- policy_category: One of the category names listed in the prompt.
- risky_phrases: Short phrases of concern, without duplicates.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing
- Use empty arrays and objects when nothing is risky`

const confidenceSpec = `Respond with a JSON object matching this exact structure:

{
  "overall_confidence": 0,
  "factors": ["<factor>"],
  "limitations": ["<limitation>"]
}

Field constraints:
- overall_confidence: Integer from 0 to 100.
- factors: Reasons the assessment can be trusted.
- limitations: Reasons the assessment may be wrong.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const suggestionSpec = `Respond with a JSON object matching this exact structure:

{
  "suggestions": [
    {
      "title": "<title>",
      "text": "<recommendation>",
      "priority": "<HIGH|MEDIUM|LOW>",
      "impact_score": 0
    }
  ]
}

Field constraints:
- suggestions: Between 5 and 12 entries, highest priority first.
- impact_score: Integer from 0 to 100.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

const basicSpec = `Respond with a JSON object matching this exact structure:

{
  "risk_score": 0,
  "risk_level": "<LOW|MEDIUM|HIGH>",
  "flagged_section": "<text>",
  "highlights": [
    {
      "category": "<category>",
      "risk_score": 0,
      "severity": "<LOW|MEDIUM|HIGH>",
      "explanation": "<explanation>"
    }
  ],
  "suggestions": [
    {
      "title": "<title>",
      "text": "<recommendation>",
      "priority": "<HIGH|MEDIUM|LOW>",
      "impact_score": 0
    }
  ],
  "risky_phrases": ["<phrase>"]
}

Field constraints:
- risk_score: Integer from 0 to 100.
- highlights: At most 4 entries for the highest-risk categories.
- suggestions: At most 12 entries.

Behavioral constraints:
- Always respond with valid JSON, no markdown fencing`

var specs = map[Stage]string{
	StageContextClassification: contextSpec,
	StageContentOrigin:         originSpec,
	StageCategoryAnalysis:      categorySpec,
	StageRiskAssessment:        riskSpec,
	StageConfidenceAnalysis:    confidenceSpec,
	StageSuggestionGeneration:  suggestionSpec,
	StageBasic:                 basicSpec,
}

// Spec returns the hardcoded specification for a stage.
// Specifications define the expected output format and are not overridable.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
