// Package analyses implements the persisted analysis domain. It runs
// requests through the analyzer, stores each result with its headline
// fields, and accepts media uploads referenced by multi-modal requests.
package analyses

import (
	"time"

	"github.com/google/uuid"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Analysis is a stored analysis result.
type Analysis struct {
	ID            uuid.UUID    `json:"id"`
	Title         string       `json:"title"`
	ContentLength int          `json:"content_length"`
	RiskScore     int          `json:"risk_score"`
	RiskLevel     risk.Level   `json:"risk_level"`
	Mode          risk.Mode    `json:"mode"`
	ModelUsed     string       `json:"model_used"`
	MediaRef      string       `json:"media_ref,omitempty"`
	Result        *risk.Result `json:"result,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CreateCommand is the analysis request body. Title is an optional label
// for listing.
type CreateCommand struct {
	Title string `json:"title"`
	risk.Request
}

// MediaCommand carries an uploaded keyframe or thumbnail.
type MediaCommand struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Media is the stored location of an upload. Key is passed back as the
// media_ref of an analysis request.
type Media struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}
