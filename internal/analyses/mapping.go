package analyses

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/query"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analyses", "a").
	Project("id", "ID").
	Project("title", "Title").
	Project("content_length", "ContentLength").
	Project("risk_score", "RiskScore").
	Project("risk_level", "RiskLevel").
	Project("mode", "Mode").
	Project("model_used", "ModelUsed").
	Project("media_ref", "MediaRef").
	Project("result", "Result").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for analysis queries.
// RiskLevel and Mode use exact matching; Title uses case-insensitive
// contains matching; MinScore and MaxScore bound the risk score inclusively.
type Filters struct {
	RiskLevel *string `json:"risk_level,omitempty"`
	Mode      *string `json:"mode,omitempty"`
	Title     *string `json:"title,omitempty"`
	MinScore  *int    `json:"min_score,omitempty"`
	MaxScore  *int    `json:"max_score,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("RiskLevel", f.RiskLevel).
		WhereEquals("Mode", f.Mode).
		WhereContains("Title", f.Title).
		WhereRange("RiskScore", f.MinScore, f.MaxScore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if l := values.Get("risk_level"); l != "" {
		level := string(risk.ParseLevel(l))
		f.RiskLevel = &level
	}
	if m := values.Get("mode"); m != "" {
		mode := strings.ToLower(m)
		f.Mode = &mode
	}
	if t := values.Get("title"); t != "" {
		f.Title = &t
	}
	f.MinScore = parseScore(values.Get("min_score"))
	f.MaxScore = parseScore(values.Get("max_score"))

	return f
}

func parseScore(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	n = risk.Clamp(n)
	return &n
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var (
		a   Analysis
		raw []byte
	)
	err := s.Scan(
		&a.ID,
		&a.Title,
		&a.ContentLength,
		&a.RiskScore,
		&a.RiskLevel,
		&a.Mode,
		&a.ModelUsed,
		&a.MediaRef,
		&raw,
		&a.CreatedAt,
	)
	if err != nil {
		return a, err
	}

	if len(raw) > 0 {
		var r risk.Result
		if err := json.Unmarshal(raw, &r); err != nil {
			return a, fmt.Errorf("decode stored result %s: %w", a.ID, err)
		}
		a.Result = &r
	}
	return a, nil
}

