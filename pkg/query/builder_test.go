package query_test

import (
	"slices"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/query"
)

func testProjection() *query.ProjectionMap {
	return query.
		NewProjectionMap("public", "analyses", "a").
		Project("id", "ID").
		Project("title", "Title").
		Project("risk_score", "RiskScore").
		Project("created_at", "CreatedAt")
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func TestBuildCount(t *testing.T) {
	sql, args := query.
		NewBuilder(testProjection()).
		WhereSearch(strPtr("kill"), "Title").
		WhereRange("RiskScore", intPtr(40), intPtr(80)).
		BuildCount()

	want := "SELECT COUNT(*) FROM public.analyses a WHERE (a.title ILIKE $1) AND a.risk_score >= $2 AND a.risk_score <= $3"
	if sql != want {
		t.Errorf("sql:\n got %s\nwant %s", sql, want)
	}
	if !slices.Equal(args, []any{"%kill%", 40, 80}) {
		t.Errorf("args: got %v", args)
	}
}

func TestWhereRange(t *testing.T) {
	tests := []struct {
		name      string
		lower     *int
		upper     *int
		wantWhere string
		wantArgs  []any
	}{
		{"no bounds", nil, nil, "", nil},
		{"lower only", intPtr(30), nil, " WHERE a.risk_score >= $1", []any{30}},
		{"upper only", nil, intPtr(65), " WHERE a.risk_score <= $1", []any{65}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := query.
				NewBuilder(testProjection()).
				WhereRange("RiskScore", tt.lower, tt.upper).
				BuildCount()

			want := "SELECT COUNT(*) FROM public.analyses a" + tt.wantWhere
			if sql != want {
				t.Errorf("sql: got %q, want %q", sql, want)
			}
			if !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args: got %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildPageSorting(t *testing.T) {
	defaultSort := query.SortField{Field: "CreatedAt", Descending: true}
	columns := "a.id, a.title, a.risk_score, a.created_at"

	tests := []struct {
		name string
		sort string
		want string
	}{
		{"default sort", "", "SELECT " + columns + " FROM public.analyses a ORDER BY a.created_at DESC LIMIT 20 OFFSET 20"},
		{"view and column names", "-RiskScore,title", "SELECT " + columns + " FROM public.analyses a ORDER BY a.risk_score DESC, a.title ASC LIMIT 20 OFFSET 20"},
		{"unknown fields dropped", "title;drop table x,-risk_score", "SELECT " + columns + " FROM public.analyses a ORDER BY a.risk_score DESC LIMIT 20 OFFSET 20"},
		{"only unknown fields", "nope", "SELECT " + columns + " FROM public.analyses a LIMIT 20 OFFSET 20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(testProjection(), defaultSort)
			if fields := query.ParseSortFields(tt.sort); len(fields) > 0 {
				b.OrderByFields(fields)
			}

			sql, _ := b.BuildPage(2, 20)
			if sql != tt.want {
				t.Errorf("sql:\n got %s\nwant %s", sql, tt.want)
			}
		})
	}
}

func TestBuildSingle(t *testing.T) {
	sql, args := query.NewBuilder(testProjection()).BuildSingle("ID", "abc")

	want := "SELECT a.id, a.title, a.risk_score, a.created_at FROM public.analyses a WHERE a.id = $1"
	if sql != want {
		t.Errorf("sql: got %q, want %q", sql, want)
	}
	if len(args) != 1 || args[0] != "abc" {
		t.Errorf("args: got %v", args)
	}
}
