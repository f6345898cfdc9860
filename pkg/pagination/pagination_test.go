package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
)

var cfg = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
		wantSearch   string
		wantSort     int
	}{
		{"defaults", "", 1, 20, "", 0},
		{"explicit", "page=3&page_size=50&search=kill&sort=-risk_score,title", 3, 50, "kill", 2},
		{"clamped", "page=-2&page_size=1000", 1, 100, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)

			if req.Page != tt.wantPage || req.PageSize != tt.wantPageSize {
				t.Errorf("page = %d/%d, want %d/%d", req.Page, req.PageSize, tt.wantPage, tt.wantPageSize)
			}
			search := ""
			if req.Search != nil {
				search = *req.Search
			}
			if search != tt.wantSearch {
				t.Errorf("search = %q, want %q", search, tt.wantSearch)
			}
			if len(req.Sort) != tt.wantSort {
				t.Errorf("sort fields = %d, want %d", len(req.Sort), tt.wantSort)
			}
		})
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var req pagination.PageRequest
	if err := json.Unmarshal([]byte(`{"sort":"-created_at,title"}`), &req); err != nil {
		t.Fatalf("unmarshal string sort: %v", err)
	}
	if len(req.Sort) != 2 || !req.Sort[0].Descending || req.Sort[1].Field != "title" {
		t.Errorf("sort = %+v", req.Sort)
	}

	if err := json.Unmarshal([]byte(`{"sort":[{"Field":"risk_score","Descending":true}]}`), &req); err != nil {
		t.Fatalf("unmarshal array sort: %v", err)
	}
	if len(req.Sort) != 1 || req.Sort[0].Field != "risk_score" {
		t.Errorf("sort = %+v", req.Sort)
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		pageSize   int
		wantPages  int
		wantHasNxt bool
	}{
		{"empty", 0, 1, 20, 1, false},
		{"exact", 40, 1, 20, 2, true},
		{"partial last", 41, 3, 20, 3, false},
		{"zero page size", 5, 1, 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := pagination.NewPageResult[int](nil, tt.total, tt.page, tt.pageSize)
			if r.TotalPages != tt.wantPages {
				t.Errorf("total pages = %d, want %d", r.TotalPages, tt.wantPages)
			}
			if r.HasNext != tt.wantHasNxt {
				t.Errorf("has next = %v, want %v", r.HasNext, tt.wantHasNxt)
			}
			if r.Data == nil {
				t.Error("data should be an empty slice, not nil")
			}
		})
	}
}
