package prompts_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/routes"
)

var testPagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

type mockSystem struct {
	prompts.Source

	prompt      *prompts.Prompt
	err         error
	lastFilters prompts.Filters
	lastPage    pagination.PageRequest
	lastCreate  prompts.CreateCommand
	activated   uuid.UUID
}

func newMockSystem() *mockSystem {
	return &mockSystem{Source: prompts.Defaults()}
}

func (m *mockSystem) Handler() *prompts.Handler {
	return prompts.NewHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil)), testPagination)
}

func (m *mockSystem) List(_ context.Context, page pagination.PageRequest, filters prompts.Filters) (*pagination.PageResult[prompts.Prompt], error) {
	m.lastPage = page
	m.lastFilters = filters
	if m.err != nil {
		return nil, m.err
	}
	result := pagination.NewPageResult([]prompts.Prompt{}, 0, page.Page, page.PageSize)
	return &result, nil
}

func (m *mockSystem) Find(context.Context, uuid.UUID) (*prompts.Prompt, error) {
	return m.prompt, m.err
}

func (m *mockSystem) Create(_ context.Context, cmd prompts.CreateCommand) (*prompts.Prompt, error) {
	m.lastCreate = cmd
	if m.err != nil {
		return nil, m.err
	}
	return &prompts.Prompt{ID: uuid.New(), Name: cmd.Name, Stage: cmd.Stage, Instructions: cmd.Instructions}, nil
}

func (m *mockSystem) Update(context.Context, uuid.UUID, prompts.UpdateCommand) (*prompts.Prompt, error) {
	return m.prompt, m.err
}

func (m *mockSystem) Delete(context.Context, uuid.UUID) error {
	return m.err
}

func (m *mockSystem) Activate(_ context.Context, id uuid.UUID) (*prompts.Prompt, error) {
	m.activated = id
	return m.prompt, m.err
}

func (m *mockSystem) Deactivate(context.Context, uuid.UUID) (*prompts.Prompt, error) {
	return m.prompt, m.err
}

func serve(sys *mockSystem, method, target, body string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler().Routes())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestHandler_ListFilters(t *testing.T) {
	sys := newMockSystem()
	rec := serve(sys, "GET", "/prompts?stage=basic&active=true&name=strict&page_size=500", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sys.lastFilters.Stage == nil || *sys.lastFilters.Stage != prompts.StageBasic {
		t.Errorf("stage filter = %v, want basic", sys.lastFilters.Stage)
	}
	if sys.lastFilters.Active == nil || !*sys.lastFilters.Active {
		t.Errorf("active filter = %v, want true", sys.lastFilters.Active)
	}
	if sys.lastPage.PageSize != 100 {
		t.Errorf("page size = %d, want clamped 100", sys.lastPage.PageSize)
	}
}

func TestHandler_Stages(t *testing.T) {
	rec := serve(newMockSystem(), "GET", "/prompts/stages", "")

	var got []prompts.Stage
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(prompts.Stages()) {
		t.Errorf("stages = %v, want %v", got, prompts.Stages())
	}
}

func TestHandler_Preview(t *testing.T) {
	tests := []struct {
		name       string
		stage      string
		wantStatus int
	}{
		{"known stage", "risk_assessment", http.StatusOK},
		{"unknown stage", "classify", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newMockSystem(), "GET", "/prompts/stages/"+tt.stage, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var got prompts.StageContent
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !strings.HasPrefix(got.Content, "Stage: risk_assessment\n") {
				t.Errorf("content = %q", got.Content)
			}
		})
	}
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"created", `{"name":"strict","stage":"basic","instructions":"be strict"}`, nil, http.StatusCreated},
		{"unknown stage", `{"name":"strict","stage":"classify","instructions":"x"}`, nil, http.StatusBadRequest},
		{"invalid prompt", `{"name":"","stage":"basic","instructions":""}`, prompts.ErrInvalidPrompt, http.StatusBadRequest},
		{"duplicate", `{"name":"strict","stage":"basic","instructions":"x"}`, prompts.ErrDuplicate, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := newMockSystem()
			sys.err = tt.err

			rec := serve(sys, "POST", "/prompts", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandler_Activate(t *testing.T) {
	id := uuid.New()
	sys := newMockSystem()
	sys.prompt = &prompts.Prompt{ID: id, Stage: prompts.StageBasic, Active: true}

	rec := serve(sys, "POST", "/prompts/"+id.String()+"/activate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sys.activated != id {
		t.Errorf("activated = %s, want %s", sys.activated, id)
	}

	rec = serve(sys, "POST", "/prompts/not-a-uuid/activate", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id status = %d, want 400", rec.Code)
	}
}

func TestHandler_DeleteNotFound(t *testing.T) {
	sys := newMockSystem()
	sys.err = prompts.ErrNotFound

	rec := serve(sys, "DELETE", "/prompts/"+uuid.NewString(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
