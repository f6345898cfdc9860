package analyses_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/analyses"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/lifecycle"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/pagination"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/routes"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testPagination = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

type mockSystem struct {
	listFn   func(ctx context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error)
	findFn   func(ctx context.Context, id uuid.UUID) (*analyses.Analysis, error)
	createFn func(ctx context.Context, cmd analyses.CreateCommand) (*analyses.Analysis, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error
	uploadFn func(ctx context.Context, cmd analyses.MediaCommand) (*analyses.Media, error)
}

func (m *mockSystem) Handler(maxBodySize, maxMediaSize int64) *analyses.Handler {
	return analyses.NewHandler(m, discard(), testPagination, maxBodySize, maxMediaSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*analyses.Analysis, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd analyses.CreateCommand) (*analyses.Analysis, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) UploadMedia(ctx context.Context, cmd analyses.MediaCommand) (*analyses.Media, error) {
	return m.uploadFn(ctx, cmd)
}

func setupMux(h *analyses.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes(), h.MediaRoutes())
	return mux
}

func sampleAnalysis() analyses.Analysis {
	return analyses.Analysis{
		ID:            uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		Title:         "episode 12",
		ContentLength: 42,
		RiskScore:     64,
		RiskLevel:     risk.LevelMedium,
		Mode:          risk.ModeEnhanced,
		ModelUsed:     "claude-sonnet-4-5",
	}
}

func TestHandler_List(t *testing.T) {
	var gotFilters analyses.Filters
	var gotPage pagination.PageRequest

	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
			gotPage, gotFilters = page, f
			result := pagination.NewPageResult([]analyses.Analysis{sampleAnalysis()}, 1, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(sys.Handler(1024, 1024))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/analyses?risk_level=high&mode=Basic&page_size=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPage.PageSize != 5 {
		t.Errorf("page size = %d, want 5", gotPage.PageSize)
	}
	if gotFilters.RiskLevel == nil || *gotFilters.RiskLevel != "HIGH" {
		t.Errorf("risk level filter = %v, want HIGH", gotFilters.RiskLevel)
	}
	if gotFilters.Mode == nil || *gotFilters.Mode != "basic" {
		t.Errorf("mode filter = %v, want basic", gotFilters.Mode)
	}

	var result pagination.PageResult[analyses.Analysis]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].RiskScore != 64 {
		t.Errorf("data = %+v", result.Data)
	}
}

func TestHandler_Search(t *testing.T) {
	sys := &mockSystem{
		listFn: func(_ context.Context, page pagination.PageRequest, f analyses.Filters) (*pagination.PageResult[analyses.Analysis], error) {
			if page.PageSize != 100 {
				t.Errorf("page size = %d, want clamped 100", page.PageSize)
			}
			if f.Title == nil || *f.Title != "episode" {
				t.Errorf("title filter = %v", f.Title)
			}
			result := pagination.NewPageResult([]analyses.Analysis{}, 0, page.Page, page.PageSize)
			return &result, nil
		},
	}
	mux := setupMux(sys.Handler(1024, 1024))

	t.Run("valid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"page":1,"page_size":500,"title":"episode"}`
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/analyses/search", strings.NewReader(body)))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/analyses/search", strings.NewReader("{")))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandler_Find(t *testing.T) {
	a := sampleAnalysis()
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*analyses.Analysis, error) {
			if id == a.ID {
				return &a, nil
			}
			return nil, analyses.ErrNotFound
		},
	}
	mux := setupMux(sys.Handler(1024, 1024))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/analyses/" + a.ID.String(), http.StatusOK},
		{"not found", "/analyses/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/analyses/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandler_Create(t *testing.T) {
	sys := &mockSystem{
		createFn: func(_ context.Context, cmd analyses.CreateCommand) (*analyses.Analysis, error) {
			switch strings.TrimSpace(cmd.Text) {
			case "":
				return nil, risk.ErrEmptyInput
			case "boom":
				return nil, errors.New("database unavailable")
			}
			a := sampleAnalysis()
			a.Title = cmd.Title
			return &a, nil
		},
	}
	mux := setupMux(sys.Handler(256, 1024))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"created", `{"title":"ep","text":"hello there"}`, http.StatusCreated},
		{"empty text", `{"text":"  "}`, http.StatusUnprocessableEntity},
		{"malformed", `{"text":`, http.StatusBadRequest},
		{"too large", `{"text":"` + strings.Repeat("a", 512) + `"}`, http.StatusRequestEntityTooLarge},
		{"internal", `{"text":"boom"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("POST", "/analyses", strings.NewReader(tt.body)))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	known := uuid.New()
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error {
			if id == known {
				return nil
			}
			return analyses.ErrNotFound
		},
	}
	mux := setupMux(sys.Handler(1024, 1024))

	for _, tt := range []struct {
		name string
		id   string
		want int
	}{
		{"deleted", known.String(), http.StatusNoContent},
		{"missing", uuid.NewString(), http.StatusNotFound},
		{"invalid", "x", http.StatusBadRequest},
	} {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/analyses/"+tt.id, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func multipartBody(t *testing.T, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()
	return &buf, w.FormDataContentType()
}

func TestHandler_Upload(t *testing.T) {
	var got analyses.MediaCommand
	sys := &mockSystem{
		uploadFn: func(_ context.Context, cmd analyses.MediaCommand) (*analyses.Media, error) {
			got = cmd
			return &analyses.Media{Key: "media/x/" + cmd.Filename, ContentType: cmd.ContentType, SizeBytes: int64(len(cmd.Data))}, nil
		},
	}
	mux := setupMux(sys.Handler(1024, 1<<20))

	body, contentType := multipartBody(t, "frame.png", pngHeader)
	req := httptest.NewRequest("POST", "/media", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	if got.ContentType != "image/png" {
		t.Errorf("content type = %q, want sniffed image/png", got.ContentType)
	}
	if got.Filename != "frame.png" {
		t.Errorf("filename = %q", got.Filename)
	}

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/media", strings.NewReader(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code == http.StatusCreated {
			t.Errorf("status = %d, want failure", rec.Code)
		}
	})
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantLevel string
		wantMode  string
		wantTitle string
	}{
		{"empty", "", "", "", ""},
		{"level normalized", "risk_level=medium", "MEDIUM", "", ""},
		{"synonym level", "risk_level=severe", "HIGH", "", ""},
		{"unknown level is low", "risk_level=whatever", "LOW", "", ""},
		{"mode lowercased", "mode=Multi-Modal", "", "multi-modal", ""},
		{"title", "title=ep", "", "", "ep"},
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			f := analyses.FiltersFromQuery(values)
			if deref(f.RiskLevel) != tt.wantLevel {
				t.Errorf("risk level = %q, want %q", deref(f.RiskLevel), tt.wantLevel)
			}
			if deref(f.Mode) != tt.wantMode {
				t.Errorf("mode = %q, want %q", deref(f.Mode), tt.wantMode)
			}
			if deref(f.Title) != tt.wantTitle {
				t.Errorf("title = %q, want %q", deref(f.Title), tt.wantTitle)
			}
		})
	}
}

func TestFiltersFromQuery_Scores(t *testing.T) {
	values, _ := url.ParseQuery("min_score=40&max_score=250")
	f := analyses.FiltersFromQuery(values)
	if f.MinScore == nil || *f.MinScore != 40 {
		t.Errorf("min score = %v, want 40", f.MinScore)
	}
	if f.MaxScore == nil || *f.MaxScore != 100 {
		t.Errorf("max score = %v, want clamped 100", f.MaxScore)
	}

	values, _ = url.ParseQuery("min_score=high")
	if f := analyses.FiltersFromQuery(values); f.MinScore != nil {
		t.Errorf("min score = %v, want nil for non-numeric", *f.MinScore)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{analyses.ErrNotFound, http.StatusNotFound},
		{analyses.ErrDuplicate, http.StatusConflict},
		{analyses.ErrInvalidRequest, http.StatusBadRequest},
		{analyses.ErrInvalidMedia, http.StatusBadRequest},
		{analyses.ErrMediaTooLarge, http.StatusRequestEntityTooLarge},
		{fmt.Errorf("prepare: %w", risk.ErrInputTooLong), http.StatusUnprocessableEntity},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := analyses.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

type analyzerFunc func(context.Context, risk.Request) (*risk.Result, error)

func (f analyzerFunc) Analyze(ctx context.Context, req risk.Request) (*risk.Result, error) {
	return f(ctx, req)
}

type memoryStore struct {
	blobs map[string][]byte
	types map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: map[string][]byte{}, types: map[string]string{}}
}

func (s *memoryStore) Start(*lifecycle.Coordinator) error { return nil }

func (s *memoryStore) Upload(_ context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.blobs[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memoryStore) Download(_ context.Context, key string) (*storage.Blob, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &storage.Blob{Body: io.NopCloser(bytes.NewReader(data)), ContentType: s.types[key], ContentLength: int64(len(data))}, nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	return nil
}

func (s *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := s.blobs[key]
	return ok, nil
}

func (s *memoryStore) Ping(context.Context) error { return nil }

func TestSystem_UploadMedia(t *testing.T) {
	store := newMemoryStore()
	sys := analyses.New(nil, nil, store, discard(), testPagination)

	t.Run("stores image", func(t *testing.T) {
		media, err := sys.UploadMedia(context.Background(), analyses.MediaCommand{
			Data:        pngHeader,
			Filename:    "../../etc/key frame.png",
			ContentType: "image/png",
		})
		if err != nil {
			t.Fatalf("UploadMedia: %v", err)
		}
		if !strings.HasPrefix(media.Key, "media/") || !strings.HasSuffix(media.Key, "/key%20frame.png") {
			t.Errorf("key = %q", media.Key)
		}
		if err := storage.ValidateKey(media.Key); err != nil {
			t.Errorf("key %q fails validation: %v", media.Key, err)
		}
		if !bytes.Equal(store.blobs[media.Key], pngHeader) {
			t.Error("blob content not stored")
		}
		if media.SizeBytes != int64(len(pngHeader)) {
			t.Errorf("size = %d", media.SizeBytes)
		}
	})

	t.Run("rejects non-image", func(t *testing.T) {
		_, err := sys.UploadMedia(context.Background(), analyses.MediaCommand{
			Data:        []byte("hello"),
			Filename:    "notes.txt",
			ContentType: "text/plain; charset=utf-8",
		})
		if !errors.Is(err, analyses.ErrInvalidMedia) {
			t.Errorf("err = %v, want ErrInvalidMedia", err)
		}
	})
}

func TestSystem_CreateRejectsBeforeStoring(t *testing.T) {
	calls := 0
	analyzer := analyzerFunc(func(_ context.Context, req risk.Request) (*risk.Result, error) {
		calls++
		return nil, risk.ErrInputTooShort
	})
	sys := analyses.New(nil, analyzer, newMemoryStore(), discard(), testPagination)

	t.Run("invalid media ref", func(t *testing.T) {
		_, err := sys.Create(context.Background(), analyses.CreateCommand{
			Request: risk.Request{Text: "hello", MediaRef: "../secret"},
		})
		if !errors.Is(err, analyses.ErrInvalidRequest) {
			t.Errorf("err = %v, want ErrInvalidRequest", err)
		}
		if calls != 0 {
			t.Errorf("analyzer called %d times, want 0", calls)
		}
	})

	t.Run("input error passes through", func(t *testing.T) {
		_, err := sys.Create(context.Background(), analyses.CreateCommand{
			Request: risk.Request{Text: "hi"},
		})
		if !errors.Is(err, risk.ErrInputTooShort) {
			t.Errorf("err = %v, want ErrInputTooShort", err)
		}
		if analyses.MapHTTPStatus(err) != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", analyses.MapHTTPStatus(err))
		}
	})
}
