package storage_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/storage"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"media/abc/frame.jpg", nil},
		{"", storage.ErrEmptyKey},
		{"media/../secrets", storage.ErrInvalidKey},
	}

	for _, tt := range tests {
		if err := storage.ValidateKey(tt.key); !errors.Is(err, tt.want) {
			t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.want)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{storage.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Setenv("TEST_STORAGE_CONN", "UseDevelopmentStorage=true")

	cfg := storage.Config{}
	if err := cfg.Finalize(&storage.Env{ConnectionString: "TEST_STORAGE_CONN"}); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.ContainerName != "media" {
		t.Errorf("container name = %q, want media", cfg.ContainerName)
	}
	if cfg.ConnectionString != "UseDevelopmentStorage=true" {
		t.Errorf("connection string = %q", cfg.ConnectionString)
	}

	empty := storage.Config{}
	if err := empty.Finalize(nil); err == nil {
		t.Error("expected error without a connection string")
	}
}
