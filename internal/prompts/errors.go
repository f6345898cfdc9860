package prompts

import (
	"errors"
	"net/http"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/repository"
)

// Domain errors for prompt operations.
var (
	ErrNotFound      = errors.New("prompt not found")
	ErrDuplicate     = errors.New("prompt name already exists")
	ErrInvalidStage  = errors.New("unknown analysis stage")
	ErrInvalidPrompt = errors.New("prompt name and instructions are required")
)

// MapHTTPStatus maps prompt domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidStage) || errors.Is(err, ErrInvalidPrompt) || errors.Is(err, repository.ErrConstraint) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
