package analyses

import (
	"errors"
	"net/http"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Domain errors for analysis operations.
var (
	ErrNotFound       = errors.New("analysis not found")
	ErrDuplicate      = errors.New("analysis already exists")
	ErrInvalidRequest = errors.New("invalid analysis request")
	ErrMediaTooLarge  = errors.New("media exceeds maximum upload size")
	ErrInvalidMedia   = errors.New("media must be an image")
)

// MapHTTPStatus maps analysis domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidMedia):
		return http.StatusBadRequest
	case risk.IsInputError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
