package risk

import "errors"

// Input errors are the only failures surfaced to callers of Analyze.
var (
	ErrEmptyInput    = errors.New("input text is empty")
	ErrInputTooShort = errors.New("input text is too short")
	ErrInputTooLong  = errors.New("input text is too long")
)

// IsInputError reports whether err rejects the request before any model call.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInputTooShort) ||
		errors.Is(err, ErrInputTooLong)
}
