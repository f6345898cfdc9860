// Package prepare normalizes raw analysis input, detects its language, and
// decides whether it must be chunked.
package prepare

import (
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Config bounds the accepted input and sets the chunk geometry.
type Config struct {
	ChunkSize     int
	ChunkOverlap  int
	MinTextLength int
	MaxTextLength int
}

// Prepare decodes the request text and derives its analysis context.
// It has no side effects.
func Prepare(req risk.Request, cfg Config) (*risk.Context, error) {
	text := Decode(req.Text)
	if text == "" {
		return nil, risk.ErrEmptyInput
	}

	n := utf8.RuneCountInString(text)
	if cfg.MinTextLength > 0 && n < cfg.MinTextLength {
		return nil, fmt.Errorf("%w: %d characters, minimum %d", risk.ErrInputTooShort, n, cfg.MinTextLength)
	}
	if cfg.MaxTextLength > 0 && n > cfg.MaxTextLength {
		return nil, fmt.Errorf("%w: %d characters, maximum %d", risk.ErrInputTooLong, n, cfg.MaxTextLength)
	}

	lang := DetectLanguage(text)

	ctx := &risk.Context{
		Text:          text,
		Language:      lang,
		Length:        n,
		ChunkSize:     cfg.ChunkSize,
		Overlap:       cfg.ChunkOverlap,
		NeedsChunking: cfg.ChunkSize > 0 && n > cfg.ChunkSize,
	}

	if lang != LangEnglish {
		ctx.Caveats = append(ctx.Caveats, fmt.Sprintf(
			"content appears to be %s; analysis accuracy is reduced for non-English text", lang,
		))
	}

	return ctx, nil
}

// Decode unescapes HTML entities, applies NFC normalization, strips control
// characters, and collapses runs of horizontal whitespace. Newlines are kept
// so transcripts retain their line structure.
func Decode(raw string) string {
	s := html.UnescapeString(raw)
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		switch {
		case r == '\n':
			b.WriteRune('\n')
			space = false
		case unicode.IsSpace(r):
			if !space {
				b.WriteRune(' ')
				space = true
			}
		case unicode.IsControl(r), r == utf8.RuneError, r == '\u200b', r == '\ufeff':
			continue
		default:
			b.WriteRune(r)
			space = false
		}
	}

	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	blank := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}
