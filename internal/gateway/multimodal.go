package gateway

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
)

// MediaSource resolves a media reference to inline media.
type MediaSource interface {
	Fetch(ctx context.Context, ref string) (provider.Media, error)
}

// MediaRequest identifies the media sent with a multi-modal prompt and the
// text context used when the media cannot be processed.
type MediaRequest struct {
	Ref        string
	Transcript string
	Metadata   map[string]string
}

// GenerateMultiModal sends prompt with the referenced media to the primary
// provider. On a quota error, or when the media cannot be used at all, it
// degrades to a text-only prompt built from the transcript and metadata and
// flags the response as having lost visual context.
func (g *Gateway) GenerateMultiModal(ctx context.Context, prompt string, req MediaRequest) (*Response, error) {
	mp, ok := g.primary.(provider.MultiModal)
	if !ok || g.media == nil || req.Ref == "" {
		return g.degrade(ctx, prompt, req, g.primary, "primary provider cannot accept media")
	}

	media, err := g.media.Fetch(ctx, req.Ref)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.degrade(ctx, prompt, req, g.primary, fmt.Sprintf("media unavailable: %v", err))
	}

	c, err := g.withRetry(ctx, g.primary, prompt, func(ctx context.Context) (*provider.Completion, error) {
		return mp.GenerateMultiModal(ctx, prompt, media)
	})
	if err == nil {
		return g.response(g.primary, c, false), nil
	}

	if !errors.Is(err, provider.ErrQuotaExceeded) || g.secondary == nil {
		return nil, g.unrecoverable(ctx, err)
	}

	g.failover(ctx, err)
	return g.degrade(ctx, prompt, req, g.secondary, "primary provider quota exceeded")
}

func (g *Gateway) degrade(
	ctx context.Context,
	prompt string,
	req MediaRequest,
	p provider.Provider,
	reason string,
) (*Response, error) {
	g.logger.WarnContext(
		ctx, "visual context lost, using text-only prompt",
		"provider", p.Name(),
		"media_ref", req.Ref,
		"reason", reason,
	)

	text := TextOnlyPrompt(prompt, req)

	var (
		resp *Response
		err  error
	)
	if p == g.primary {
		resp, err = g.Generate(ctx, text)
	} else {
		c, callErr := g.withRetry(ctx, p, text, func(ctx context.Context) (*provider.Completion, error) {
			return p.Generate(ctx, text)
		})
		if callErr != nil {
			return nil, g.unrecoverable(ctx, callErr)
		}
		resp = g.response(p, c, false)
	}
	if err != nil {
		return nil, err
	}

	resp.VisualContextLost = true
	return resp, nil
}

// TextOnlyPrompt rewrites a multi-modal prompt for a provider that cannot
// see the media.
func TextOnlyPrompt(prompt string, req MediaRequest) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nThe visual media for this content could not be processed. ")
	b.WriteString("Base your answer only on the transcript and metadata below.\n")

	if req.Transcript != "" {
		b.WriteString("\nTranscript:\n")
		b.WriteString(req.Transcript)
		b.WriteString("\n")
	}

	if len(req.Metadata) > 0 {
		b.WriteString("\nMetadata:\n")
		for _, k := range slices.Sorted(maps.Keys(req.Metadata)) {
			fmt.Fprintf(&b, "- %s: %s\n", k, req.Metadata[k])
		}
	}

	return b.String()
}
