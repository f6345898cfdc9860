package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/gateway"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/formatting"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/storage"
)

type storageMedia struct {
	store    storage.System
	maxBytes int64
}

// NewMediaSource resolves media references against blob storage. Blobs
// larger than maxBytes are rejected.
func NewMediaSource(store storage.System, maxBytes int64) gateway.MediaSource {
	return &storageMedia{store: store, maxBytes: maxBytes}
}

func (s *storageMedia) Fetch(ctx context.Context, ref string) (provider.Media, error) {
	blob, err := s.store.Download(ctx, ref)
	if err != nil {
		return provider.Media{}, err
	}
	defer blob.Body.Close()

	data, err := io.ReadAll(io.LimitReader(blob.Body, s.maxBytes+1))
	if err != nil {
		return provider.Media{}, fmt.Errorf("read media %s: %w", ref, err)
	}
	if int64(len(data)) > s.maxBytes {
		return provider.Media{}, fmt.Errorf("media %s: %w: limit %s", ref, storage.ErrTooLarge, formatting.FormatBytes(s.maxBytes, 1))
	}

	contentType := blob.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return provider.Media{Data: data, ContentType: contentType}, nil
}
