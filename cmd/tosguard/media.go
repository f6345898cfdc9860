package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/provider"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/formatting"
)

const maxMediaBytes = 10 << 20

// fileMedia resolves media references as local file paths.
type fileMedia struct{}

func (fileMedia) Fetch(_ context.Context, ref string) (provider.Media, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return provider.Media{}, err
	}
	if info.Size() > maxMediaBytes {
		return provider.Media{}, fmt.Errorf("%s is %s, limit %s", ref, formatting.FormatBytes(info.Size(), 1), formatting.FormatBytes(maxMediaBytes, 0))
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return provider.Media{}, err
	}

	return provider.Media{Data: data, ContentType: http.DetectContentType(data)}, nil
}
