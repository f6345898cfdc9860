package api

import (
	"net/http"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/config"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	runtime *Runtime,
	domain *Domain,
	cfg *config.Config,
) {
	analysesHandler := domain.Analyses.Handler(
		cfg.API.MaxBodySizeBytes(),
		cfg.API.MaxMediaSizeBytes(),
	)

	var obs routes.Observer
	if runtime.Metrics != nil {
		obs = runtime.Metrics
	}

	routes.Instrument(
		mux,
		obs,
		analysesHandler.Routes(),
		analysesHandler.MediaRoutes(),
		domain.Prompts.Handler().Routes(),
	)
}
