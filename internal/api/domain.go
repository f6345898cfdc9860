package api

import (
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/analyses"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prompts"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Analyses analyses.System
	Prompts  prompts.System
}

// NewDomain creates all domain systems from the API runtime. Stored prompt
// overrides feed the analyzer's stage instructions.
func NewDomain(runtime *Runtime) *Domain {
	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	analyzer := runtime.Pipeline.Analyzer(promptsSystem, runtime.Logger)

	analysesSystem := analyses.New(
		runtime.Database.Connection(),
		analyzer,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Analyses: analysesSystem,
		Prompts:  promptsSystem,
	}
}
