package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/prepare"
	"github.com/shanekeen-real/youtube-tos-cursor-sub002/internal/risk"
)

// Analyzer is the inbound analysis contract.
type Analyzer interface {
	Analyze(ctx context.Context, req risk.Request) (*risk.Result, error)
}

// Tier is one level of the fallback chain.
type Tier interface {
	Mode() risk.Mode
	Run(ctx context.Context, req risk.Request, actx *risk.Context) (*risk.Result, error)
}

// Controller runs tiers in order until one produces a result. The emergency
// tier always terminates the chain, so every valid request yields a result.
type Controller struct {
	rt        *Runtime
	tiers     []Tier
	emergency Tier
}

// NewController creates a Controller over tiers. With no tiers given, the
// chain is enhanced then basic.
func NewController(rt *Runtime, tiers ...Tier) *Controller {
	rt.init()
	if len(tiers) == 0 {
		tiers = []Tier{NewEnhanced(rt), NewBasic(rt)}
	}
	return &Controller{
		rt:        rt,
		tiers:     tiers,
		emergency: NewEmergency(rt.Policy),
	}
}

// Analyze prepares the request and walks the tier chain. Only input errors
// and caller cancellation are returned as errors.
func (c *Controller) Analyze(ctx context.Context, req risk.Request) (*risk.Result, error) {
	start := time.Now()

	actx, err := prepare.Prepare(req, c.rt.Config.Config)
	if err != nil {
		return nil, err
	}

	logger := c.rt.Logger.With("length", actx.Length, "language", actx.Language)

	var degradations []string
	result, err := c.walk(ctx, logger, req, actx, &degradations)
	if err != nil {
		return nil, err
	}

	finish(result, actx, degradations, start)
	c.rt.Recorder.Analysis(string(result.Metadata.Mode), result.Metadata.ProcessingTime)

	logger.InfoContext(ctx, "analysis complete",
		"mode", result.Metadata.Mode,
		"risk_score", result.RiskScore,
		"risk_level", result.RiskLevel,
		"duration", result.Metadata.ProcessingTime,
	)

	return result, nil
}

func (c *Controller) walk(
	ctx context.Context,
	logger *slog.Logger,
	req risk.Request,
	actx *risk.Context,
	degradations *[]string,
) (*risk.Result, error) {
	for _, tier := range c.tiers {
		result, err := tier.Run(ctx, req, actx)
		if err == nil {
			return result, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		mode := tierName(tier, req)
		*degradations = append(*degradations, fmt.Sprintf("%s tier failed: %v", mode, err))
		c.rt.Recorder.Degradation(mode)
		logger.WarnContext(ctx, "analysis tier failed, degrading",
			"tier", mode,
			"error", err,
		)
	}

	return c.emergency.Run(ctx, req, actx)
}

func tierName(t Tier, req risk.Request) string {
	if t.Mode() == risk.ModeEnhanced && req.MediaRef != "" {
		return string(risk.ModeMultiModal)
	}
	return string(t.Mode())
}

func finish(r *risk.Result, actx *risk.Context, degradations []string, start time.Time) {
	md := &r.Metadata
	md.Timestamp = time.Now().UTC()
	md.ProcessingTime = elapsed(start)
	md.ContentLength = actx.Length
	md.Language = actx.Language
	md.Caveats = append(append([]string{}, actx.Caveats...), md.Caveats...)
	md.Degradations = append(degradations, md.Degradations...)
	if md.Chunks == 0 && md.Mode != risk.ModeEmergency {
		md.Chunks = 1
	}
}
