package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/intelscan/internal/citation"
	"github.com/nao1215/intelscan/internal/crawler"
	"github.com/nao1215/intelscan/internal/model"
)

// Store persists finished analyses.
type Store interface {
	SaveAnalysis(ctx context.Context, analysis *model.Analysis) error
}

// Controller runs analyses and exposes the individual pipeline operations.
// It holds no per-run state and may be shared by concurrent runs.
type Controller struct {
	planner     Planner
	fetcher     Fetcher
	crawler     Crawler
	synthesizer Synthesizer

	// store is optional. When set every finished analysis is saved.
	store Store

	// crawlLimit is the per-seed link limit used by crawl runs.
	crawlLimit int

	logger *slog.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithStore saves every finished analysis to store.
func WithStore(store Store) ControllerOption {
	return func(c *Controller) {
		c.store = store
	}
}

// WithCrawlLimit sets the per-seed link limit for crawl runs.
// Non-positive values keep the default.
func WithCrawlLimit(limit int) ControllerOption {
	return func(c *Controller) {
		if limit > 0 {
			c.crawlLimit = limit
		}
	}
}

// WithControllerLogger sets the logger for the controller and its pipelines.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController creates a Controller from its collaborators.
func NewController(planner Planner, fetcher Fetcher, expander Crawler, synthesizer Synthesizer, opts ...ControllerOption) *Controller {
	c := &Controller{
		planner:     planner,
		fetcher:     fetcher,
		crawler:     expander,
		synthesizer: synthesizer,
		crawlLimit:  crawler.DefaultLimitPerSite,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PlanGoal asks the planner for a plan.
func (c *Controller) PlanGoal(ctx context.Context, goal string) (model.Plan, error) {
	return c.planner.Plan(ctx, goal)
}

// FetchPages scrapes the given URLs. Per-URL failures are returned as error
// records; the error is non-nil only for invalid input, missing configuration
// or a failed batch job.
func (c *Controller) FetchPages(ctx context.Context, urls []string) ([]model.PageRecord, error) {
	return fetchPages(ctx, c.fetcher, urls)
}

// Crawl expands each seed into a crawl group. A non-positive limit uses the
// controller's crawl limit.
func (c *Controller) Crawl(ctx context.Context, seeds []string, limitPerSite int) ([]model.CrawlGroup, error) {
	if limitPerSite <= 0 {
		limitPerSite = c.crawlLimit
	}
	return c.crawler.Expand(ctx, seeds, limitPerSite)
}

// SynthesizeReport writes a raw report for goal from pages.
func (c *Controller) SynthesizeReport(ctx context.Context, goal string, pages []model.PageRecord) (string, error) {
	return c.synthesizer.Synthesize(ctx, goal, pages)
}

// ResolveCitations links the source markers of a raw report to pages.
func (c *Controller) ResolveCitations(rawReport string, pages []model.PageRecord) (model.SynthesizedReport, error) {
	return citation.Resolve(rawReport, pages)
}

// Auto runs a goal-driven analysis: plan, fetch, synthesize and cite.
// The returned analysis is never nil and carries the error, if any.
func (c *Controller) Auto(ctx context.Context, goal string) (*model.Analysis, error) {
	analysis := model.NewAutoAnalysis(strings.TrimSpace(goal))
	analysis.CrawlLimit = c.crawlLimit

	p := New(WithLogger(c.logger))
	p.AddSteps(
		NewPlanStep(c.planner, c.logger),
		NewFetchStep(c.fetcher, c.crawler, c.logger),
		NewStatsStep(),
		NewSynthesizeStep(c.synthesizer, c.logger),
		NewCiteStep(),
	)
	return c.run(ctx, p, analysis)
}

// Manual runs a URL-driven analysis. Pages are fetched in the given mode and,
// when goal is non-empty, a cited report is synthesized from them.
// Invalid URLs or mode fail the run before any network call.
func (c *Controller) Manual(ctx context.Context, urls []string, mode model.FetchMode, goal string) (*model.Analysis, error) {
	analysis := model.NewManualAnalysis(urls, mode, strings.TrimSpace(goal))
	analysis.CrawlLimit = c.crawlLimit

	if err := validateManual(urls, mode); err != nil {
		analysis.Fail(err)
		analysis.Finish()
		return analysis, err
	}

	p := New(WithLogger(c.logger))
	p.AddSteps(
		NewFetchStep(c.fetcher, c.crawler, c.logger),
		NewStatsStep(),
	)
	if analysis.Goal != "" {
		p.AddSteps(
			NewSynthesizeStep(c.synthesizer, c.logger),
			NewCiteStep(),
		)
	}
	return c.run(ctx, p, analysis)
}

func (c *Controller) run(ctx context.Context, p *Pipeline, analysis *model.Analysis) (*model.Analysis, error) {
	c.logger.Info("analysis started",
		"analysis", analysis.ID,
		"kind", analysis.Kind,
		"steps", p.StepNames(),
	)

	err := p.Execute(ctx, analysis)

	if c.store != nil {
		// A cancelled run is still recorded.
		if saveErr := c.store.SaveAnalysis(context.WithoutCancel(ctx), analysis); saveErr != nil {
			c.logger.Error("failed to save analysis",
				"analysis", analysis.ID,
				"error", saveErr,
			)
		}
	}

	if err != nil {
		return analysis, err
	}
	c.logger.Info("analysis completed",
		"analysis", analysis.ID,
		"pages", len(analysis.Pages),
		"duration", analysis.CompletedAt.Sub(analysis.CreatedAt),
	)
	return analysis, nil
}

func validateManual(urls []string, mode model.FetchMode) error {
	if _, err := model.ParseFetchMode(string(mode)); err != nil {
		return err
	}
	return model.ValidateURLs(urls)
}
