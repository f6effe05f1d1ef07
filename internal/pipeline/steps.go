package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/intelscan/internal/citation"
	"github.com/nao1215/intelscan/internal/crawler"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/render"
	"github.com/nao1215/intelscan/internal/scrape"
)

// Step names recorded in Analysis.PerformedSteps.
const (
	StepPlan       = "plan"
	StepFetch      = "fetch"
	StepStats      = "stats"
	StepSynthesize = "synthesize"
	StepCite       = "cite"
)

// Planner turns a goal into a Plan.
type Planner interface {
	Plan(ctx context.Context, goal string) (model.Plan, error)
}

// Fetcher retrieves pages through the scrape service.
type Fetcher interface {
	FetchOne(ctx context.Context, url string) (model.PageRecord, error)
	FetchBatch(ctx context.Context, urls []string, formats ...scrape.Format) ([]model.PageRecord, error)
}

// Crawler expands seed URLs into crawl groups.
type Crawler interface {
	Expand(ctx context.Context, seeds []string, limitPerSite int) ([]model.CrawlGroup, error)
}

// Synthesizer writes a report from fetched pages.
type Synthesizer interface {
	Synthesize(ctx context.Context, goal string, pages []model.PageRecord) (string, error)
}

// PlanStep asks the planner which pages to fetch for the analysis goal.
type PlanStep struct {
	planner Planner
	logger  *slog.Logger
}

// NewPlanStep creates a planning step.
func NewPlanStep(planner Planner, logger *slog.Logger) *PlanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlanStep{planner: planner, logger: logger}
}

// Name returns the step name.
func (s *PlanStep) Name() string {
	return StepPlan
}

// Do stores the plan and adopts its mode and URLs.
func (s *PlanStep) Do(ctx context.Context, analysis *model.Analysis) error {
	plan, err := s.planner.Plan(ctx, analysis.Goal)
	if err != nil {
		return err
	}
	analysis.Plan = &plan
	analysis.FetchMode = plan.Mode
	analysis.URLs = plan.URLs

	s.logger.Info("plan accepted",
		"mode", plan.Mode,
		"urls", len(plan.URLs),
	)
	return nil
}

// FetchStep retrieves the analysis URLs, scraping them directly or crawling
// from them depending on the fetch mode.
type FetchStep struct {
	fetcher Fetcher
	crawler Crawler
	logger  *slog.Logger
}

// NewFetchStep creates a fetch step.
func NewFetchStep(fetcher Fetcher, expander Crawler, logger *slog.Logger) *FetchStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchStep{fetcher: fetcher, crawler: expander, logger: logger}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return StepFetch
}

// Do fetches the pages. Individual page failures are kept as error records.
func (s *FetchStep) Do(ctx context.Context, analysis *model.Analysis) error {
	switch analysis.FetchMode {
	case model.ModeCrawl:
		limit := analysis.CrawlLimit
		if limit <= 0 {
			limit = crawler.DefaultLimitPerSite
			analysis.CrawlLimit = limit
		}
		groups, err := s.crawler.Expand(ctx, analysis.URLs, limit)
		if err != nil {
			return err
		}
		analysis.Groups = groups
		analysis.Pages = model.FlattenGroups(groups)
	case model.ModeScrape:
		pages, err := fetchPages(ctx, s.fetcher, analysis.URLs)
		if err != nil {
			return err
		}
		analysis.Pages = pages
	default:
		return &model.ValidationError{Field: "mode", Value: string(analysis.FetchMode), Reason: "must be crawl or scrape"}
	}

	ok, failed := analysis.FetchSummary()
	s.logger.Info("pages fetched",
		"mode", analysis.FetchMode,
		"succeeded", ok,
		"failed", failed,
	)
	return nil
}

// StatsStep attaches structural statistics to every fetched page.
type StatsStep struct{}

// NewStatsStep creates a statistics step.
func NewStatsStep() *StatsStep {
	return &StatsStep{}
}

// Name returns the step name.
func (s *StatsStep) Name() string {
	return StepStats
}

// Do computes statistics for the pages and for the crawl groups.
func (s *StatsStep) Do(_ context.Context, analysis *model.Analysis) error {
	for i := range analysis.Pages {
		analysis.Pages[i].Stats = render.PageStats(analysis.Pages[i])
	}
	for g := range analysis.Groups {
		pages := analysis.Groups[g].Pages
		for i := range pages {
			pages[i].Stats = render.PageStats(pages[i])
		}
	}
	return nil
}

// SynthesizeStep writes the raw report for the analysis goal.
type SynthesizeStep struct {
	synthesizer Synthesizer
	logger      *slog.Logger
}

// NewSynthesizeStep creates a synthesis step.
func NewSynthesizeStep(synthesizer Synthesizer, logger *slog.Logger) *SynthesizeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SynthesizeStep{synthesizer: synthesizer, logger: logger}
}

// Name returns the step name.
func (s *SynthesizeStep) Name() string {
	return StepSynthesize
}

// Do stores the model's report before citation resolution.
func (s *SynthesizeStep) Do(ctx context.Context, analysis *model.Analysis) error {
	report, err := s.synthesizer.Synthesize(ctx, analysis.Goal, analysis.Pages)
	if err != nil {
		return err
	}
	analysis.RawReport = report
	s.logger.Debug("report synthesized", "chars", len(report))
	return nil
}

// CiteStep resolves the source markers of the raw report.
type CiteStep struct{}

// NewCiteStep creates a citation step.
func NewCiteStep() *CiteStep {
	return &CiteStep{}
}

// Name returns the step name.
func (s *CiteStep) Name() string {
	return StepCite
}

// Do stores the cited report.
func (s *CiteStep) Do(_ context.Context, analysis *model.Analysis) error {
	report, err := citation.Resolve(analysis.RawReport, analysis.Pages)
	if err != nil {
		return err
	}
	analysis.Report = &report
	return nil
}

// fetchPages scrapes a single URL directly and several URLs as one batch job.
func fetchPages(ctx context.Context, fetcher Fetcher, urls []string) ([]model.PageRecord, error) {
	if err := model.ValidateURLs(urls); err != nil {
		return nil, err
	}
	if len(urls) == 1 {
		page, err := fetcher.FetchOne(ctx, urls[0])
		if err != nil {
			return nil, err
		}
		return []model.PageRecord{page}, nil
	}
	return fetcher.FetchBatch(ctx, urls, scrape.FormatMarkdown)
}
