package model

import (
	"time"

	"github.com/google/uuid"
)

// SynthesizedReport is a cited report ready for display.
type SynthesizedReport struct {
	// Markdown is the report body with source markers replaced by links.
	Markdown string `json:"markdown"`

	// HTML is the rendered form of Markdown.
	HTML string `json:"html"` //nolint:tagliatelle // HTML is acronym

	// SourceMap maps each cited source number to its URL.
	// Every entry corresponds to at least one link in Markdown.
	SourceMap map[int]string `json:"source_map"`
}

// AnalysisKind distinguishes goal-driven runs from URL-driven runs.
type AnalysisKind string

const (
	// KindAuto is a run that starts from a free-text goal.
	KindAuto AnalysisKind = "auto"

	// KindManual is a run that starts from a user-supplied URL list.
	KindManual AnalysisKind = "manual"
)

// Analysis is one pipeline run together with all of its inputs and outputs.
// It is owned by exactly one run and passed explicitly through the pipeline
// steps. Completed analyses are persisted by the database package.
type Analysis struct {
	// ID uniquely identifies the analysis.
	ID string `json:"id"`

	// Kind is auto or manual.
	Kind AnalysisKind `json:"kind"`

	// Goal is the user's free-text research goal. Optional for manual runs.
	Goal string `json:"goal,omitempty"`

	// FetchMode is the mode used to fetch pages.
	FetchMode FetchMode `json:"fetch_mode"`

	// URLs are the URLs to fetch: the user's list, or the plan's URLs.
	URLs []string `json:"urls"`

	// CrawlLimit is the per-seed link limit for crawl mode.
	CrawlLimit int `json:"crawl_limit,omitempty"`

	// Plan is the model's plan. Nil for manual runs.
	Plan *Plan `json:"plan,omitempty"`

	// Pages are the fetched records in fetch order. In crawl mode this is
	// the flattened form of Groups.
	Pages []PageRecord `json:"pages,omitempty"`

	// Groups are the crawl groups. Empty in scrape mode.
	Groups []CrawlGroup `json:"groups,omitempty"`

	// RawReport is the model's report before citation resolution.
	RawReport string `json:"raw_report,omitempty"`

	// Report is the cited report. Nil when no synthesis was performed.
	Report *SynthesizedReport `json:"report,omitempty"`

	// PerformedSteps lists the pipeline steps that completed.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error is the first error that stopped the run.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional

	// CreatedAt is when the analysis started.
	CreatedAt time.Time `json:"created_at"`

	// CompletedAt is when the analysis finished, successfully or not.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// NewAutoAnalysis creates an analysis that starts from a goal.
func NewAutoAnalysis(goal string) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		Kind:      KindAuto,
		Goal:      goal,
		CreatedAt: time.Now(),
	}
}

// NewManualAnalysis creates an analysis that starts from a URL list.
func NewManualAnalysis(urls []string, mode FetchMode, goal string) *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		Kind:      KindManual,
		Goal:      goal,
		FetchMode: mode,
		URLs:      urls,
		CreatedAt: time.Now(),
	}
}

// MarkStep records that a pipeline step completed.
func (a *Analysis) MarkStep(name string) {
	a.PerformedSteps = append(a.PerformedSteps, name)
}

// Fail records the error that stopped the run.
func (a *Analysis) Fail(err error) {
	a.Error = err
	if err != nil {
		a.ErrorMessage = err.Error()
	}
}

// Finish stamps the completion time.
func (a *Analysis) Finish() {
	a.CompletedAt = time.Now()
}

// Succeeded reports whether the run finished without error.
func (a *Analysis) Succeeded() bool {
	return a.Error == nil && a.ErrorMessage == ""
}

// FetchSummary counts successful and failed page records.
func (a *Analysis) FetchSummary() (succeeded, failed int) {
	for _, p := range a.Pages {
		if p.Failed() {
			failed++
		} else {
			succeeded++
		}
	}
	return succeeded, failed
}

// Title returns a short label for the analysis: the goal, or the first URL.
func (a *Analysis) Title() string {
	if a.Goal != "" {
		return a.Goal
	}
	if len(a.URLs) > 0 {
		return a.URLs[0]
	}
	return a.ID
}
