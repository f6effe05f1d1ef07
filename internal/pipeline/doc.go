// Package pipeline sequences the stages of an intelligence analysis.
//
// An analysis moves through a fixed series of steps: planning (for goal
// driven runs), fetching or crawling the target pages, computing page
// statistics, synthesizing a report with the language model and resolving
// the report's citations. Each stage is a Step that receives the
// *model.Analysis being built and fills in its part.
//
// The Controller wires the steps to the concrete clients and exposes the
// operations consumed by the CLI and the HTTP API. BatchProcessor runs
// several independent analyses with bounded concurrency using errgroup.
//
// Runs share no state: every analysis owns its own Analysis value and a
// fresh Pipeline.
package pipeline
