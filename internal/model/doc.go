// Package model defines the core data structures used throughout intelscan.
//
// This package contains the following main types:
//   - PageRecord: One fetched page, either with content or with an error
//   - CrawlGroup: A seed page plus the same-domain pages discovered from it
//   - Plan: The fetch plan produced by the language model for a goal
//   - SynthesizedReport: A cited report with its source map and HTML rendering
//   - Analysis: One complete pipeline run with all of its inputs and outputs
//   - PageStats: Structural statistics computed from a page's Markdown
//
// Models live in their own package so that the fetch, crawl, synthesis and
// persistence packages can share them without import cycles. All types
// serialize to JSON for export and database storage.
package model
