// Package report writes finished analyses in several output formats.
//
// This package contains writers for different output formats:
//   - SimpleWriter: human-readable text output for terminal display
//   - MarkdownWriter: Markdown for sharing, built with nao1215/markdown
//   - HTMLWriter: a standalone HTML page with the rendered report
//   - JSONWriter and FullJSONWriter: structured JSON for tool integration
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output. NewWriter selects a
// writer by format name for the export command and the HTTP API.
package report
