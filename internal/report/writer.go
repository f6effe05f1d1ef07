package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
)

// Format names accepted by NewWriter.
const (
	FormatText     = "text"
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// ErrUnknownFormat is returned by NewWriter for unsupported format names.
var ErrUnknownFormat = errors.New("unknown report format")

// Writer defines the interface for report output.
// Implementations write analyses in various formats.
type Writer interface {
	// Write outputs the analysis to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(analysis *model.Analysis) (int, error)
}

// NewWriter returns the writer for format. version is embedded by formats
// that carry it.
func NewWriter(format string, output io.Writer, version string) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatText, "txt", "":
		return NewSimpleWriter(output, WithVerbose(true)), nil
	case FormatMarkdown, "markdown":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewFullJSONWriter(output, version, WithPrettyPrint()), nil
	case FormatHTML:
		return NewHTMLWriter(output, version), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ContentType returns the MIME type of format's output.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown":
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// FileExtension returns the file extension for format, including the dot.
func FileExtension(format string) string {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown":
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	default:
		return ".txt"
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText describes how the analysis ended.
func statusText(a *model.Analysis) string {
	if !a.Succeeded() {
		return "Error - " + a.ErrorMessage
	}
	if a.CompletedAt.IsZero() {
		return "Running"
	}
	return "Complete"
}

// qualityCounts buckets the successful pages by content quality.
func qualityCounts(a *model.Analysis) map[string]int {
	counts := make(map[string]int, 3)
	for _, p := range a.Pages {
		if p.Stats == nil {
			continue
		}
		counts[p.Stats.Quality()]++
	}
	return counts
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// dateLayout is used for timestamps in human-readable output.
const dateLayout = "2006-01-02 15:04:05 MST"
