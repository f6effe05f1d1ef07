package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/intelscan/internal/model"
)

// JSONWriter outputs analyses in JSON format.
// This format is designed for tool integration and programmatic processing.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the analysis in JSON format.
func (w *JSONWriter) Write(analysis *model.Analysis) (int, error) {
	return w.writeJSON(analysis)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// JSONReport wraps an analysis with output metadata.
type JSONReport struct {
	// Version is the intelscan version that generated this output.
	Version string `json:"version"`

	// Analysis is the full analysis.
	Analysis *model.Analysis `json:"analysis"`

	// Summary holds the fetch counts for quick access.
	Summary JSONSummary `json:"summary"`
}

// JSONSummary is the fetch outcome of an analysis.
type JSONSummary struct {
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Cited     int            `json:"cited"`
	Quality   map[string]int `json:"quality,omitempty"`
}

// NewJSONReport creates a JSONReport wrapper with version information.
func NewJSONReport(analysis *model.Analysis, version string) *JSONReport {
	ok, failed := analysis.FetchSummary()
	cited := 0
	if analysis.Report != nil {
		cited = len(analysis.Report.SourceMap)
	}
	return &JSONReport{
		Version:  version,
		Analysis: analysis,
		Summary: JSONSummary{
			Succeeded: ok,
			Failed:    failed,
			Cited:     cited,
			Quality:   qualityCounts(analysis),
		},
	}
}

// FullJSONWriter outputs complete analyses with a metadata wrapper.
type FullJSONWriter struct {
	*JSONWriter

	// version is the intelscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete analyses with metadata.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the analysis wrapped with metadata.
func (w *FullJSONWriter) Write(analysis *model.Analysis) (int, error) {
	return w.writeJSON(NewJSONReport(analysis, w.version))
}
