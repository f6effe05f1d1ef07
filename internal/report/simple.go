package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no content are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with page descriptions and statistics.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the analysis in human-readable format.
func (w *SimpleWriter) Write(analysis *model.Analysis) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, analysis)
	w.writePlan(&sb, analysis)
	w.writePages(&sb, analysis)
	w.writeReport(&sb, analysis)
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func (w *SimpleWriter) section(sb *strings.Builder, title string) {
	w.rule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	w.rule(sb, "-")
	sb.WriteString("\n")
}

// writeHeader writes the report header with analysis information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, a *model.Analysis) {
	ok, failed := a.FetchSummary()

	sb.WriteString("\n")
	w.rule(sb, "=")
	sb.WriteString("                        INTELLIGENCE REPORT\n")
	w.rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Analysis:   %s\n", a.ID)
	if a.Goal != "" {
		fmt.Fprintf(sb, "Goal:       %s\n", a.Goal)
	}
	fmt.Fprintf(sb, "Kind:       %s\n", a.Kind)
	fmt.Fprintf(sb, "Fetch Mode: %s\n", a.FetchMode)
	fmt.Fprintf(sb, "Started:    %s\n", a.CreatedAt.Format(dateLayout))
	fmt.Fprintf(sb, "Pages:      %d fetched, %d failed\n", ok, failed)
	fmt.Fprintf(sb, "Status:     %s\n", statusText(a))
	sb.WriteString("\n")
}

// writePlan writes the planner's decision.
func (w *SimpleWriter) writePlan(sb *strings.Builder, a *model.Analysis) {
	if a.Plan == nil {
		return
	}
	w.section(sb, "PLAN")
	fmt.Fprintf(sb, "  Mode: %s\n", a.Plan.Mode)
	for _, u := range a.Plan.URLs {
		fmt.Fprintf(sb, "  [+] %s\n", u)
	}
	sb.WriteString("\n")
}

// writePages writes one entry per page record.
func (w *SimpleWriter) writePages(sb *strings.Builder, a *model.Analysis) {
	if len(a.Pages) == 0 && !w.showEmpty {
		return
	}
	w.section(sb, "PAGES")

	if len(a.Pages) == 0 {
		sb.WriteString("  No pages fetched\n\n")
		return
	}

	for i, p := range a.Pages {
		if p.Failed() {
			fmt.Fprintf(sb, "  [%d] FAILED %s\n", i+1, p.URL)
			fmt.Fprintf(sb, "      Error: %s\n", p.Error)
			continue
		}
		fmt.Fprintf(sb, "  [%d] %s\n", i+1, p.Title)
		fmt.Fprintf(sb, "      URL: %s\n", p.URL)
		if w.verbose {
			if p.Description != "" {
				fmt.Fprintf(sb, "      Description: %s\n", p.Description)
			}
			if p.Stats != nil {
				fmt.Fprintf(sb, "      Words: %d  Headings: %d  Links: %d  Images: %d  Quality: %s\n",
					p.Stats.WordCount, p.Stats.HeadingCount, p.Stats.LinkCount, p.Stats.ImageCount, p.Stats.Quality())
			}
		}
	}
	sb.WriteString("\n")
}

// writeReport writes the cited report Markdown.
func (w *SimpleWriter) writeReport(sb *strings.Builder, a *model.Analysis) {
	if a.Report == nil {
		if w.showEmpty {
			w.section(sb, "REPORT")
			sb.WriteString("  No report synthesized\n\n")
		}
		return
	}
	w.section(sb, "REPORT")
	sb.WriteString(strings.TrimSpace(a.Report.Markdown))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	w.rule(sb, "=")
	sb.WriteString("Report generated by intelscan\n")
	sb.WriteString("https://github.com/nao1215/intelscan\n")
	w.rule(sb, "=")
}
