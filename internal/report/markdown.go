package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/intelscan/internal/model"
)

// MarkdownWriter outputs analyses in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the analysis in Markdown format.
func (w *MarkdownWriter) Write(analysis *model.Analysis) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, analysis)
	w.writeFetchSummary(md, analysis)
	w.writePlan(md, analysis)
	w.writeReport(md, analysis)
	w.writePages(md, analysis)
	w.writeGroups(md, analysis)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and the analysis properties.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, a *model.Analysis) {
	md.H1("Intelligence Report")
	md.PlainText("")

	rows := [][]string{
		{"Analysis", "`" + a.ID + "`"},
		{"Kind", string(a.Kind)},
	}
	if a.Goal != "" {
		rows = append(rows, []string{"Goal", a.Goal})
	}
	rows = append(rows,
		[]string{"Fetch Mode", string(a.FetchMode)},
		[]string{"Started", a.CreatedAt.Format(dateLayout)},
		[]string{"Status", statusText(a)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFetchSummary writes the page counts, a quality chart and an alert.
func (w *MarkdownWriter) writeFetchSummary(md *markdown.Markdown, a *model.Analysis) {
	ok, failed := a.FetchSummary()

	md.H2("Fetch Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Pages"},
		Rows: [][]string{
			{"Fetched", strconv.Itoa(ok)},
			{"Failed", strconv.Itoa(failed)},
			{"**Total**", "**" + strconv.Itoa(ok+failed) + "**"},
		},
	})
	md.PlainText("")

	if counts := qualityCounts(a); len(counts) > 0 {
		w.writePieChart(md, counts)
	}

	switch {
	case !a.Succeeded():
		md.Cautionf("The analysis stopped with an error: %s", a.ErrorMessage)
	case ok == 0 && failed > 0:
		md.Warningf("None of the %d page(s) could be fetched.", failed)
	case failed > 0:
		md.Importantf("%d of %d page(s) could not be fetched.", failed, ok+failed)
	default:
		md.Tip("All pages were fetched.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of content quality.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts map[string]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Content Quality"),
		piechart.WithShowData(true),
	)

	for _, q := range []string{model.QualityHigh, model.QualityMedium, model.QualityLow} {
		if counts[q] > 0 {
			chart.LabelAndIntValue(q, uint64(counts[q])) //nolint:gosec // counts are non-negative
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writePlan writes the planner's decision for auto analyses.
func (w *MarkdownWriter) writePlan(md *markdown.Markdown, a *model.Analysis) {
	if a.Plan == nil {
		return
	}
	md.H2("Plan")
	md.PlainText("")
	md.PlainTextf("Mode: **%s**", a.Plan.Mode)
	md.PlainText("")
	md.BulletList(a.Plan.URLs...)
	md.PlainText("")
}

// writeReport writes the cited report body.
func (w *MarkdownWriter) writeReport(md *markdown.Markdown, a *model.Analysis) {
	if a.Report == nil {
		return
	}
	md.H2("Report")
	md.PlainText("")
	md.PlainText(a.Report.Markdown)
	md.PlainText("")
}

// writePages writes a table of every page record.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, a *model.Analysis) {
	md.H2("Pages")
	md.PlainText("")

	if len(a.Pages) == 0 {
		md.PlainText("No pages were fetched.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(a.Pages))
	for i, p := range a.Pages {
		words, quality, status := "-", "-", "ok"
		if p.Stats != nil {
			words = strconv.Itoa(p.Stats.WordCount)
			quality = p.Stats.Quality()
		}
		if p.Failed() {
			status = truncateString(p.Error, 60)
		}
		title := p.Title
		if title == "" {
			title = "-"
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			truncateString(title, 40),
			truncateString(p.URL, 60),
			words,
			quality,
			status,
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"#", "Title", "URL", "Words", "Quality", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, p := range a.Pages {
		if p.Description != "" {
			md.Details(p.URL, p.Description)
		}
	}
	md.PlainText("")
}

// writeGroups lists the pages discovered from each crawl seed.
func (w *MarkdownWriter) writeGroups(md *markdown.Markdown, a *model.Analysis) {
	if len(a.Groups) == 0 {
		return
	}
	md.H2("Crawl Groups")
	md.PlainText("")
	for _, g := range a.Groups {
		md.PlainTextf("**%s** (%d page(s))", g.StartingURL, len(g.Pages))
		md.PlainText("")
		if seed := g.Seed(); seed.Failed() {
			md.PlainTextf("Seed fetch failed: %s", seed.Error)
			md.PlainText("")
			continue
		}
		urls := make([]string, 0, len(g.Pages))
		for _, p := range g.Discovered() {
			urls = append(urls, p.URL)
		}
		if len(urls) == 0 {
			md.PlainText("No links discovered.")
		} else {
			md.BulletList(urls...)
		}
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [intelscan](https://github.com/nao1215/intelscan)*")
}
