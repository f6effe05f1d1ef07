package report

import (
	"html/template"
	"io"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/render"
)

// htmlTemplate is the standalone page written by HTMLWriter.
var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: .25rem .5rem; text-align: left; }
.failed { color: #a00; }
footer { margin-top: 3rem; color: #666; font-size: .9rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Analysis <code>{{.Analysis.ID}}</code> &middot; {{.Analysis.FetchMode}} &middot; {{.Started}} &middot; {{.Status}}</p>
{{if .Body}}<article>
{{.Body}}
</article>{{end}}
<h2>Pages</h2>
{{if .Analysis.Pages}}<table>
<tr><th>#</th><th>Title</th><th>URL</th><th>Words</th><th>Status</th></tr>
{{range $i, $p := .Analysis.Pages}}<tr{{if $p.Failed}} class="failed"{{end}}><td>{{inc $i}}</td><td>{{$p.Title}}</td><td><a href="{{$p.URL}}" rel="nofollow noopener">{{$p.URL}}</a></td><td>{{if $p.Stats}}{{$p.Stats.WordCount}}{{else}}-{{end}}</td><td>{{if $p.Failed}}{{$p.Error}}{{else}}ok{{end}}</td></tr>
{{end}}</table>{{else}}<p>No pages were fetched.</p>{{end}}
<footer>Generated by intelscan {{.Version}}</footer>
</body>
</html>
`))

// HTMLWriter outputs an analysis as a standalone HTML page.
// The report body is the sanitized HTML produced by citation resolution.
type HTMLWriter struct {
	baseWriter

	// version is the intelscan version shown in the footer.
	version string
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer, version string) *HTMLWriter {
	return &HTMLWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

type htmlPage struct {
	Title    string
	Started  string
	Status   string
	Version  string
	Body     template.HTML
	Analysis *model.Analysis
}

// Write outputs the analysis as HTML.
func (w *HTMLWriter) Write(analysis *model.Analysis) (int, error) {
	page := htmlPage{
		Title:    analysis.Title(),
		Started:  analysis.CreatedAt.Format(dateLayout),
		Status:   statusText(analysis),
		Version:  w.version,
		Analysis: analysis,
	}

	if r := analysis.Report; r != nil {
		body := r.HTML
		if body == "" {
			rendered, err := render.ToHTML(r.Markdown)
			if err != nil {
				return 0, err
			}
			body = rendered
		}
		// Report HTML always passes through the sanitizer before it is trusted.
		page.Body = template.HTML(render.Sanitize(body)) //nolint:gosec // sanitized by bluemonday
	}

	var sb strings.Builder
	if err := htmlTemplate.Execute(&sb, page); err != nil {
		return 0, err
	}
	return io.WriteString(w.output, sb.String())
}
