package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/render"
)

// SourcesHeading is the heading of the appended source list.
const SourcesHeading = "## Sources"

var (
	// markerPattern matches "[source 2]", "[Source 1, 3]" and "[sources 1; source 4]".
	markerPattern = regexp.MustCompile(`(?i)\[\s*sources?\s*(\d+(?:\s*[,;]\s*(?:sources?\s*)?\d+)*)\s*\]`)
	// linkPattern matches a marker that was already resolved to a link.
	linkPattern   = regexp.MustCompile(`\[\[(\d+)\]\]\(([^)\s]+)\)`)
	numberPattern = regexp.MustCompile(`\d+`)

	fencePattern      = regexp.MustCompile("(?s)^\\s*(```|~~~)[A-Za-z0-9_-]*[ \\t]*\\n(.*?)\\n?[ \\t]*(```|~~~)\\s*$")
	listItemPattern   = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	sourceRefPattern  = regexp.MustCompile(`(?i)\[\s*(?:source\s*)?\d+\s*\]`)
	leadingRefPattern = regexp.MustCompile(`(?i)^(?:(?:[-*+]|\d+[.)])\s+)?(?:\[\s*(?:source\s*)?\d+\s*\]|[a-z][a-z0-9+.-]*://)`)
	headingPattern    = regexp.MustCompile(`(?i)^(?:#{1,6}\s*|\*\*)\s*(references?|sources?|citations?|bibliography|works cited|参考(?:资料|文献|来源)?|来源|引用)\s*:?\s*(?:\*\*)?\s*:?$`)
	rulePattern       = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
)

// Resolve replaces the source markers of a report with links to the cited
// pages and renders the result.
// Markers whose number does not name a page with a URL are left as written.
func Resolve(reportMarkdown string, pages []model.PageRecord) (model.SynthesizedReport, error) {
	urls := make(map[int]string)
	titles := make(map[int]string)
	for _, src := range model.NumberSources(pages) {
		if src.Page.URL == "" {
			continue
		}
		urls[src.Index] = src.Page.URL
		titles[src.Index] = src.Page.Title
	}

	body := StripTrailingReferences(StripFence(reportMarkdown))
	sourceMap := make(map[int]string)

	body = markerPattern.ReplaceAllStringFunc(body, func(marker string) string {
		var pieces []string
		resolved := false
		for _, num := range numberPattern.FindAllString(marker, -1) {
			n, err := strconv.Atoi(num)
			if err != nil {
				continue
			}
			u, ok := urls[n]
			if !ok {
				pieces = append(pieces, "[source "+num+"]")
				continue
			}
			resolved = true
			sourceMap[n] = u
			pieces = append(pieces, link(n, u))
		}
		if !resolved {
			return marker
		}
		return strings.Join(pieces, " ")
	})

	for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if u, ok := urls[n]; ok && escapeURL(u) == m[2] {
			sourceMap[n] = u
		}
	}

	if len(sourceMap) > 0 {
		body = strings.TrimRight(body, "\n") + "\n\n" + sourceList(sourceMap, titles)
	}

	html, err := render.SafeHTML(body)
	if err != nil {
		return model.SynthesizedReport{}, fmt.Errorf("failed to render report: %w", err)
	}
	return model.SynthesizedReport{
		Markdown:  body,
		HTML:      html,
		SourceMap: sourceMap,
	}, nil
}

// StripFence removes a code fence wrapping the whole report.
func StripFence(md string) string {
	m := fencePattern.FindStringSubmatch(md)
	if m == nil || m[1] != m[3] {
		return md
	}
	// Inner fences mean the report starts and ends with separate code blocks.
	if strings.HasPrefix(m[2], m[1]) || strings.Contains(m[2], "\n"+m[1]) {
		return md
	}
	return m[2]
}

// StripTrailingReferences removes a reference section the model appended
// despite being told not to. The section is recognized as a references
// heading or a horizontal rule followed only by source-definition lines.
func StripTrailingReferences(md string) string {
	lines := strings.Split(strings.TrimRight(md, " \t\n"), "\n")

	i := len(lines) - 1
	definitions, leading := 0, 0
	for ; i >= 0; i-- {
		l := strings.TrimSpace(lines[i])
		if l == "" {
			continue
		}
		if !isDefinitionLine(l) {
			break
		}
		definitions++
		if leadingRefPattern.MatchString(l) {
			leading++
		}
	}
	if i < 0 {
		return md
	}

	head := strings.TrimSpace(lines[i])
	switch {
	case headingPattern.MatchString(head):
		// A rule directly above the heading belongs to the section.
		if j := previousNonBlank(lines, i); j >= 0 && rulePattern.MatchString(strings.TrimSpace(lines[j])) {
			i = j
		}
	// Below a bare rule every line must start with its reference, otherwise
	// a closing bullet list that cites sources would be taken for one.
	case rulePattern.MatchString(head) && definitions > 0 && leading == definitions:
	default:
		return md
	}
	return strings.TrimRight(strings.Join(lines[:i], "\n"), " \t\n")
}

func isDefinitionLine(l string) bool {
	if !listItemPattern.MatchString(l) && !strings.HasPrefix(l, "[") {
		return false
	}
	return strings.Contains(l, "://") || sourceRefPattern.MatchString(l)
}

func previousNonBlank(lines []string, i int) int {
	for j := i - 1; j >= 0; j-- {
		if strings.TrimSpace(lines[j]) != "" {
			return j
		}
	}
	return -1
}

func link(n int, u string) string {
	return fmt.Sprintf("[[%d]](%s)", n, escapeURL(u))
}

// escapeURL encodes the characters that would end a Markdown link destination.
func escapeURL(u string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(u)
}

// sourceList renders the cited sources in numeric order. URLs are written as
// code spans so that every link in the report is an in-text citation.
func sourceList(sourceMap map[int]string, titles map[int]string) string {
	nums := make([]int, 0, len(sourceMap))
	for n := range sourceMap {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var b strings.Builder
	b.WriteString(SourcesHeading)
	b.WriteString("\n\n")
	for _, n := range nums {
		title := titles[n]
		if title == "" {
			title = model.UntitledPage
		}
		fmt.Fprintf(&b, "- [%d] %s: `%s`\n", n, escapeText(title), sourceMap[n])
	}
	return b.String()
}

func escapeText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`, "`", "'", "\n", " ").Replace(s)
}
