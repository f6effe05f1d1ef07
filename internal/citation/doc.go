// Package citation turns the source markers of a synthesized report into
// links.
//
// The synthesizer asks the model to cite pages as "[source N]", where N is the
// number assigned by model.NumberSources. Resolve replaces every marker that
// names a known page with a Markdown link, records the mapping, appends a
// list of the cited sources and renders the result to sanitized HTML.
//
// Resolve accepts its own output: links it produced earlier are recognized
// and the appended source list is replaced, so running it twice yields the
// same SourceMap.
package citation
