// Package render turns scraped content and synthesized reports into other
// representations.
//
// Markdown is rendered to HTML with goldmark (GitHub Flavored Markdown) and
// the result can be passed through a bluemonday UGC policy before it is
// served to a browser. Stats walks the goldmark AST of a page to count its
// structural elements. For pages that only carry HTML, HTMLToMarkdown and
// ExtractMetadata recover the Markdown body and the head metadata.
package render
