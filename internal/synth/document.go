package synth

import (
	"fmt"
	"strings"

	"github.com/nao1215/intelscan/internal/model"
)

const (
	// DefaultPerSourceLimit is the character ceiling for one source's content.
	DefaultPerSourceLimit = 10000

	// DefaultContextTokens is the assumed context window of the model.
	DefaultContextTokens = 128000

	// DefaultReserveTokens is the part of the context window kept free for
	// the prompt text and the model's answer.
	DefaultReserveTokens = 8000

	// DefaultCharsPerToken converts tokens to characters.
	DefaultCharsPerToken = 4

	// TruncationMarker is appended to content cut at the per-source ceiling.
	TruncationMarker = "[... content truncated ...]"

	// BudgetMarker is appended when the combined document exceeds the budget.
	BudgetMarker = "[... remaining sources truncated to fit the context budget ...]"
)

// CharBudget converts a token budget into a character budget.
// Non-positive results are clamped to zero.
func CharBudget(contextTokens, reserveTokens, charsPerToken int) int {
	budget := (contextTokens - reserveTokens) * charsPerToken
	if budget < 0 {
		return 0
	}
	return budget
}

// DefaultBudget is the character budget of the combined document.
var DefaultBudget = CharBudget(DefaultContextTokens, DefaultReserveTokens, DefaultCharsPerToken)

// BuildSourceDocument renders every source as a delimited block carrying
// its number, URL and title. Content longer than perSourceLimit characters
// is cut and marked with TruncationMarker. When the combined text is longer
// than budget characters it is cut once, as a whole, and marked with
// BudgetMarker. A non-positive limit or budget disables that cut.
func BuildSourceDocument(sources []model.Source, perSourceLimit, budget int) string {
	var b strings.Builder
	for i, s := range sources {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- SOURCE %d ---\n", s.Index)
		fmt.Fprintf(&b, "URL: %s\n", s.Page.URL)
		if s.Page.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", s.Page.Title)
		}
		b.WriteString("\n")
		b.WriteString(truncate(s.Page.RawMarkdown, perSourceLimit, "\n\n"+TruncationMarker))
	}

	return truncate(b.String(), budget, "\n\n"+BudgetMarker)
}

// truncate keeps the first limit characters of s and appends marker when
// s is longer than limit.
func truncate(s string, limit int, marker string) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + marker
}
