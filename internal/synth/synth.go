package synth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/intelscan/internal/llm"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/prompt"
)

// Synthesizer writes reports and answers questions with the language model.
type Synthesizer struct {
	provider       llm.Provider
	templates      *prompt.Templates
	now            func() time.Time
	language       string
	perSourceLimit int
	budget         int
	logger         *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithTemplates sets the prompt templates.
func WithTemplates(t *prompt.Templates) Option {
	return func(s *Synthesizer) {
		if t != nil {
			s.templates = t
		}
	}
}

// WithNow sets the function that supplies the date substituted into prompts.
func WithNow(now func() time.Time) Option {
	return func(s *Synthesizer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLanguage sets the report language as a BCP 47 tag or language name.
func WithLanguage(lang string) Option {
	return func(s *Synthesizer) {
		if lang != "" {
			s.language = lang
		}
	}
}

// WithPerSourceLimit sets the character ceiling for one source.
func WithPerSourceLimit(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.perSourceLimit = n
		}
	}
}

// WithBudget sets the combined document budget from a token budget.
func WithBudget(contextTokens, reserveTokens, charsPerToken int) Option {
	return func(s *Synthesizer) {
		if b := CharBudget(contextTokens, reserveTokens, charsPerToken); b > 0 {
			s.budget = b
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Synthesizer that writes through provider.
func New(provider llm.Provider, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		provider:       provider,
		templates:      prompt.Default(),
		now:            time.Now,
		language:       DefaultLanguage,
		perSourceLimit: DefaultPerSourceLimit,
		budget:         DefaultBudget,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize asks the model for a cited Markdown report on goal, based on
// the pages that carry content. The report cites sources as "[source N]".
//
// An empty goal or a page list without content is a *model.ValidationError.
// Provider failures are returned wrapped.
func (s *Synthesizer) Synthesize(ctx context.Context, goal string, pages []model.PageRecord) (string, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return "", &model.ValidationError{Field: "goal", Reason: "must not be empty"}
	}
	sources := model.NumberSources(pages)
	if len(sources) == 0 {
		return "", &model.ValidationError{Field: "pages", Reason: "no page has usable content"}
	}

	text, err := s.templates.Synthesis(prompt.SynthesisData{
		Goal:        goal,
		Date:        prompt.FormatDate(s.now()),
		Language:    LanguageName(s.language),
		SourceCount: len(sources),
		Documents:   BuildSourceDocument(sources, s.perSourceLimit, s.budget),
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("requesting report synthesis", "sources", len(sources), "prompt_chars", len(text))
	report, err := s.provider.Generate(ctx, []llm.Message{
		llm.System(prompt.SynthesisSystem),
		llm.User(text),
	})
	if err != nil {
		return "", fmt.Errorf("failed to synthesize report: %w", err)
	}
	return report, nil
}

// Answer asks the model to address question using markdown as context.
// Markdown longer than the document budget is truncated.
func (s *Synthesizer) Answer(ctx context.Context, markdown, question string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", &model.ValidationError{Field: "markdown", Reason: "must not be empty"}
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", &model.ValidationError{Field: "question", Reason: "must not be empty"}
	}

	text, err := s.templates.Answer(prompt.AnswerData{
		Markdown: truncate(markdown, s.budget, "\n\n"+TruncationMarker),
		Question: question,
	})
	if err != nil {
		return "", err
	}

	answer, err := s.provider.Generate(ctx, []llm.Message{
		llm.System(prompt.AnswerSystem),
		llm.User(text),
	})
	if err != nil {
		return "", fmt.Errorf("failed to answer question: %w", err)
	}
	return answer, nil
}
