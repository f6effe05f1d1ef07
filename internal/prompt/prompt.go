package prompt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var defaultFS embed.FS

// Template file names. A directory passed to Load may contain any subset.
const (
	PlanFile      = "plan.tmpl"
	SynthesisFile = "synthesis.tmpl"
	AnswerFile    = "answer.tmpl"
)

// DateLayout is the format of the date substituted into prompts.
const DateLayout = "2006-01-02"

// System prompts that accompany the rendered templates.
const (
	SynthesisSystem = "You are a meticulous intelligence analyst. You write accurate, well-structured reports and cite every claim."
	AnswerSystem    = "You are an assistant that processes provided Markdown text based on a user's specific prompt."
)

// Templates is a set of parsed prompt templates.
type Templates struct {
	plan      *template.Template
	synthesis *template.Template
	answer    *template.Template
}

// PlanData is the input of the plan template.
type PlanData struct {
	Goal string
	Date string
}

// SynthesisData is the input of the synthesis template.
type SynthesisData struct {
	Goal        string
	Date        string
	Language    string
	SourceCount int
	Documents   string
}

// AnswerData is the input of the answer template.
type AnswerData struct {
	Markdown string
	Question string
}

// Default returns the embedded templates.
func Default() *Templates {
	t, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("embedded prompt templates are invalid: %v", err))
	}
	return t
}

// Load parses the embedded templates, replacing each one with the file of the
// same name in dir when it exists. An empty dir uses the embedded set only.
func Load(dir string) (*Templates, error) {
	plan, err := load(dir, PlanFile)
	if err != nil {
		return nil, err
	}
	synthesis, err := load(dir, SynthesisFile)
	if err != nil {
		return nil, err
	}
	answer, err := load(dir, AnswerFile)
	if err != nil {
		return nil, err
	}
	return &Templates{plan: plan, synthesis: synthesis, answer: answer}, nil
}

func load(dir, name string) (*template.Template, error) {
	var (
		data []byte
		err  error
	)
	if dir != "" {
		data, err = os.ReadFile(filepath.Join(dir, name)) //nolint:gosec // user-selected template directory
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read prompt template %s: %w", name, err)
		}
	}
	if data == nil {
		data, err = defaultFS.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt template %s: %w", name, err)
		}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

// FormatDate formats t the way prompts expect.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Plan renders the planner prompt.
func (t *Templates) Plan(data PlanData) (string, error) {
	return execute(t.plan, data)
}

// Synthesis renders the report synthesis prompt.
func (t *Templates) Synthesis(data SynthesisData) (string, error) {
	return execute(t.synthesis, data)
}

// Answer renders the question-answering prompt.
func (t *Templates) Answer(data AnswerData) (string, error) {
	return execute(t.answer, data)
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
