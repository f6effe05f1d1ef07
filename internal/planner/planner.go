package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nao1215/intelscan/internal/llm"
	"github.com/nao1215/intelscan/internal/model"
	"github.com/nao1215/intelscan/internal/prompt"
)

// ErrInvalidPlan is wrapped by every error caused by unusable model output.
var ErrInvalidPlan = errors.New("planner returned invalid output")

// temperature keeps plans close to deterministic.
const temperature = 0.2

// Planner produces fetch plans.
type Planner struct {
	provider  llm.Provider
	templates *prompt.Templates
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithTemplates sets the prompt templates.
func WithTemplates(t *prompt.Templates) Option {
	return func(p *Planner) {
		if t != nil {
			p.templates = t
		}
	}
}

// WithNow sets the function that supplies the date substituted into the prompt.
func WithNow(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Planner that asks provider for plans.
func New(provider llm.Provider, opts ...Option) *Planner {
	p := &Planner{
		provider:  provider,
		templates: prompt.Default(),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// rawPlan is the JSON shape requested from the model.
type rawPlan struct {
	Mode *string   `json:"mode"`
	URLs *[]string `json:"urls"`
}

// Plan sends one completion request and returns the validated plan.
//
// An empty goal is a *model.ValidationError and no request is sent. Output
// that is not a JSON object with a valid mode and 1 to 5 valid URLs is a
// *model.UpstreamError wrapping ErrInvalidPlan.
func (p *Planner) Plan(ctx context.Context, goal string) (model.Plan, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return model.Plan{}, &model.ValidationError{Field: "goal", Reason: "must not be empty"}
	}

	text, err := p.templates.Plan(prompt.PlanData{Goal: goal, Date: prompt.FormatDate(p.now())})
	if err != nil {
		return model.Plan{}, err
	}

	out, err := p.provider.Generate(ctx, []llm.Message{llm.System(text)},
		llm.WithJSONResponse(), llm.WithTemperature(temperature))
	if err != nil {
		return model.Plan{}, fmt.Errorf("failed to get plan: %w", err)
	}

	plan, err := ParsePlan(out)
	if err != nil {
		p.logger.Warn("planner output rejected", "error", err)
		return model.Plan{}, err
	}

	p.logger.Debug("plan accepted", "mode", plan.Mode, "urls", len(plan.URLs))
	return plan, nil
}

// ParsePlan decodes and validates model output. A single Markdown code fence
// around the JSON object is tolerated; anything else must be the object alone.
func ParsePlan(out string) (model.Plan, error) {
	body := stripFence(strings.TrimSpace(out))

	var raw rawPlan
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return model.Plan{}, invalid("output is not a JSON object", err)
	}
	if dec.More() {
		return model.Plan{}, invalid("unexpected text after JSON object", nil)
	}
	if raw.Mode == nil || *raw.Mode == "" {
		return model.Plan{}, invalid("mode is missing", nil)
	}
	if raw.URLs == nil || len(*raw.URLs) == 0 {
		return model.Plan{}, invalid("urls are missing", nil)
	}

	urls := make([]string, len(*raw.URLs))
	for i, u := range *raw.URLs {
		urls[i] = strings.TrimSpace(u)
	}
	plan := model.Plan{Mode: model.FetchMode(strings.ToLower(strings.TrimSpace(*raw.Mode))), URLs: urls}
	if err := plan.Validate(); err != nil {
		return model.Plan{}, invalid(err.Error(), nil)
	}
	return plan, nil
}

func invalid(reason string, cause error) error {
	err := ErrInvalidPlan
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidPlan, cause)
	}
	return &model.UpstreamError{Service: "llm", Op: "plan", Message: reason, Err: err}
}

// stripFence removes one Markdown code fence wrapping s, if present.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(s, "```")
	nl := strings.IndexByte(inner, '\n')
	if nl < 0 {
		return s
	}
	return strings.TrimSpace(inner[nl+1:])
}
