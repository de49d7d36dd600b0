package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/model"
	"github.com/ppiankov/themecheck/internal/report"
	"github.com/ppiankov/themecheck/internal/score"
	"github.com/ppiankov/themecheck/internal/similarity"
	"github.com/ppiankov/themecheck/internal/validate"
	"github.com/ppiankov/themecheck/internal/worker"
)

// Pipeline orchestrates validation of one destination at a time
type Pipeline struct {
	policy     model.ValidationPolicy
	scorer     *score.EvidenceScorer
	engine     *validate.Engine
	adjuster   *score.ConfidenceAdjuster
	renderer   *Renderer
	similarity *similarity.Service // Optional enricher (nil if disabled)
	metrics    *metrics.Metrics
	logger     *slog.Logger
	workers    int
	now        func() time.Time
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithSimilarity enables similarity enrichment before validation
func WithSimilarity(s *similarity.Service) Option {
	return func(p *Pipeline) { p.similarity = s }
}

// WithMetrics records theme and destination outcomes
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock overrides the timestamp source. Timestamps never feed any score.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithRenderer overrides the default renderer
func WithRenderer(r *Renderer) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.renderer = r
		}
	}
}

// NewPipeline creates a pipeline for the given configuration. An invalid
// policy aborts construction before any theme is touched.
func NewPipeline(cfg *model.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		policy:   cfg.Policy,
		renderer: NewRenderer(cfg.Output.IncludeFooter),
		logger:   slog.Default(),
		workers:  cfg.Concurrency.ThemeWorkers,
		now:      func() time.Time { return time.Now().UTC() },
	}

	var classifier *validate.SourceClassifier
	if cfg.Sources.ClassifyUntagged {
		classifier = validate.NewSourceClassifier(cfg.Sources.DomainMap())
	}

	p.scorer = score.NewEvidenceScorer(&p.policy, classifier)
	p.engine = validate.NewEngine(&p.policy)
	p.adjuster = score.NewConfidenceAdjuster(&p.policy)

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Policy returns the policy the pipeline validates with
func (p *Pipeline) Policy() model.ValidationPolicy {
	return p.policy
}

// ValidateTheme scores, curates and evaluates one theme and adjusts its
// confidence. Records that cannot be scored become malformed rejections.
func (p *Pipeline) ValidateTheme(destination string, theme model.ThemeInput) model.ValidatedTheme {
	items := make([]model.EvidenceItem, 0, len(theme.Evidence))
	var malformed []model.Rejection

	for i, raw := range theme.Evidence {
		item, err := p.scorer.Score(raw, destination, theme.Keywords, i)
		if err != nil {
			malformed = append(malformed, model.Rejection{
				EvidenceID: strings.TrimSpace(raw.ID),
				SourceURL:  strings.TrimSpace(raw.SourceURL),
				Reason:     model.RejectMalformed,
				Detail:     err.Error(),
			})
			continue
		}
		items = append(items, item)
	}

	set := p.engine.Validate(theme.Name, theme.Category, items, malformed)
	return p.adjuster.Adjust(theme, set)
}

// themeResult carries one validated theme out of the worker pool
type themeResult struct {
	pos   int
	theme model.ValidatedTheme
}

func (r *themeResult) GetError() error {
	return nil
}

// ValidateDestination validates every theme of the input in parallel and
// seals the destination report
func (p *Pipeline) ValidateDestination(ctx context.Context, input model.DestinationInput) (*model.DestinationReport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.WrapError(model.ErrInvalidInput, "validate destination", fmt.Errorf("missing destination name"))
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("validate destination %s: %w", name, err)
	}

	started := p.now()
	logger := p.logger.With("destination", name)

	if p.similarity != nil && p.policy.EnableSemanticValidation {
		input = p.similarity.Enrich(ctx, input)
	}

	agg := report.NewAggregator(name, input.DestinationID(), p.policy, started)

	jobs := make([]worker.Job, 0, len(input.Themes))
	for i, theme := range input.Themes {
		if reason := skipReason(theme); reason != "" {
			logger.Warn("theme_skipped", "theme", theme.Name, "reason", reason)
			if err := agg.Skip(reason); err != nil {
				return nil, err
			}
			continue
		}

		jobs = append(jobs, worker.JobFunc(func(ctx context.Context) worker.Result {
			return &themeResult{pos: i, theme: p.ValidateTheme(name, theme)}
		}))
	}

	pool := worker.NewPoolWithContext(ctx, p.workers)
	pool.Start()
	defer pool.Shutdown()

	validated := 0
	for result := range pool.Process(jobs) {
		tr := result.(*themeResult)
		if err := agg.Add(tr.pos, tr.theme); err != nil {
			return nil, err
		}
		p.metrics.RecordTheme(tr.theme)
		validated++

		logger.Debug("theme_validated",
			"theme", tr.theme.Theme,
			"status", tr.theme.Status,
			"evidence", len(tr.theme.Evidence.Evidence),
			"adjustment", tr.theme.Adjustment,
		)
	}

	if err := ctx.Err(); err != nil && validated < len(jobs) {
		return nil, fmt.Errorf("validate destination %s: %w", name, err)
	}

	completed := p.now()
	r := agg.Seal(completed)
	p.metrics.RecordDestination(completed.Sub(started))

	logger.Info("destination_validated",
		"themes", r.TotalThemesAnalyzed,
		"validated", r.ThemesValidated,
		"rejected", r.ThemesRejected,
		"skipped", r.ThemesSkipped,
		"evidence", r.TotalEvidencePieces,
	)

	return &r, nil
}

// ValidateFile loads a destination input file and validates it
func (p *Pipeline) ValidateFile(ctx context.Context, path string) (*model.DestinationReport, error) {
	input, err := LoadInput(path)
	if err != nil {
		return nil, err
	}
	return p.ValidateDestination(ctx, input)
}

// skipReason explains why a theme cannot be validated, or returns ""
func skipReason(theme model.ThemeInput) string {
	switch {
	case strings.TrimSpace(theme.Name) == "":
		return "missing theme name"
	case theme.Confidence == nil:
		return fmt.Sprintf("theme %q has no initial confidence", theme.Name)
	default:
		return ""
	}
}

// RenderReport renders the report to the specified outputs
func (p *Pipeline) RenderReport(r *model.DestinationReport, jsonPath string, mdPath string, verbose bool) error {
	// Render JSON
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(r, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	// Render Markdown
	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(r, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// Print summary to stdout
	p.renderer.RenderSummary(r)

	return nil
}
