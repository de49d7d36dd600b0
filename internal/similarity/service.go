package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ppiankov/themecheck/internal/cache"
	"github.com/ppiankov/themecheck/internal/metrics"
	"github.com/ppiankov/themecheck/internal/model"
	"github.com/ppiankov/themecheck/internal/resilience"
)

// Service fills in missing semantic similarity values before validation
type Service struct {
	embedder Embedder
	vectors  *cache.VectorCache
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewService creates a service. vectors and m may be nil.
func NewService(embedder Embedder, vectors *cache.VectorCache, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		embedder: embedder,
		vectors:  vectors,
		metrics:  m,
		logger:   logger,
	}
}

// Enrich returns a copy of input where every evidence record lacking a
// similarity value carries the cosine similarity between the theme
// description and the record text, clamped to [0,1]. Failures leave the
// value unset and are logged; the input itself is never modified.
func (s *Service) Enrich(ctx context.Context, input model.DestinationInput) model.DestinationInput {
	out := input
	out.Themes = make([]model.ThemeInput, len(input.Themes))

	for i, theme := range input.Themes {
		theme.Evidence = append([]model.RawEvidence(nil), theme.Evidence...)
		out.Themes[i] = theme

		var pending []int
		for j, ev := range theme.Evidence {
			if ev.SemanticSimilarity == nil && strings.TrimSpace(ev.Text) != "" {
				pending = append(pending, j)
			}
		}
		if len(pending) == 0 {
			continue
		}

		texts := make([]string, 0, len(pending)+1)
		texts = append(texts, ThemeDescription(theme))
		for _, j := range pending {
			texts = append(texts, theme.Evidence[j].Text)
		}

		vectors, err := s.embed(ctx, texts)
		if err != nil {
			s.logger.Warn("similarity_enrichment_failed",
				"destination", input.Name,
				"theme", theme.Name,
				"records", len(pending),
				"error", err,
			)
			continue
		}

		for k, j := range pending {
			v := clamp01(Cosine(vectors[0], vectors[k+1]))
			theme.Evidence[j].SemanticSimilarity = &v
		}
	}

	return out
}

// embed resolves vectors from the cache and embeds the rest in one request
func (s *Service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	modelName := s.embedder.Model()

	var missing []int
	for i, text := range texts {
		if s.vectors != nil {
			if vec, ok := s.vectors.Get(modelName, text); ok {
				vectors[i] = vec
				s.metrics.RecordSimilarity("hit")
				continue
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	batch := make([]string, len(missing))
	for k, i := range missing {
		batch[k] = texts[i]
	}

	embedded, err := s.embedder.Embed(ctx, batch)
	if err != nil {
		if resilience.IsCircuitOpen(err) {
			s.metrics.RecordSimilarity("circuit_open")
		} else {
			s.metrics.RecordSimilarity("error")
		}
		return nil, err
	}
	if len(embedded) != len(batch) {
		s.metrics.RecordSimilarity("error")
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(embedded), len(batch))
	}

	for k, i := range missing {
		vectors[i] = embedded[k]
		s.metrics.RecordSimilarity("miss")
		if s.vectors != nil {
			if err := s.vectors.Put(modelName, texts[i], embedded[k]); err != nil {
				s.logger.Debug("embedding_cache_write_failed", "error", err)
			}
		}
	}

	return vectors, nil
}

// ThemeDescription is the text embedded for a theme: its name followed by its keywords
func ThemeDescription(theme model.ThemeInput) string {
	parts := append([]string{theme.Name}, theme.Keywords...)
	return strings.Join(parts, " ")
}

// Cosine returns the cosine similarity of two vectors; 0 for empty,
// zero-norm or mismatched vectors
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
