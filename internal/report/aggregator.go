package report

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/themecheck/internal/model"
)

// Aggregator accumulates validated themes into one destination report.
// Add and Skip may be called from any goroutine; Seal ends the run.
type Aggregator struct {
	mu sync.Mutex

	name      string
	id        string
	policy    model.ValidationPolicy
	startedAt time.Time

	themes  []positioned
	skipped []string
	sealed  *model.DestinationReport
}

// positioned is a theme with its index in the destination input
type positioned struct {
	pos   int
	theme model.ValidatedTheme
}

// NewAggregator starts a report for one destination
func NewAggregator(name, id string, policy model.ValidationPolicy, startedAt time.Time) *Aggregator {
	return &Aggregator{
		name:      name,
		id:        id,
		policy:    policy,
		startedAt: startedAt,
	}
}

// Add merges one validated theme. position is the theme's index in the
// destination input and orders themes sharing a name and category.
// Add fails once the report is sealed.
func (a *Aggregator) Add(position int, theme model.ValidatedTheme) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed != nil {
		return fmt.Errorf("add theme %q: %w", theme.Theme, model.ErrReportSealed)
	}
	a.themes = append(a.themes, positioned{pos: position, theme: theme})
	return nil
}

// Skip counts a theme that could not be validated at all
func (a *Aggregator) Skip(reason string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed != nil {
		return fmt.Errorf("skip theme: %w", model.ErrReportSealed)
	}
	a.skipped = append(a.skipped, reason)
	return nil
}

// Seal computes the report. Later calls return an equal report; every
// returned report is an independent copy.
func (a *Aggregator) Seal(completedAt time.Time) model.DestinationReport {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sealed != nil {
		return a.sealed.Clone()
	}

	entries := append([]positioned(nil), a.themes...)
	sort.Slice(entries, func(i, j int) bool {
		x, y := entries[i], entries[j]
		if x.theme.Theme != y.theme.Theme {
			return x.theme.Theme < y.theme.Theme
		}
		if x.theme.Category != y.theme.Category {
			return x.theme.Category < y.theme.Category
		}
		return x.pos < y.pos
	})
	themes := make([]model.ValidatedTheme, len(entries))
	for i, e := range entries {
		themes[i] = e.theme.Clone()
	}

	r := model.DestinationReport{
		DestinationName:     a.name,
		DestinationID:       a.id,
		TotalThemesAnalyzed: len(themes),
		ThemesSkipped:       len(a.skipped),
		StatusDistribution:  make(map[model.ValidationStatus]int),
		QualityDistribution: make(map[model.QualityTier]int),
		SourceDistribution:  make(map[model.SourceType]int),
		ThemeEvidence:       make([]model.ThemeEvidenceSet, 0, len(themes)),
		Themes:              make([]model.ValidatedTheme, 0, len(themes)),
		StartedAt:           a.startedAt,
		Config:              a.policy,
	}
	for _, s := range model.AllValidationStatuses() {
		r.StatusDistribution[s] = 0
	}
	for _, q := range model.AllQualityTiers() {
		r.QualityDistribution[q] = 0
	}
	for _, t := range model.AllSourceTypes() {
		r.SourceDistribution[t] = 0
	}

	domains := make(map[string]struct{})
	var authoritySum float64

	for _, theme := range themes {
		r.StatusDistribution[theme.Status]++
		if theme.Status == model.StatusValidated {
			r.ThemesValidated++
		}

		if theme.Evidence != nil {
			set := *theme.Evidence
			for _, item := range set.Evidence {
				r.QualityDistribution[item.Quality]++
				r.SourceDistribution[item.SourceType]++
				domains[item.Domain] = struct{}{}
				authoritySum += item.AuthorityScore
			}
			r.TotalEvidencePieces += len(set.Evidence)
			r.ThemeEvidence = append(r.ThemeEvidence, set)
		}

		theme.Evidence = nil
		r.Themes = append(r.Themes, theme)
	}

	r.ThemesRejected = r.TotalThemesAnalyzed - r.ThemesValidated
	r.UniqueSourcesUsed = len(domains)
	if r.TotalThemesAnalyzed > 0 {
		r.ValidationSuccessRate = float64(r.ThemesValidated) / float64(r.TotalThemesAnalyzed)
	}
	if r.TotalEvidencePieces > 0 {
		r.AverageEvidenceQuality = authoritySum / float64(r.TotalEvidencePieces)
	}

	r.Recommendations = Recommendations(r)

	completed := completedAt
	r.CompletedAt = &completed
	elapsed := completedAt.Sub(a.startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	r.ProcessingTime = &elapsed

	a.sealed = &r
	return r.Clone()
}
