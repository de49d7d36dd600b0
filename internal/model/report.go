package model

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// DestinationInput is everything the engine needs to validate one destination
type DestinationInput struct {
	Name   string       `json:"destination_name" yaml:"destination_name"`
	ID     string       `json:"destination_id,omitempty" yaml:"destination_id,omitempty"`
	Themes []ThemeInput `json:"themes" yaml:"themes"`
}

// DestinationID returns the explicit identifier or one derived from the name
func (d DestinationInput) DestinationID() string {
	if id := strings.TrimSpace(d.ID); id != "" {
		return id
	}
	return DestinationIDFromName(d.Name)
}

// DestinationIDFromName derives a stable identifier ("Paris, France" -> "paris_france")
func DestinationIDFromName(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, ",", "")
	return strings.Join(strings.Fields(id), "_")
}

// DestinationReport is the sealed validation report for one destination
type DestinationReport struct {
	DestinationName string `json:"destination_name"`
	DestinationID   string `json:"destination_id"`

	TotalThemesAnalyzed   int     `json:"total_themes_analyzed"`
	ThemesValidated       int     `json:"themes_validated"`
	ThemesRejected        int     `json:"themes_rejected"`
	ThemesSkipped         int     `json:"themes_skipped"`
	ValidationSuccessRate float64 `json:"validation_success_rate"`

	TotalEvidencePieces    int     `json:"total_evidence_pieces"`
	UniqueSourcesUsed      int     `json:"unique_sources_used"`
	AverageEvidenceQuality float64 `json:"average_evidence_quality"`

	StatusDistribution  map[ValidationStatus]int `json:"status_distribution"`
	QualityDistribution map[QualityTier]int      `json:"evidence_quality_distribution"`
	SourceDistribution  map[SourceType]int       `json:"source_type_distribution"`

	ThemeEvidence   []ThemeEvidenceSet `json:"theme_evidence"`
	Themes          []ValidatedTheme   `json:"themes"`
	Recommendations []string           `json:"recommendations"`

	StartedAt      time.Time  `json:"validation_started_at"`
	CompletedAt    *time.Time `json:"validation_completed_at,omitempty"`
	ProcessingTime *float64   `json:"processing_time_seconds,omitempty"`

	Config ValidationPolicy `json:"validation_config"`
}

// IncludedThemes returns the names of themes recommended for inclusion
func (r *DestinationReport) IncludedThemes() []string {
	var names []string
	for _, t := range r.Themes {
		if t.RecommendedForInclusion {
			names = append(names, t.Theme)
		}
	}
	return names
}

// Clone returns a deep copy of the report
func (r DestinationReport) Clone() DestinationReport {
	r.StatusDistribution = maps.Clone(r.StatusDistribution)
	r.QualityDistribution = maps.Clone(r.QualityDistribution)
	r.SourceDistribution = maps.Clone(r.SourceDistribution)

	if r.ThemeEvidence != nil {
		sets := make([]ThemeEvidenceSet, len(r.ThemeEvidence))
		for i, set := range r.ThemeEvidence {
			sets[i] = set.Clone()
		}
		r.ThemeEvidence = sets
	}
	if r.Themes != nil {
		themes := make([]ValidatedTheme, len(r.Themes))
		for i, theme := range r.Themes {
			themes[i] = theme.Clone()
		}
		r.Themes = themes
	}
	r.Recommendations = slices.Clone(r.Recommendations)

	if r.CompletedAt != nil {
		v := *r.CompletedAt
		r.CompletedAt = &v
	}
	if r.ProcessingTime != nil {
		v := *r.ProcessingTime
		r.ProcessingTime = &v
	}
	return r
}
