package model

import "slices"

// ValidationStatus is the categorical outcome of validating one theme
type ValidationStatus string

const (
	StatusValidated          ValidationStatus = "validated"           // Evidence found, theme confirmed
	StatusPartiallyValidated ValidationStatus = "partially_validated" // Some evidence found
	StatusUnvalidated        ValidationStatus = "unvalidated"         // No usable evidence
	StatusConflicting        ValidationStatus = "conflicting"         // Evidence contradicts theme
	StatusPending            ValidationStatus = "pending"             // Validation not yet performed
)

// AllValidationStatuses returns every status in declaration order
func AllValidationStatuses() []ValidationStatus {
	return []ValidationStatus{
		StatusValidated,
		StatusPartiallyValidated,
		StatusUnvalidated,
		StatusConflicting,
		StatusPending,
	}
}

// Valid reports whether s is one of the enumerated statuses
func (s ValidationStatus) Valid() bool {
	switch s {
	case StatusValidated, StatusPartiallyValidated, StatusUnvalidated, StatusConflicting, StatusPending:
		return true
	default:
		return false
	}
}

// Supported reports whether the status counts as (at least partial) support
func (s ValidationStatus) Supported() bool {
	switch s {
	case StatusValidated, StatusPartiallyValidated:
		return true
	case StatusUnvalidated, StatusConflicting, StatusPending:
		return false
	default:
		return false
	}
}

// GapKind classifies an evidence gap
type GapKind string

const (
	GapNoEvidence            GapKind = "no_evidence"
	GapMalformedRecords      GapKind = "malformed_records"
	GapInsufficientEvidence  GapKind = "insufficient_evidence"
	GapInsufficientDiversity GapKind = "insufficient_diversity"
	GapLowAuthority          GapKind = "low_authority"
	GapLowRelevance          GapKind = "low_relevance"
	GapConflictingEvidence   GapKind = "conflicting_evidence"
	GapMissingOfficial       GapKind = "missing_official_sources"
	GapMissingMajorTravel    GapKind = "missing_major_travel_sources"
	GapNoExcellentEvidence   GapKind = "no_excellent_evidence"
)

// Deficiency reports whether the gap corresponds to a failed requirement
// rather than an informational coverage note
func (k GapKind) Deficiency() bool {
	switch k {
	case GapNoEvidence, GapMalformedRecords, GapInsufficientEvidence, GapInsufficientDiversity,
		GapLowAuthority, GapLowRelevance, GapConflictingEvidence:
		return true
	default:
		return false
	}
}

// Gap is a human-readable descriptor of what a theme's evidence lacks
type Gap struct {
	Kind        GapKind `json:"kind"`
	Description string  `json:"description"`
}

// ThemeInput is one candidate theme handed over by the generation collaborator
type ThemeInput struct {
	Name       string        `json:"name" yaml:"name"`
	Category   string        `json:"category" yaml:"category"`
	Confidence *float64      `json:"confidence" yaml:"confidence"`
	Keywords   []string      `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	SubThemes  []string      `json:"sub_themes,omitempty" yaml:"sub_themes,omitempty"`
	Evidence   []RawEvidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// ThemeEvidenceSet is the curated evidence collection for one theme of one run
type ThemeEvidenceSet struct {
	ThemeName     string `json:"theme_name"`
	ThemeCategory string `json:"theme_category"`

	Evidence          []EvidenceItem `json:"evidence_pieces"`
	TotalCount        int            `json:"total_evidence_count"`
	UniqueSourceCount int            `json:"unique_source_count"`

	Status     ValidationStatus `json:"validation_status"`
	Confidence float64          `json:"validation_confidence"`

	AverageAuthority float64 `json:"average_authority_score"`
	AverageRelevance float64 `json:"average_relevance_score"`
	DiversityScore   float64 `json:"source_diversity_score"`

	MeetsMinEvidence      bool `json:"meets_min_evidence_requirement"`
	MeetsSourceDiversity  bool `json:"meets_source_diversity_requirement"`
	MeetsQualityThreshold bool `json:"meets_quality_threshold"`

	StrongestEvidence   string      `json:"strongest_evidence,omitempty"`
	Gaps                []Gap       `json:"evidence_gaps"`
	ConflictingEvidence []string    `json:"conflicting_evidence"`
	Rejections          []Rejection `json:"rejections"`
}

// PassesAllGates reports whether quantity, diversity and quality gates all pass
func (s ThemeEvidenceSet) PassesAllGates() bool {
	return s.MeetsMinEvidence && s.MeetsSourceDiversity && s.MeetsQualityThreshold
}

// Clone returns a deep copy of the set
func (s ThemeEvidenceSet) Clone() ThemeEvidenceSet {
	if s.Evidence != nil {
		items := make([]EvidenceItem, len(s.Evidence))
		for i, item := range s.Evidence {
			items[i] = item.Clone()
		}
		s.Evidence = items
	}
	s.Gaps = slices.Clone(s.Gaps)
	s.ConflictingEvidence = slices.Clone(s.ConflictingEvidence)
	s.Rejections = slices.Clone(s.Rejections)
	return s
}

// HasGap reports whether the set carries a gap of the given kind
func (s ThemeEvidenceSet) HasGap(kind GapKind) bool {
	for _, g := range s.Gaps {
		if g.Kind == kind {
			return true
		}
	}
	return false
}

// ValidatedTheme is a theme enriched with its evidence outcome and confidence lineage
type ValidatedTheme struct {
	Theme     string   `json:"theme"`
	Category  string   `json:"category"`
	SubThemes []string `json:"sub_themes,omitempty"`

	// Evidence is nil inside a DestinationReport; the sets live in ThemeEvidence there
	Evidence *ThemeEvidenceSet `json:"evidence,omitempty"`

	Status           ValidationStatus `json:"validation_status"`
	EvidenceStrength float64          `json:"evidence_strength"`

	InitialConfidence  float64 `json:"initial_confidence"`
	AdjustedConfidence float64 `json:"evidence_adjusted_confidence"`
	Adjustment         float64 `json:"confidence_adjustment"`

	PassesEvidenceRequirements bool `json:"passes_evidence_requirements"`
	PassesSourceDiversity      bool `json:"passes_source_diversity"`
	PassesQualityThreshold     bool `json:"passes_quality_threshold"`
	RecommendedForInclusion    bool `json:"recommended_for_inclusion"`
}

// Clone returns a deep copy of the theme
func (t ValidatedTheme) Clone() ValidatedTheme {
	t.SubThemes = slices.Clone(t.SubThemes)
	if t.Evidence != nil {
		set := t.Evidence.Clone()
		t.Evidence = &set
	}
	return t
}
