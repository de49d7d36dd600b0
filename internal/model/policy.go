package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AuthorityWeights maps every source classification to a trust weight.
// The zero value is not usable; build one with NewAuthorityWeights or
// DefaultAuthorityWeights so that the unknown fallback is always present.
type AuthorityWeights struct {
	weights map[SourceType]float64
}

// NewAuthorityWeights validates and copies a weight table. The table must
// contain an entry for SourceUnknown, which serves as the fallback weight.
func NewAuthorityWeights(table map[SourceType]float64) (AuthorityWeights, error) {
	if _, ok := table[SourceUnknown]; !ok {
		return AuthorityWeights{}, fmt.Errorf("authority weights: missing %q fallback entry", SourceUnknown)
	}

	weights := make(map[SourceType]float64, len(table))
	for t, w := range table {
		if !t.Valid() {
			return AuthorityWeights{}, fmt.Errorf("authority weights: unknown source type %q", t)
		}
		if math.IsNaN(w) || w < 0 || w > 1 {
			return AuthorityWeights{}, fmt.Errorf("authority weights: %s=%.3f outside [0,1]", t, w)
		}
		weights[t] = w
	}

	return AuthorityWeights{weights: weights}, nil
}

// ParseAuthorityWeights builds weights from tag-keyed values (config files, JSON)
func ParseAuthorityWeights(raw map[string]float64) (AuthorityWeights, error) {
	table := make(map[SourceType]float64, len(raw))
	for tag, w := range raw {
		t, err := ParseSourceType(tag)
		if err != nil {
			return AuthorityWeights{}, fmt.Errorf("authority weights: %w", err)
		}
		table[t] = w
	}
	return NewAuthorityWeights(table)
}

// DefaultAuthorityWeights returns the built-in weight table
func DefaultAuthorityWeights() AuthorityWeights {
	return AuthorityWeights{weights: map[SourceType]float64{
		SourceGovernment:    1.0,
		SourceEducation:     0.9,
		SourceMajorTravel:   0.8,
		SourceNewsMedia:     0.7,
		SourceTourismBoard:  0.75,
		SourceTravelBlog:    0.5,
		SourceLocalBusiness: 0.4,
		SourceSocialMedia:   0.3,
		SourceUnknown:       0.2,
	}}
}

// Weight returns the weight for t, falling back to the unknown weight
func (w AuthorityWeights) Weight(t SourceType) float64 {
	if v, ok := w.weights[t]; ok {
		return v
	}
	return w.weights[SourceUnknown]
}

// Has reports whether t has an explicit entry
func (w AuthorityWeights) Has(t SourceType) bool {
	_, ok := w.weights[t]
	return ok
}

// IsZero reports whether the weights were never initialised
func (w AuthorityWeights) IsZero() bool {
	return w.weights == nil
}

// Table returns a copy of the weights keyed by tag
func (w AuthorityWeights) Table() map[string]float64 {
	out := make(map[string]float64, len(w.weights))
	for t, v := range w.weights {
		out[string(t)] = v
	}
	return out
}

func (w AuthorityWeights) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.Table())
}

func (w *AuthorityWeights) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAuthorityWeights(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func (w AuthorityWeights) MarshalYAML() (interface{}, error) {
	return w.Table(), nil
}

func (w *AuthorityWeights) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]float64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseAuthorityWeights(raw)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// QualityBands are the authority/relevance floors that map scores onto tiers.
// A tier applies when both floors are met; bands must be nested
// (excellent >= good >= acceptable) so tiering stays monotonic.
type QualityBands struct {
	ExcellentAuthority  float64 `json:"excellent_authority" yaml:"excellent_authority" mapstructure:"excellent_authority"`
	ExcellentRelevance  float64 `json:"excellent_relevance" yaml:"excellent_relevance" mapstructure:"excellent_relevance"`
	GoodAuthority       float64 `json:"good_authority" yaml:"good_authority" mapstructure:"good_authority"`
	GoodRelevance       float64 `json:"good_relevance" yaml:"good_relevance" mapstructure:"good_relevance"`
	AcceptableAuthority float64 `json:"acceptable_authority" yaml:"acceptable_authority" mapstructure:"acceptable_authority"`
	AcceptableRelevance float64 `json:"acceptable_relevance" yaml:"acceptable_relevance" mapstructure:"acceptable_relevance"`
	PoorAuthority       float64 `json:"poor_authority" yaml:"poor_authority" mapstructure:"poor_authority"`
}

// DefaultQualityBands returns the built-in band edges
func DefaultQualityBands() QualityBands {
	return QualityBands{
		ExcellentAuthority:  0.8,
		ExcellentRelevance:  0.7,
		GoodAuthority:       0.6,
		GoodRelevance:       0.5,
		AcceptableAuthority: 0.4,
		AcceptableRelevance: 0.3,
		PoorAuthority:       0.2,
	}
}

// ValidationPolicy is the immutable configuration consumed by every engine component
type ValidationPolicy struct {
	MinEvidencePieces    int `json:"min_evidence_pieces" yaml:"min_evidence_pieces" mapstructure:"min_evidence_pieces"`
	MaxEvidencePieces    int `json:"max_evidence_pieces" yaml:"max_evidence_pieces" mapstructure:"max_evidence_pieces"`
	MinUniqueSources     int `json:"min_unique_sources" yaml:"min_unique_sources" mapstructure:"min_unique_sources"`
	MaxEvidencePerSource int `json:"max_evidence_per_source" yaml:"max_evidence_per_source" mapstructure:"max_evidence_per_source"`

	MinAuthorityScore float64 `json:"min_authority_score" yaml:"min_authority_score" mapstructure:"min_authority_score"`
	MinRelevanceScore float64 `json:"min_relevance_score" yaml:"min_relevance_score" mapstructure:"min_relevance_score"`
	MinContentLength  int     `json:"min_content_length" yaml:"min_content_length" mapstructure:"min_content_length"`

	ConfidenceBoostPerEvidence  float64 `json:"confidence_boost_per_evidence" yaml:"confidence_boost_per_evidence" mapstructure:"confidence_boost_per_evidence"`
	ConfidencePenaltyNoEvidence float64 `json:"confidence_penalty_no_evidence" yaml:"confidence_penalty_no_evidence" mapstructure:"confidence_penalty_no_evidence"`
	ConfidencePenaltyConflict   float64 `json:"confidence_penalty_conflict" yaml:"confidence_penalty_conflict" mapstructure:"confidence_penalty_conflict"`
	MaxConfidenceAdjustment     float64 `json:"max_confidence_adjustment" yaml:"max_confidence_adjustment" mapstructure:"max_confidence_adjustment"`
	InclusionConfidenceFloor    float64 `json:"inclusion_confidence_floor" yaml:"inclusion_confidence_floor" mapstructure:"inclusion_confidence_floor"`

	// KeywordRelevanceWeight is the share of relevance taken from keyword
	// matches when a semantic similarity is also available
	KeywordRelevanceWeight float64 `json:"keyword_relevance_weight" yaml:"keyword_relevance_weight" mapstructure:"keyword_relevance_weight"`

	AuthorityWeights AuthorityWeights `json:"authority_weights" yaml:"authority_weights" mapstructure:"authority_weights"`
	QualityBands     QualityBands     `json:"quality_bands" yaml:"quality_bands" mapstructure:"quality_bands"`

	RequireDestinationMention   bool    `json:"require_destination_mention" yaml:"require_destination_mention" mapstructure:"require_destination_mention"`
	RequireSourceDiversity      bool    `json:"require_source_diversity" yaml:"require_source_diversity" mapstructure:"require_source_diversity"`
	EnableSemanticValidation    bool    `json:"enable_semantic_validation" yaml:"enable_semantic_validation" mapstructure:"enable_semantic_validation"`
	SemanticSimilarityThreshold float64 `json:"semantic_similarity_threshold" yaml:"semantic_similarity_threshold" mapstructure:"semantic_similarity_threshold"`
}

// DefaultPolicy returns the policy with every option at its default
func DefaultPolicy() ValidationPolicy {
	return ValidationPolicy{
		MinEvidencePieces:    3,
		MaxEvidencePieces:    10,
		MinUniqueSources:     2,
		MaxEvidencePerSource: 3,

		MinAuthorityScore: 0.3,
		MinRelevanceScore: 0.5,
		MinContentLength:  50,

		ConfidenceBoostPerEvidence:  0.05,
		ConfidencePenaltyNoEvidence: 0.2,
		ConfidencePenaltyConflict:   0.4,
		MaxConfidenceAdjustment:     0.3,
		InclusionConfidenceFloor:    0.5,

		KeywordRelevanceWeight: 0.5,

		AuthorityWeights: DefaultAuthorityWeights(),
		QualityBands:     DefaultQualityBands(),

		RequireDestinationMention:   true,
		RequireSourceDiversity:      true,
		EnableSemanticValidation:    true,
		SemanticSimilarityThreshold: 0.7,
	}
}

// Validate checks bounds and cross-field invariants. Every violation is
// reported; the returned error wraps ErrInvalidPolicy.
func (p ValidationPolicy) Validate() error {
	var problems []string
	addf := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if p.MinEvidencePieces < 1 {
		addf("min_evidence_pieces must be >= 1 (got %d)", p.MinEvidencePieces)
	}
	if p.MaxEvidencePieces < p.MinEvidencePieces {
		addf("max_evidence_pieces (%d) must be >= min_evidence_pieces (%d)", p.MaxEvidencePieces, p.MinEvidencePieces)
	}
	if p.MinUniqueSources < 1 {
		addf("min_unique_sources must be >= 1 (got %d)", p.MinUniqueSources)
	}
	if p.MaxEvidencePerSource < 1 {
		addf("max_evidence_per_source must be >= 1 (got %d)", p.MaxEvidencePerSource)
	}
	if p.MinContentLength < 0 {
		addf("min_content_length must be >= 0 (got %d)", p.MinContentLength)
	}

	unit := []struct {
		name  string
		value float64
	}{
		{"min_authority_score", p.MinAuthorityScore},
		{"min_relevance_score", p.MinRelevanceScore},
		{"confidence_boost_per_evidence", p.ConfidenceBoostPerEvidence},
		{"confidence_penalty_no_evidence", p.ConfidencePenaltyNoEvidence},
		{"confidence_penalty_conflict", p.ConfidencePenaltyConflict},
		{"max_confidence_adjustment", p.MaxConfidenceAdjustment},
		{"inclusion_confidence_floor", p.InclusionConfidenceFloor},
		{"keyword_relevance_weight", p.KeywordRelevanceWeight},
		{"semantic_similarity_threshold", p.SemanticSimilarityThreshold},
		{"quality_bands.excellent_authority", p.QualityBands.ExcellentAuthority},
		{"quality_bands.excellent_relevance", p.QualityBands.ExcellentRelevance},
		{"quality_bands.good_authority", p.QualityBands.GoodAuthority},
		{"quality_bands.good_relevance", p.QualityBands.GoodRelevance},
		{"quality_bands.acceptable_authority", p.QualityBands.AcceptableAuthority},
		{"quality_bands.acceptable_relevance", p.QualityBands.AcceptableRelevance},
		{"quality_bands.poor_authority", p.QualityBands.PoorAuthority},
	}
	for _, f := range unit {
		if math.IsNaN(f.value) || f.value < 0 || f.value > 1 {
			addf("%s must be within [0,1] (got %.3f)", f.name, f.value)
		}
	}

	if p.ConfidencePenaltyConflict < p.ConfidencePenaltyNoEvidence {
		addf("confidence_penalty_conflict (%.3f) must be >= confidence_penalty_no_evidence (%.3f)",
			p.ConfidencePenaltyConflict, p.ConfidencePenaltyNoEvidence)
	}

	b := p.QualityBands
	if b.ExcellentAuthority < b.GoodAuthority || b.GoodAuthority < b.AcceptableAuthority || b.AcceptableAuthority < b.PoorAuthority {
		addf("quality_bands authority floors must be non-increasing from excellent to poor")
	}
	if b.ExcellentRelevance < b.GoodRelevance || b.GoodRelevance < b.AcceptableRelevance {
		addf("quality_bands relevance floors must be non-increasing from excellent to acceptable")
	}

	if p.AuthorityWeights.IsZero() {
		addf("authority_weights must be configured")
	} else {
		var missing []string
		for _, t := range AllSourceTypes() {
			if !p.AuthorityWeights.Has(t) {
				missing = append(missing, string(t))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			addf("authority_weights missing entries: %s", strings.Join(missing, ", "))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return WrapError(ErrInvalidPolicy, "validate policy", errors.New(strings.Join(problems, "; ")))
}
