package model

import (
	"fmt"
	"slices"
	"strings"
)

// MaxEvidenceTextLength bounds the stored text of a single evidence item (runes)
const MaxEvidenceTextLength = 1000

// SourceType classifies where a piece of evidence came from
type SourceType string

const (
	SourceGovernment    SourceType = "government"     // .gov domains, municipal offices
	SourceEducation     SourceType = "education"      // universities, academic publications
	SourceMajorTravel   SourceType = "major_travel"   // Lonely Planet, Fodor's, etc.
	SourceNewsMedia     SourceType = "news_media"     // Major news outlets
	SourceTravelBlog    SourceType = "travel_blog"    // Personal travel blogs
	SourceSocialMedia   SourceType = "social_media"   // Social media posts
	SourceLocalBusiness SourceType = "local_business" // Restaurants, hotels, shops
	SourceTourismBoard  SourceType = "tourism_board"  // Official tourism organizations
	SourceUnknown       SourceType = "unknown"        // Unknown or unverified sources
)

// AllSourceTypes returns every source classification in declaration order
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceGovernment,
		SourceEducation,
		SourceMajorTravel,
		SourceNewsMedia,
		SourceTravelBlog,
		SourceSocialMedia,
		SourceLocalBusiness,
		SourceTourismBoard,
		SourceUnknown,
	}
}

// Valid reports whether t is one of the enumerated classifications
func (t SourceType) Valid() bool {
	switch t {
	case SourceGovernment, SourceEducation, SourceMajorTravel, SourceNewsMedia,
		SourceTravelBlog, SourceSocialMedia, SourceLocalBusiness, SourceTourismBoard,
		SourceUnknown:
		return true
	default:
		return false
	}
}

// ParseSourceType converts an upstream classification tag into a SourceType.
// Hyphens and spaces are accepted in place of underscores.
func ParseSourceType(raw string) (SourceType, error) {
	tag := strings.ToLower(strings.TrimSpace(raw))
	tag = strings.NewReplacer("-", "_", " ", "_").Replace(tag)

	if tag == "major_travel_authority" {
		return SourceMajorTravel, nil
	}

	t := SourceType(tag)
	if !t.Valid() {
		return "", fmt.Errorf("unknown source type %q", raw)
	}
	return t, nil
}

// QualityTier is the ordinal quality assessment of one evidence item
type QualityTier string

const (
	QualityExcellent  QualityTier = "excellent"  // High authority, specific, detailed
	QualityGood       QualityTier = "good"       // Good authority, relevant content
	QualityAcceptable QualityTier = "acceptable" // Moderate authority, basic relevance
	QualityPoor       QualityTier = "poor"       // Low authority, generic content
	QualityRejected   QualityTier = "rejected"   // Below minimum standards
)

// AllQualityTiers returns every tier from best to worst
func AllQualityTiers() []QualityTier {
	return []QualityTier{QualityExcellent, QualityGood, QualityAcceptable, QualityPoor, QualityRejected}
}

// Valid reports whether q is one of the enumerated tiers
func (q QualityTier) Valid() bool {
	switch q {
	case QualityExcellent, QualityGood, QualityAcceptable, QualityPoor, QualityRejected:
		return true
	default:
		return false
	}
}

// Rank orders tiers: excellent=4 ... rejected=0
func (q QualityTier) Rank() int {
	switch q {
	case QualityExcellent:
		return 4
	case QualityGood:
		return 3
	case QualityAcceptable:
		return 2
	case QualityPoor:
		return 1
	default:
		return 0
	}
}

// RawEvidence is one evidence record as handed over by the acquisition collaborator
type RawEvidence struct {
	ID                 string   `json:"id,omitempty" yaml:"id,omitempty"`
	Text               string   `json:"text" yaml:"text"`
	SourceURL          string   `json:"source_url" yaml:"source_url"`
	SourceTitle        string   `json:"source_title,omitempty" yaml:"source_title,omitempty"`
	SourceType         string   `json:"source_type" yaml:"source_type"`
	SemanticSimilarity *float64 `json:"semantic_similarity,omitempty" yaml:"semantic_similarity,omitempty"`
	ContradictsTheme   bool     `json:"contradicts_theme,omitempty" yaml:"contradicts_theme,omitempty"`
}

// EvidenceItem is a scored piece of evidence. It is never mutated after scoring.
type EvidenceItem struct {
	ID          string     `json:"evidence_id"`
	Text        string     `json:"text_content"`
	SourceURL   string     `json:"source_url"`
	Domain      string     `json:"source_domain"`
	SourceTitle string     `json:"source_title"`
	SourceType  SourceType `json:"source_type"`

	AuthorityScore float64     `json:"authority_score"`
	Quality        QualityTier `json:"quality_rating"`
	RelevanceScore float64     `json:"relevance_score"`

	WordCount           int      `json:"word_count"`
	MentionsDestination bool     `json:"contains_destination_mention"`
	MatchedKeywords     []string `json:"contains_theme_keywords"`
	SemanticSimilarity  *float64 `json:"semantic_similarity,omitempty"`
	ContradictsTheme    bool     `json:"contradicts_theme"`
}

// Strength is the product used to pick the strongest evidence of a set
func (e EvidenceItem) Strength() float64 {
	return e.AuthorityScore * e.RelevanceScore
}

// Clone returns a copy that shares no slices or pointers with e
func (e EvidenceItem) Clone() EvidenceItem {
	e.MatchedKeywords = slices.Clone(e.MatchedKeywords)
	if e.SemanticSimilarity != nil {
		v := *e.SemanticSimilarity
		e.SemanticSimilarity = &v
	}
	return e
}

// RejectionReason explains why an evidence record did not survive curation
type RejectionReason string

const (
	RejectMalformed          RejectionReason = "malformed"
	RejectQuality            RejectionReason = "quality_rejected"
	RejectLowAuthority       RejectionReason = "low_authority"
	RejectLowRelevance       RejectionReason = "low_relevance"
	RejectNoDestination      RejectionReason = "missing_destination_mention"
	RejectLowSimilarity      RejectionReason = "low_semantic_similarity"
	RejectSourceCapExceeded  RejectionReason = "source_cap_exceeded"
	RejectMaxEvidenceReached RejectionReason = "max_evidence_exceeded"
)

// Rejection is a diagnostic entry for a dropped evidence record
type Rejection struct {
	EvidenceID string          `json:"evidence_id,omitempty"`
	SourceURL  string          `json:"source_url,omitempty"`
	Reason     RejectionReason `json:"reason"`
	Detail     string          `json:"detail,omitempty"`
}
