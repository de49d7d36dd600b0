package validate

import (
	"fmt"
	"math"

	"github.com/ppiankov/themecheck/internal/model"
)

// Engine decides the validation status and requirement gates of one theme.
// It holds no per-theme state and may be shared across goroutines.
type Engine struct {
	policy    *model.ValidationPolicy
	curator   *Curator
	diversity *DiversityAnalyzer
}

// NewEngine creates an engine for the given policy
func NewEngine(policy *model.ValidationPolicy) *Engine {
	return &Engine{
		policy:    policy,
		curator:   NewCurator(policy),
		diversity: NewDiversityAnalyzer(policy),
	}
}

// Validate curates scored items and evaluates the result. malformed carries the
// rejections of records that could not be scored at all.
func (e *Engine) Validate(name, category string, items []model.EvidenceItem, malformed []model.Rejection) model.ThemeEvidenceSet {
	curation := e.curator.Curate(items)
	return e.Evaluate(name, category, curation, e.diversity.Analyze(curation.Kept), malformed)
}

// Evaluate builds the evidence set from an already curated result
func (e *Engine) Evaluate(name, category string, curation CurationResult, diversity Diversity, malformed []model.Rejection) model.ThemeEvidenceSet {
	p := e.policy
	kept := curation.Kept
	n := len(kept)

	set := model.ThemeEvidenceSet{
		ThemeName:           name,
		ThemeCategory:       category,
		Evidence:            kept,
		TotalCount:          n,
		UniqueSourceCount:   diversity.UniqueSources,
		DiversityScore:      diversity.Score,
		Gaps:                make([]model.Gap, 0),
		ConflictingEvidence: make([]string, 0),
		Rejections:          make([]model.Rejection, 0, len(malformed)+len(curation.Rejections)),
	}
	if set.Evidence == nil {
		set.Evidence = make([]model.EvidenceItem, 0)
	}
	set.Rejections = append(set.Rejections, malformed...)
	set.Rejections = append(set.Rejections, curation.Rejections...)

	if n > 0 {
		var authority, relevance float64
		for _, item := range kept {
			authority += item.AuthorityScore
			relevance += item.RelevanceScore
			if item.ContradictsTheme {
				set.ConflictingEvidence = append(set.ConflictingEvidence, item.ID)
			}
		}
		set.AverageAuthority = authority / float64(n)
		set.AverageRelevance = relevance / float64(n)
		set.StrongestEvidence = strongest(kept)
	}

	set.MeetsMinEvidence = n >= p.MinEvidencePieces
	set.MeetsSourceDiversity = !p.RequireSourceDiversity || diversity.UniqueSources >= p.MinUniqueSources
	set.MeetsQualityThreshold = n > 0 &&
		set.AverageAuthority >= p.MinAuthorityScore &&
		set.AverageRelevance >= p.MinRelevanceScore

	set.Status = e.status(set)
	set.Confidence = e.confidence(set)
	set.Gaps = e.gaps(set, len(malformed))

	return set
}

func (e *Engine) status(set model.ThemeEvidenceSet) model.ValidationStatus {
	switch {
	case len(set.ConflictingEvidence) > 0:
		return model.StatusConflicting
	case set.PassesAllGates():
		return model.StatusValidated
	case set.TotalCount > 0 && (set.MeetsMinEvidence || set.MeetsSourceDiversity || set.MeetsQualityThreshold):
		return model.StatusPartiallyValidated
	default:
		// Empty sets and sets failing every gate
		return model.StatusUnvalidated
	}
}

// confidence is the engine's confidence in its own decision, in [0,1]
func (e *Engine) confidence(set model.ThemeEvidenceSet) float64 {
	if set.TotalCount == 0 {
		return 0
	}
	p := e.policy

	quantity := math.Min(1, float64(set.TotalCount)/float64(p.MinEvidencePieces))
	breadth := math.Min(1, float64(set.UniqueSourceCount)/float64(p.MinUniqueSources))
	value := 0.4*quantity + 0.3*breadth + 0.3*set.AverageAuthority

	return math.Round(math.Min(1, value)*1000) / 1000
}

func (e *Engine) gaps(set model.ThemeEvidenceSet, malformed int) []model.Gap {
	p := e.policy
	gaps := make([]model.Gap, 0)
	add := func(kind model.GapKind, format string, args ...any) {
		gaps = append(gaps, model.Gap{Kind: kind, Description: fmt.Sprintf(format, args...)})
	}

	n := set.TotalCount
	if n == 0 {
		add(model.GapNoEvidence, "no usable evidence found (%d records rejected)", len(set.Rejections))
	}
	if malformed > 0 {
		add(model.GapMalformedRecords, "%d malformed evidence records skipped", malformed)
	}
	if n == 0 {
		return gaps
	}

	if !set.MeetsMinEvidence {
		add(model.GapInsufficientEvidence, "only %d of %d required evidence pieces", n, p.MinEvidencePieces)
	}
	if !set.MeetsSourceDiversity {
		add(model.GapInsufficientDiversity, "insufficient source diversity: only %d of %d required unique sources",
			set.UniqueSourceCount, p.MinUniqueSources)
	}
	if set.AverageAuthority < p.MinAuthorityScore {
		add(model.GapLowAuthority, "average authority %.2f below required %.2f", set.AverageAuthority, p.MinAuthorityScore)
	}
	if set.AverageRelevance < p.MinRelevanceScore {
		add(model.GapLowRelevance, "average relevance %.2f below required %.2f", set.AverageRelevance, p.MinRelevanceScore)
	}
	if len(set.ConflictingEvidence) > 0 {
		add(model.GapConflictingEvidence, "%d evidence pieces contradict the theme", len(set.ConflictingEvidence))
	}

	var official, majorTravel, excellent bool
	for _, item := range set.Evidence {
		switch item.SourceType {
		case model.SourceGovernment, model.SourceTourismBoard:
			official = true
		case model.SourceMajorTravel:
			majorTravel = true
		case model.SourceEducation, model.SourceNewsMedia, model.SourceTravelBlog,
			model.SourceSocialMedia, model.SourceLocalBusiness, model.SourceUnknown:
		}
		if item.Quality == model.QualityExcellent {
			excellent = true
		}
	}
	if !official {
		add(model.GapMissingOfficial, "no official government or tourism board sources")
	}
	if !majorTravel {
		add(model.GapMissingMajorTravel, "no major travel publication sources")
	}
	if !excellent {
		add(model.GapNoExcellentEvidence, "no excellent quality evidence")
	}

	return gaps
}

// strongest returns the id with the highest authority x relevance; ties go to the lowest id
func strongest(items []model.EvidenceItem) string {
	best := items[0]
	for _, item := range items[1:] {
		s, bs := item.Strength(), best.Strength()
		if s > bs || (s == bs && item.ID < best.ID) {
			best = item
		}
	}
	return best.ID
}
