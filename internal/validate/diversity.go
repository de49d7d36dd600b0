package validate

import (
	"math"

	"github.com/ppiankov/themecheck/internal/model"
)

// Diversity summarises how many distinct domains back a curated set
type Diversity struct {
	UniqueSources int     `json:"unique_sources"`
	Score         float64 `json:"score"`
}

// DiversityAnalyzer measures source breadth of a curated set
type DiversityAnalyzer struct {
	minUniqueSources int
}

// NewDiversityAnalyzer creates an analyzer saturating at twice the policy minimum
func NewDiversityAnalyzer(policy *model.ValidationPolicy) *DiversityAnalyzer {
	return &DiversityAnalyzer{minUniqueSources: policy.MinUniqueSources}
}

// Analyze counts distinct domains; the score is min(1, unique / (2*min_unique_sources))
func (a *DiversityAnalyzer) Analyze(items []model.EvidenceItem) Diversity {
	domains := make(map[string]struct{}, len(items))
	for _, item := range items {
		domains[item.Domain] = struct{}{}
	}

	unique := len(domains)
	if unique == 0 {
		return Diversity{}
	}

	saturation := 2 * a.minUniqueSources
	if saturation <= 0 {
		return Diversity{UniqueSources: unique, Score: 1}
	}

	return Diversity{
		UniqueSources: unique,
		Score:         math.Min(1, float64(unique)/float64(saturation)),
	}
}
