package score

import (
	"math"

	"github.com/ppiankov/themecheck/internal/model"
)

// ConfidenceAdjuster recomputes a theme's confidence from its evidence outcome
type ConfidenceAdjuster struct {
	policy *model.ValidationPolicy
}

// NewConfidenceAdjuster creates an adjuster for the given policy
func NewConfidenceAdjuster(policy *model.ValidationPolicy) *ConfidenceAdjuster {
	return &ConfidenceAdjuster{policy: policy}
}

// Delta returns the bounded raw adjustment for a status and curated count
func (a *ConfidenceAdjuster) Delta(status model.ValidationStatus, count int) float64 {
	p := a.policy

	var raw float64
	switch status {
	case model.StatusValidated, model.StatusPartiallyValidated:
		raw = float64(count) * p.ConfidenceBoostPerEvidence
	case model.StatusUnvalidated:
		raw = -p.ConfidencePenaltyNoEvidence
	case model.StatusConflicting:
		raw = -p.ConfidencePenaltyConflict
	case model.StatusPending:
		raw = 0
	}

	limit := p.MaxConfidenceAdjustment
	return math.Max(-limit, math.Min(limit, raw))
}

// Adjust produces the validated theme for an input and its evidence set
func (a *ConfidenceAdjuster) Adjust(theme model.ThemeInput, set model.ThemeEvidenceSet) model.ValidatedTheme {
	var initial float64
	if theme.Confidence != nil {
		initial = clamp01(*theme.Confidence)
	}

	adjusted := clamp01(initial + a.Delta(set.Status, set.TotalCount))
	limit := a.policy.MaxConfidenceAdjustment
	adjustment := math.Max(-limit, math.Min(limit, adjusted-initial))

	evidence := set
	return model.ValidatedTheme{
		Theme:                      theme.Name,
		Category:                   theme.Category,
		SubThemes:                  theme.SubThemes,
		Evidence:                   &evidence,
		Status:                     set.Status,
		EvidenceStrength:           evidenceStrength(set.Evidence),
		InitialConfidence:          initial,
		AdjustedConfidence:         adjusted,
		Adjustment:                 adjustment,
		PassesEvidenceRequirements: set.PassesAllGates(),
		PassesSourceDiversity:      set.MeetsSourceDiversity,
		PassesQualityThreshold:     set.MeetsQualityThreshold,
		RecommendedForInclusion:    set.Status.Supported() && adjusted >= a.policy.InclusionConfidenceFloor,
	}
}

// evidenceStrength is the mean authority x relevance of the curated items
func evidenceStrength(items []model.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range items {
		sum += item.Strength()
	}
	return sum / float64(len(items))
}
