package report

import (
	"fmt"
	"strings"

	"github.com/ppiankov/themecheck/internal/model"
)

// coverageAdvice is the action suggested for a recurring deficiency
var coverageAdvice = map[model.GapKind]string{
	model.GapNoEvidence:            "collect evidence for these themes before publishing",
	model.GapMalformedRecords:      "fix the upstream evidence records",
	model.GapInsufficientEvidence:  "gather more evidence pieces per theme",
	model.GapInsufficientDiversity: "broaden source coverage beyond a single domain",
	model.GapLowAuthority:          "prioritise government, education and major travel sources",
	model.GapLowRelevance:          "refine theme keywords or collect more specific evidence",
	model.GapConflictingEvidence:   "review contradicting sources manually",
}

// Recommendations derives advice from recurring gap patterns in fixed order
func Recommendations(r model.DestinationReport) []string {
	recs := make([]string, 0)

	if r.TotalThemesAnalyzed == 0 {
		return append(recs, "No themes were analyzed; check the theme generation input")
	}

	// Themes that were not validated, with their evidence sets
	var rejected []model.ThemeEvidenceSet
	for _, set := range r.ThemeEvidence {
		if set.Status != model.StatusValidated {
			rejected = append(rejected, set)
		}
	}

	if len(rejected) > 0 {
		for _, kind := range deficiencyKinds() {
			count := 0
			for _, set := range rejected {
				if set.HasGap(kind) {
					count++
				}
			}
			if 2*count > len(rejected) {
				recs = append(recs, fmt.Sprintf("%d of %d rejected themes share the %s gap: %s",
					count, len(rejected), strings.ReplaceAll(string(kind), "_", " "), coverageAdvice[kind]))
			}
		}
	}

	var conflicting []string
	for _, t := range r.Themes {
		if t.Status == model.StatusConflicting {
			conflicting = append(conflicting, t.Theme)
		}
	}
	if len(conflicting) > 0 {
		recs = append(recs, fmt.Sprintf("Conflicting evidence found for: %s", strings.Join(conflicting, ", ")))
	}

	malformed := 0
	for _, set := range r.ThemeEvidence {
		for _, rej := range set.Rejections {
			if rej.Reason == model.RejectMalformed {
				malformed++
			}
		}
	}
	if malformed > 0 {
		recs = append(recs, fmt.Sprintf("%d malformed evidence records were skipped", malformed))
	}

	if r.ValidationSuccessRate < 0.5 {
		recs = append(recs, fmt.Sprintf("Only %.0f%% of themes were validated; consider expanding evidence collection",
			r.ValidationSuccessRate*100))
	}

	return recs
}

func deficiencyKinds() []model.GapKind {
	return []model.GapKind{
		model.GapNoEvidence,
		model.GapMalformedRecords,
		model.GapInsufficientEvidence,
		model.GapInsufficientDiversity,
		model.GapLowAuthority,
		model.GapLowRelevance,
		model.GapConflictingEvidence,
	}
}
