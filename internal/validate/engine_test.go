package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/themecheck/internal/model"
)

func item(id, domain string, sourceType model.SourceType, authority, relevance float64) model.EvidenceItem {
	return model.EvidenceItem{
		ID:                  id,
		Text:                "evidence " + id,
		SourceURL:           "https://" + domain + "/" + id,
		Domain:              domain,
		SourceType:          sourceType,
		AuthorityScore:      authority,
		RelevanceScore:      relevance,
		Quality:             model.QualityGood,
		MentionsDestination: true,
		MatchedKeywords:     []string{},
	}
}

func defaultPolicy() *model.ValidationPolicy {
	p := model.DefaultPolicy()
	return &p
}

func TestCurator_DropsBelowThresholds(t *testing.T) {
	low := item("a", "a.com", model.SourceSocialMedia, 0.1, 0.9)
	irrelevant := item("b", "b.com", model.SourceGovernment, 1.0, 0.2)
	rejected := item("c", "c.com", model.SourceGovernment, 1.0, 0.9)
	rejected.Quality = model.QualityRejected
	noMention := item("d", "d.com", model.SourceGovernment, 1.0, 0.9)
	noMention.MentionsDestination = false
	sim := 0.4
	dissimilar := item("e", "e.com", model.SourceGovernment, 1.0, 0.9)
	dissimilar.SemanticSimilarity = &sim
	good := item("f", "f.com", model.SourceGovernment, 1.0, 0.9)

	result := NewCurator(defaultPolicy()).Curate([]model.EvidenceItem{low, irrelevant, rejected, noMention, dissimilar, good})

	require.Len(t, result.Kept, 1)
	assert.Equal(t, "f", result.Kept[0].ID)

	reasons := make(map[string]model.RejectionReason)
	for _, r := range result.Rejections {
		reasons[r.EvidenceID] = r.Reason
	}
	assert.Equal(t, map[string]model.RejectionReason{
		"a": model.RejectLowAuthority,
		"b": model.RejectLowRelevance,
		"c": model.RejectQuality,
		"d": model.RejectNoDestination,
		"e": model.RejectLowSimilarity,
	}, reasons)
}

func TestCurator_KeepsContradictingItems(t *testing.T) {
	against := item("a", "a.gov", model.SourceGovernment, 1.0, 0.9)
	against.ContradictsTheme = true
	support := item("b", "b.com", model.SourceMajorTravel, 0.8, 0.8)

	result := NewCurator(defaultPolicy()).Curate([]model.EvidenceItem{against, support})

	assert.Empty(t, result.Rejections, "conflicts are resolved by the engine, not filtered here")
	require.Len(t, result.Kept, 2)
	assert.True(t, result.Kept[0].ContradictsTheme)
}

func TestCurator_FlagsDisableFilters(t *testing.T) {
	p := defaultPolicy()
	p.RequireDestinationMention = false
	p.EnableSemanticValidation = false

	noMention := item("a", "a.com", model.SourceGovernment, 1.0, 0.9)
	noMention.MentionsDestination = false
	sim := 0.1
	dissimilar := item("b", "b.com", model.SourceGovernment, 1.0, 0.9)
	dissimilar.SemanticSimilarity = &sim

	result := NewCurator(p).Curate([]model.EvidenceItem{noMention, dissimilar})
	assert.Len(t, result.Kept, 2)
	assert.Empty(t, result.Rejections)
}

func TestCurator_PerSourceCapPrefersRelevanceThenAuthorityThenOrder(t *testing.T) {
	items := []model.EvidenceItem{
		item("1", "same.com", model.SourceNewsMedia, 0.7, 0.6),
		item("2", "same.com", model.SourceNewsMedia, 0.7, 0.9),
		item("3", "same.com", model.SourceNewsMedia, 0.9, 0.6),
		item("4", "same.com", model.SourceNewsMedia, 0.7, 0.6),
		item("5", "same.com", model.SourceNewsMedia, 0.7, 0.6),
	}

	result := NewCurator(defaultPolicy()).Curate(items)

	require.Len(t, result.Kept, 3)
	var ids []string
	for _, k := range result.Kept {
		ids = append(ids, k.ID)
	}
	assert.Equal(t, []string{"2", "3", "1"}, ids)

	require.Len(t, result.Rejections, 2)
	for _, r := range result.Rejections {
		assert.Equal(t, model.RejectSourceCapExceeded, r.Reason)
	}
}

func TestCurator_TruncatesToMaxByCombinedScore(t *testing.T) {
	p := defaultPolicy()
	p.MaxEvidencePieces = 3

	var items []model.EvidenceItem
	for i := 0; i < 6; i++ {
		relevance := 0.5 + float64(i)*0.05
		items = append(items, item(fmt.Sprintf("%d", i), fmt.Sprintf("s%d.com", i), model.SourceNewsMedia, 0.7, relevance))
	}

	result := NewCurator(p).Curate(items)

	require.Len(t, result.Kept, 3)
	assert.Equal(t, "5", result.Kept[0].ID)
	assert.Equal(t, "4", result.Kept[1].ID)
	assert.Equal(t, "3", result.Kept[2].ID)
	require.Len(t, result.Rejections, 3)
	assert.Equal(t, model.RejectMaxEvidenceReached, result.Rejections[0].Reason)
}

func TestCurator_Idempotent(t *testing.T) {
	items := []model.EvidenceItem{
		item("a", "x.com", model.SourceGovernment, 1.0, 0.8),
		item("b", "x.com", model.SourceGovernment, 1.0, 0.8),
		item("c", "x.com", model.SourceGovernment, 1.0, 0.8),
		item("d", "x.com", model.SourceGovernment, 1.0, 0.8),
		item("e", "y.com", model.SourceNewsMedia, 0.7, 0.8),
		item("f", "z.com", model.SourceTravelBlog, 0.5, 0.6),
	}
	curator := NewCurator(defaultPolicy())

	first := curator.Curate(items)
	second := curator.Curate(first.Kept)

	assert.Equal(t, first.Kept, second.Kept)
	assert.Empty(t, second.Rejections)
}

func TestDiversityAnalyzer_Score(t *testing.T) {
	analyzer := NewDiversityAnalyzer(defaultPolicy())

	tests := []struct {
		domains  []string
		unique   int
		expected float64
	}{
		{nil, 0, 0},
		{[]string{"a.com"}, 1, 0.25},
		{[]string{"a.com", "a.com", "b.com"}, 2, 0.5},
		{[]string{"a.com", "b.com", "c.com"}, 3, 0.75},
		{[]string{"a.com", "b.com", "c.com", "d.com", "e.com"}, 5, 1},
	}

	prev := -1.0
	for _, tt := range tests {
		var items []model.EvidenceItem
		for i, d := range tt.domains {
			items = append(items, item(fmt.Sprintf("%d", i), d, model.SourceNewsMedia, 0.7, 0.7))
		}
		got := analyzer.Analyze(items)
		assert.Equal(t, tt.unique, got.UniqueSources)
		assert.InDelta(t, tt.expected, got.Score, 1e-9)
		assert.GreaterOrEqual(t, got.Score, prev)
		prev = got.Score
	}
}

func TestEngine_StatusPrecedence(t *testing.T) {
	strong := []model.EvidenceItem{
		item("g1", "gov.example", model.SourceGovernment, 1.0, 0.8),
		item("m1", "lonelyplanet.com", model.SourceMajorTravel, 0.8, 0.8),
		item("m2", "fodors.com", model.SourceMajorTravel, 0.8, 0.8),
		item("g2", "gov.example", model.SourceGovernment, 1.0, 0.8),
	}

	tests := []struct {
		desc     string
		items    func() []model.EvidenceItem
		expected model.ValidationStatus
	}{
		{
			desc:     "all gates pass",
			items:    func() []model.EvidenceItem { return strong },
			expected: model.StatusValidated,
		},
		{
			desc: "contradicting item wins over passing gates",
			items: func() []model.EvidenceItem {
				out := append([]model.EvidenceItem{}, strong...)
				c := item("c1", "news.example", model.SourceNewsMedia, 0.7, 0.7)
				c.ContradictsTheme = true
				return append(out, c)
			},
			expected: model.StatusConflicting,
		},
		{
			desc: "too few items",
			items: func() []model.EvidenceItem {
				return strong[:2]
			},
			expected: model.StatusPartiallyValidated,
		},
		{
			desc:     "nothing survives",
			items:    func() []model.EvidenceItem { return nil },
			expected: model.StatusUnvalidated,
		},
	}

	engine := NewEngine(defaultPolicy())
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			set := engine.Validate("Beaches", "nature", tt.items(), nil)
			assert.Equal(t, tt.expected, set.Status)
		})
	}
}

func TestEngine_SingleSourceIsPartial(t *testing.T) {
	var items []model.EvidenceItem
	for i := 0; i < 5; i++ {
		items = append(items, item(fmt.Sprintf("e%d", i), "only.example", model.SourceGovernment, 1.0, 0.8))
	}

	set := NewEngine(defaultPolicy()).Validate("Museums", "culture", items, nil)

	assert.Equal(t, model.StatusPartiallyValidated, set.Status)
	assert.True(t, set.MeetsMinEvidence)
	assert.False(t, set.MeetsSourceDiversity)
	assert.True(t, set.MeetsQualityThreshold)
	assert.Equal(t, 3, set.TotalCount)
	assert.Equal(t, 1, set.UniqueSourceCount)
	require.True(t, set.HasGap(model.GapInsufficientDiversity))
	for _, g := range set.Gaps {
		if g.Kind == model.GapInsufficientDiversity {
			assert.Contains(t, g.Description, "source diversity")
		}
	}
}

func TestEngine_EmptySetGapsAndConfidence(t *testing.T) {
	malformed := []model.Rejection{{Reason: model.RejectMalformed, Detail: "missing text"}}

	set := NewEngine(defaultPolicy()).Validate("Nightlife", "entertainment", nil, malformed)

	assert.Equal(t, model.StatusUnvalidated, set.Status)
	assert.Zero(t, set.Confidence)
	assert.Empty(t, set.StrongestEvidence)
	assert.NotNil(t, set.Evidence)
	require.Len(t, set.Gaps, 2)
	assert.Equal(t, model.GapNoEvidence, set.Gaps[0].Kind)
	assert.Equal(t, model.GapMalformedRecords, set.Gaps[1].Kind)
	assert.Equal(t, "1 malformed evidence records skipped", set.Gaps[1].Description)
	assert.Len(t, set.Rejections, 1)
}

func TestEngine_InsufficientEvidenceGapWording(t *testing.T) {
	items := []model.EvidenceItem{item("a", "a.gov", model.SourceGovernment, 1.0, 0.9)}

	set := NewEngine(defaultPolicy()).Validate("Hiking", "nature", items, nil)

	require.True(t, set.HasGap(model.GapInsufficientEvidence))
	assert.Equal(t, "only 1 of 3 required evidence pieces", set.Gaps[0].Description)
}

func TestEngine_ConfidenceAndStrongest(t *testing.T) {
	items := []model.EvidenceItem{
		item("b", "a.com", model.SourceMajorTravel, 0.8, 1.0),
		item("a", "b.com", model.SourceMajorTravel, 0.8, 1.0),
		item("c", "c.com", model.SourceNewsMedia, 0.7, 0.9),
	}

	set := NewEngine(defaultPolicy()).Validate("Food", "culinary", items, nil)

	// 0.4*1 + 0.3*1 + 0.3*(2.3/3)
	assert.InDelta(t, 0.93, set.Confidence, 1e-9)
	assert.Equal(t, "a", set.StrongestEvidence)
	assert.True(t, set.HasGap(model.GapMissingOfficial))
	assert.False(t, set.HasGap(model.GapMissingMajorTravel))
	assert.True(t, set.HasGap(model.GapNoExcellentEvidence))
}
