package score

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ppiankov/themecheck/internal/model"
	"github.com/ppiankov/themecheck/internal/validate"
)

// evidenceNamespace scopes derived evidence ids
var evidenceNamespace = uuid.MustParse("6f1c3b9e-4a52-5d7e-9b0a-2e8c41d7f305")

// EvidenceScorer turns raw evidence records into scored items
type EvidenceScorer struct {
	policy     *model.ValidationPolicy
	resolver   *validate.AuthorityResolver
	classifier *validate.SourceClassifier
}

// NewEvidenceScorer creates a scorer. classifier may be nil, in which case
// records without a source tag are malformed.
func NewEvidenceScorer(policy *model.ValidationPolicy, classifier *validate.SourceClassifier) *EvidenceScorer {
	return &EvidenceScorer{
		policy:     policy,
		resolver:   validate.NewAuthorityResolver(policy),
		classifier: classifier,
	}
}

// Score scores one raw record against the destination and theme keywords.
// index is the record's position in the theme input and only feeds id derivation.
func (s *EvidenceScorer) Score(raw model.RawEvidence, destination string, keywords []string, index int) (model.EvidenceItem, error) {
	text := strings.TrimSpace(raw.Text)
	sourceURL := strings.TrimSpace(raw.SourceURL)

	switch {
	case text == "":
		return model.EvidenceItem{}, model.WrapError(model.ErrMalformedEvidence, "score evidence", errors.New("missing text"))
	case sourceURL == "":
		return model.EvidenceItem{}, model.WrapError(model.ErrMalformedEvidence, "score evidence", errors.New("missing source url"))
	}

	sourceType, err := s.sourceType(raw)
	if err != nil {
		return model.EvidenceItem{}, model.WrapError(model.ErrMalformedEvidence, "score evidence", err)
	}

	if raw.SemanticSimilarity != nil {
		if v := *raw.SemanticSimilarity; math.IsNaN(v) || v < 0 || v > 1 {
			return model.EvidenceItem{}, model.WrapError(model.ErrMalformedEvidence, "score evidence",
				fmt.Errorf("semantic similarity %v outside [0,1]", v))
		}
	}

	stored := truncateRunes(text, model.MaxEvidenceTextLength)
	matched := MatchKeywords(text, keywords)
	authority := s.resolver.Weight(sourceType)
	relevance := s.relevance(len(matched), len(distinctKeywords(keywords)), raw.SemanticSimilarity)

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = uuid.NewSHA1(evidenceNamespace, []byte(fmt.Sprintf("%d\n%s\n%s", index, sourceURL, text))).String()
	}

	return model.EvidenceItem{
		ID:                  id,
		Text:                stored,
		SourceURL:           sourceURL,
		Domain:              validate.Domain(sourceURL),
		SourceTitle:         strings.TrimSpace(raw.SourceTitle),
		SourceType:          sourceType,
		AuthorityScore:      authority,
		Quality:             s.tier(authority, relevance, len([]rune(text))),
		RelevanceScore:      relevance,
		WordCount:           len(strings.Fields(text)),
		MentionsDestination: MentionsDestination(text, destination),
		MatchedKeywords:     matched,
		SemanticSimilarity:  raw.SemanticSimilarity,
		ContradictsTheme:    raw.ContradictsTheme,
	}, nil
}

func (s *EvidenceScorer) sourceType(raw model.RawEvidence) (model.SourceType, error) {
	if strings.TrimSpace(raw.SourceType) == "" {
		if s.classifier == nil {
			return "", errors.New("missing source type")
		}
		return s.classifier.Classify(raw.SourceURL, raw.SourceTitle), nil
	}
	return model.ParseSourceType(raw.SourceType)
}

// relevance blends keyword coverage with semantic similarity when enabled
func (s *EvidenceScorer) relevance(matched, total int, similarity *float64) float64 {
	var coverage float64
	if total > 0 {
		coverage = float64(matched) / float64(total)
	}

	r := coverage
	if s.policy.EnableSemanticValidation && similarity != nil {
		w := s.policy.KeywordRelevanceWeight
		r = w*coverage + (1-w)*(*similarity)
	}

	return clamp01(r)
}

// tier maps authority and relevance onto the quality bands
func (s *EvidenceScorer) tier(authority, relevance float64, length int) model.QualityTier {
	b := s.policy.QualityBands

	switch {
	case length < s.policy.MinContentLength:
		return model.QualityRejected
	case authority >= b.ExcellentAuthority && relevance >= b.ExcellentRelevance:
		return model.QualityExcellent
	case authority >= b.GoodAuthority && relevance >= b.GoodRelevance:
		return model.QualityGood
	case authority >= b.AcceptableAuthority && relevance >= b.AcceptableRelevance:
		return model.QualityAcceptable
	case authority >= b.PoorAuthority:
		return model.QualityPoor
	default:
		return model.QualityRejected
	}
}

// MatchKeywords returns the distinct keywords found in text, in keyword order
func MatchKeywords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	matched := make([]string, 0)
	for _, kw := range distinctKeywords(keywords) {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func distinctKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// MentionsDestination reports whether text names the destination. Matching is
// case-insensitive, ignores punctuation and accepts the part before the first
// comma ("Paris" for "Paris, France").
func MentionsDestination(text, destination string) bool {
	haystack := " " + normalize(text) + " "

	candidates := []string{normalize(destination)}
	if head, _, found := strings.Cut(destination, ","); found {
		candidates = append(candidates, normalize(head))
	}

	for _, c := range candidates {
		if c != "" && strings.Contains(haystack, " "+c+" ") {
			return true
		}
	}
	return false
}

// normalize lowercases and collapses every run of non-alphanumerics to one space
func normalize(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
