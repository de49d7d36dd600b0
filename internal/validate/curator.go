package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/themecheck/internal/model"
)

// CurationResult holds the surviving items in rank order and one rejection per dropped item
type CurationResult struct {
	Kept       []model.EvidenceItem
	Rejections []model.Rejection
}

// Curator filters scored evidence down to a bounded, source-capped set
type Curator struct {
	policy *model.ValidationPolicy
}

// NewCurator creates a curator for the given policy
func NewCurator(policy *model.ValidationPolicy) *Curator {
	return &Curator{policy: policy}
}

// ranked pairs an item with its input position so ties stay stable
type ranked struct {
	item model.EvidenceItem
	pos  int
}

// Curate applies the filters, the per-source cap and the total cap in that order.
// Feeding Kept back into Curate returns the same Kept.
func (c *Curator) Curate(items []model.EvidenceItem) CurationResult {
	p := c.policy
	result := CurationResult{
		Kept:       make([]model.EvidenceItem, 0, len(items)),
		Rejections: make([]model.Rejection, 0),
	}

	var passing []ranked
	for i, item := range items {
		if reason, detail, ok := c.filter(item); !ok {
			result.Rejections = append(result.Rejections, rejection(item, reason, detail))
			continue
		}
		passing = append(passing, ranked{item: item, pos: i})
	}

	// Per-source cap: within a domain prefer relevance, then authority, then position
	byDomain := make(map[string][]ranked)
	var domains []string
	for _, r := range passing {
		if _, seen := byDomain[r.item.Domain]; !seen {
			domains = append(domains, r.item.Domain)
		}
		byDomain[r.item.Domain] = append(byDomain[r.item.Domain], r)
	}

	var capped []ranked
	for _, domain := range domains {
		group := byDomain[domain]
		sort.SliceStable(group, func(i, j int) bool {
			a, b := group[i], group[j]
			if a.item.RelevanceScore != b.item.RelevanceScore {
				return a.item.RelevanceScore > b.item.RelevanceScore
			}
			if a.item.AuthorityScore != b.item.AuthorityScore {
				return a.item.AuthorityScore > b.item.AuthorityScore
			}
			return a.pos < b.pos
		})
		for i, r := range group {
			if i >= p.MaxEvidencePerSource {
				result.Rejections = append(result.Rejections, rejection(r.item, model.RejectSourceCapExceeded,
					fmt.Sprintf("source %s already contributes %d items", domain, p.MaxEvidencePerSource)))
				continue
			}
			capped = append(capped, r)
		}
	}

	// Total cap by combined score
	sort.SliceStable(capped, func(i, j int) bool {
		a, b := capped[i], capped[j]
		sa := a.item.AuthorityScore + a.item.RelevanceScore
		sb := b.item.AuthorityScore + b.item.RelevanceScore
		if sa != sb {
			return sa > sb
		}
		if a.item.RelevanceScore != b.item.RelevanceScore {
			return a.item.RelevanceScore > b.item.RelevanceScore
		}
		if a.item.AuthorityScore != b.item.AuthorityScore {
			return a.item.AuthorityScore > b.item.AuthorityScore
		}
		return a.pos < b.pos
	})

	for i, r := range capped {
		if i >= p.MaxEvidencePieces {
			result.Rejections = append(result.Rejections, rejection(r.item, model.RejectMaxEvidenceReached,
				fmt.Sprintf("limit of %d evidence pieces reached", p.MaxEvidencePieces)))
			continue
		}
		result.Kept = append(result.Kept, r.item)
	}

	return result
}

// filter reports whether an item survives the per-item thresholds
func (c *Curator) filter(item model.EvidenceItem) (model.RejectionReason, string, bool) {
	p := c.policy

	if item.Quality == model.QualityRejected {
		return model.RejectQuality, "quality below minimum standards", false
	}
	if item.AuthorityScore < p.MinAuthorityScore {
		return model.RejectLowAuthority,
			fmt.Sprintf("authority %.2f below %.2f", item.AuthorityScore, p.MinAuthorityScore), false
	}
	if item.RelevanceScore < p.MinRelevanceScore {
		return model.RejectLowRelevance,
			fmt.Sprintf("relevance %.2f below %.2f", item.RelevanceScore, p.MinRelevanceScore), false
	}
	if p.EnableSemanticValidation && item.SemanticSimilarity != nil &&
		*item.SemanticSimilarity < p.SemanticSimilarityThreshold {
		return model.RejectLowSimilarity,
			fmt.Sprintf("similarity %.2f below %.2f", *item.SemanticSimilarity, p.SemanticSimilarityThreshold), false
	}
	if p.RequireDestinationMention && !item.MentionsDestination {
		return model.RejectNoDestination, "destination not mentioned", false
	}
	return "", "", true
}

func rejection(item model.EvidenceItem, reason model.RejectionReason, detail string) model.Rejection {
	return model.Rejection{
		EvidenceID: item.ID,
		SourceURL:  item.SourceURL,
		Reason:     reason,
		Detail:     detail,
	}
}
