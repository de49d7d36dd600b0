package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/ppiankov/themecheck/internal/model"
)

// AuthorityResolver maps a source classification to its authority weight
type AuthorityResolver struct {
	weights model.AuthorityWeights
}

// NewAuthorityResolver creates a resolver over the policy's weight table
func NewAuthorityResolver(policy *model.ValidationPolicy) *AuthorityResolver {
	if policy == nil || policy.AuthorityWeights.IsZero() {
		return &AuthorityResolver{weights: model.DefaultAuthorityWeights()}
	}
	return &AuthorityResolver{weights: policy.AuthorityWeights}
}

// Weight returns the authority weight for t. It never fails: a classification
// absent from the table resolves to the unknown weight.
func (r *AuthorityResolver) Weight(t model.SourceType) float64 {
	return r.weights.Weight(t)
}

// SourceClassifier derives a source classification from a URL and page title.
// It is used for records that arrive without a source tag.
type SourceClassifier struct {
	domainMap map[string]model.SourceType
	patterns  []*compiledPattern
}

type compiledPattern struct {
	pattern    *regexp.Regexp
	sourceType model.SourceType
}

// classificationPatterns are checked in order against "url title"
var classificationPatterns = []struct {
	sourceType model.SourceType
	patterns   []string
}{
	{model.SourceGovernment, []string{
		`\.gov\b`, `official.*tourism`, `city.*hall`, `municipal`,
		`department.*tourism`, `visitor.*bureau`, `convention.*bureau`,
	}},
	{model.SourceEducation, []string{
		`\.edu\b`, `university`, `college`, `academic`, `research`,
		`scholar`, `journal`, `study`,
	}},
	{model.SourceMajorTravel, []string{
		`tripadvisor`, `lonely.*planet`, `fodors`, `frommers`,
		`rick.*steves`, `national.*geographic`, `conde.*nast`,
		`travel.*leisure`, `rough.*guide`,
	}},
	{model.SourceNewsMedia, []string{
		`cnn`, `bbc`, `reuters`, `associated.*press`, `times`,
		`guardian`, `post`, `news`, `magazine`,
	}},
	{model.SourceTourismBoard, []string{
		`visit`, `tourism.*board`, `destination`, `explore`,
		`discover`, `travel.*board`,
	}},
	{model.SourceTravelBlog, []string{
		`blog`, `travel.*diary`, `journey`, `nomad`, `backpack`, `wanderlust`,
	}},
	{model.SourceLocalBusiness, []string{
		`restaurant`, `hotel`, `shop`, `tour.*guide`, `local.*business`,
		`yelp`, `foursquare`, `google.*reviews`,
	}},
	{model.SourceSocialMedia, []string{
		`instagram`, `facebook`, `twitter`, `tiktok`, `youtube`,
		`social`, `influencer`, `vlog`,
	}},
}

// NewSourceClassifier creates a classifier. domainMap maps hosts (or parent
// domains) to source type tags and takes precedence over the pattern table;
// entries with unrecognised tags are ignored.
func NewSourceClassifier(domainMap map[string]string) *SourceClassifier {
	classifier := &SourceClassifier{
		domainMap: make(map[string]model.SourceType),
		patterns:  make([]*compiledPattern, 0),
	}

	for host, tag := range domainMap {
		if t, err := model.ParseSourceType(tag); err == nil {
			classifier.domainMap[strings.ToLower(strings.TrimPrefix(host, "www."))] = t
		}
	}

	for _, group := range classificationPatterns {
		for _, p := range group.patterns {
			classifier.patterns = append(classifier.patterns, &compiledPattern{
				pattern:    regexp.MustCompile(p),
				sourceType: group.sourceType,
			})
		}
	}

	return classifier
}

// Classify classifies a source into a SourceType; SourceUnknown when nothing matches
func (c *SourceClassifier) Classify(rawURL, title string) model.SourceType {
	host := Domain(rawURL)

	// Explicit mappings, exact host first, then parent domains
	if t, ok := c.domainMap[host]; ok {
		return t
	}
	for domain, t := range c.domainMap {
		if strings.HasSuffix(host, "."+domain) {
			return t
		}
	}

	// TLDs that reliably indicate the institution type
	switch {
	case strings.HasSuffix(host, ".gov") || strings.HasPrefix(host, "gov.") || strings.Contains(host, ".gov."):
		return model.SourceGovernment
	case strings.HasSuffix(host, ".edu") || strings.Contains(host, ".edu.") || strings.Contains(host, ".ac."):
		return model.SourceEducation
	}

	combined := strings.ToLower(rawURL + " " + title)
	for _, cp := range c.patterns {
		if cp.pattern.MatchString(combined) {
			return cp.sourceType
		}
	}

	return model.SourceUnknown
}

// Domain returns the lowercase host of rawURL without port or "www." prefix.
// Unparseable or host-less values are returned lowercased and trimmed so they
// still group consistently.
func Domain(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Hostname() == "" {
		// Scheme-less input such as "example.com/page"
		if parsed2, err2 := url.Parse("http://" + trimmed); err2 == nil && parsed2.Hostname() != "" && !strings.Contains(trimmed, "://") {
			return strings.TrimPrefix(strings.ToLower(parsed2.Hostname()), "www.")
		}
		return strings.ToLower(trimmed)
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}
