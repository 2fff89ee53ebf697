// Package availability estimates whether a domain is free to register.
//
// Nothing here touches the network. The estimate comes from static word lists
// and length thresholds evaluated as an ordered rule list, so the same domain
// always classifies the same way.
package availability

import (
	"context"
	"strings"

	"namesmith/internal/domain"
)

// Estimator classifies a full domain such as "cloudflow.io".
type Estimator interface {
	Estimate(ctx context.Context, fullDomain string) (domain.Status, error)
}

// EstimatorFunc adapts a plain function to the Estimator interface.
type EstimatorFunc func(ctx context.Context, fullDomain string) (domain.Status, error)

func (f EstimatorFunc) Estimate(ctx context.Context, fullDomain string) (domain.Status, error) {
	return f(ctx, fullDomain)
}

// Rule is one step of the classification cascade. Match returns ok=false when
// the rule has nothing to say about the domain.
type Rule struct {
	Tag   string
	Match func(label, ext, fullDomain string) (status domain.Status, ok bool)
}

var wellKnownDomains = toSet(
	"google.com", "facebook.com", "amazon.com", "apple.com", "microsoft.com",
	"netflix.com", "twitter.com", "x.com", "instagram.com", "linkedin.com",
	"youtube.com", "github.com", "gitlab.com", "stripe.com", "shopify.com",
	"slack.com", "zoom.us", "dropbox.com", "airbnb.com", "uber.com",
	"spotify.com", "paypal.com", "salesforce.com", "adobe.com", "oracle.com",
	"ibm.com", "intel.com", "nvidia.com", "tesla.com", "reddit.com",
	"wikipedia.org", "mozilla.org", "openai.com", "notion.so", "figma.com",
	"canva.com", "atlassian.com", "heroku.com", "vercel.com", "netlify.com",
	"cloudflare.com", "digitalocean.com", "twilio.com", "hubspot.com", "mailchimp.com",
	"google.io", "github.io", "angel.co", "medium.com", "wordpress.com",
)

var stopWords = toSet(
	"the", "and", "for", "you", "are", "but", "not", "all", "any", "can",
	"her", "was", "one", "our", "out", "get", "has", "him", "his", "how",
	"its", "may", "new", "now", "old", "see", "two", "who", "way", "did",
	"about", "after", "again", "being", "below", "could", "every", "first",
	"found", "great", "hello", "house", "large", "learn", "never", "other",
	"place", "plant", "point", "right", "small", "sound", "spell", "still",
	"study", "their", "there", "these", "thing", "think", "three", "water",
	"where", "which", "world", "would", "write", "people", "little", "before",
)

var genericComWords = toSet(
	"cloud", "data", "tech", "smart", "digital", "online", "global", "network",
	"software", "systems", "solutions", "services", "media", "group", "labs",
	"studio", "design", "market", "marketing", "consulting", "analytics",
	"ventures", "capital", "partners", "holdings", "enterprise", "business",
	"startup", "platform", "innovate", "innovation", "connect", "company",
	"creative", "agency", "finance", "health", "energy", "security", "mobile",
)

var newGTLDs = toSet(".io", ".co", ".app", ".dev", ".tech", ".ai", ".me")

// Rules is the classification cascade, evaluated top to bottom.
var Rules = []Rule{
	{Tag: "well-known", Match: func(_, _, full string) (domain.Status, bool) {
		if _, ok := wellKnownDomains[full]; ok {
			return domain.StatusTaken, true
		}
		return "", false
	}},
	{Tag: "short-label", Match: func(label, _, _ string) (domain.Status, bool) {
		if len(label) <= 4 {
			return domain.StatusTaken, true
		}
		return "", false
	}},
	{Tag: "stop-word", Match: func(label, _, _ string) (domain.Status, bool) {
		if _, ok := stopWords[label]; ok {
			return domain.StatusTaken, true
		}
		return "", false
	}},
	{Tag: "com-generic", Match: func(label, ext, _ string) (domain.Status, bool) {
		if ext != ".com" {
			return "", false
		}
		if _, generic := genericComWords[label]; generic || len(label) <= 6 {
			return domain.StatusTaken, true
		}
		return domain.StatusAvailable, true
	}},
	{Tag: "new-gtld", Match: func(_, ext, _ string) (domain.Status, bool) {
		if _, ok := newGTLDs[ext]; ok {
			return domain.StatusAvailable, true
		}
		return "", false
	}},
	{Tag: "net-org", Match: func(label, ext, _ string) (domain.Status, bool) {
		if ext != ".net" && ext != ".org" {
			return "", false
		}
		if len(label) <= 5 {
			return domain.StatusTaken, true
		}
		return domain.StatusAvailable, true
	}},
	{Tag: "fallthrough", Match: func(_, _, _ string) (domain.Status, bool) {
		return domain.StatusAvailable, true
	}},
}

// Heuristic is the rule-based Estimator. The zero value uses Rules.
type Heuristic struct {
	Rules []Rule
}

// Estimate never fails.
func (h Heuristic) Estimate(_ context.Context, fullDomain string) (domain.Status, error) {
	rules := h.Rules
	if rules == nil {
		rules = Rules
	}
	status, _ := classify(rules, fullDomain)
	return status, nil
}

// Classify runs the default rule cascade over fullDomain.
func Classify(fullDomain string) domain.Status {
	status, _ := classify(Rules, fullDomain)
	return status
}

// MatchedRule returns the tag of the rule that decided fullDomain.
func MatchedRule(fullDomain string) string {
	_, tag := classify(Rules, fullDomain)
	return tag
}

func classify(rules []Rule, fullDomain string) (domain.Status, string) {
	full := strings.ToLower(strings.TrimSpace(fullDomain))
	label, ext := SplitDomain(full)
	for _, r := range rules {
		if status, ok := r.Match(label, ext, full); ok {
			return status, r.Tag
		}
	}
	return domain.StatusUnknown, ""
}

// SplitDomain separates "name.ext" into "name" and ".ext". A domain without a
// dot has an empty extension.
func SplitDomain(fullDomain string) (label, ext string) {
	i := strings.LastIndex(fullDomain, ".")
	if i < 0 {
		return fullDomain, ""
	}
	return fullDomain[:i], fullDomain[i:]
}

func toSet(items ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
