package classifier

import (
	"regexp"
	"strings"
	"time"
)

// categoryPatterns holds the compiled patterns for one category. preCheck is
// a single regex built from the alternation of every pattern in the
// category — Go's regexp package has no RegexSet type, so preCheck stands in
// for Rust's RegexSet::is_match fast path: a single combined match attempt
// before walking the individual patterns to find which one (and where) hit.
type categoryPatterns struct {
	category   Category
	preCheck   *regexp.Regexp
	patterns   []*regexp.Regexp
	confidence float64
}

// KeywordClassifier is the Tier-1 regex/keyword classifier. Immutable after
// construction; safe for concurrent read-only use.
type KeywordClassifier struct {
	patterns []categoryPatterns
}

// NewKeywordClassifier builds the Tier-1 classifier with the default,
// built-in category pattern sets.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{patterns: defaultPatternSets()}
}

// Classify scans text against every category's patterns and returns at most
// one match per category — the first pattern in source order that matches,
// mirroring the original keyword classifier exactly.
func (k *KeywordClassifier) Classify(text string) ClassificationResult {
	start := time.Now()
	lower := strings.ToLower(text)

	var matches []CategoryMatch
	for _, cp := range k.patterns {
		if !cp.preCheck.MatchString(lower) {
			continue
		}
		for _, re := range cp.patterns {
			loc := re.FindStringIndex(lower)
			if loc == nil {
				continue
			}
			matches = append(matches, CategoryMatch{
				Category:       cp.category,
				Confidence:     cp.confidence,
				MatchedPattern: lower[loc[0]:loc[1]],
				Tier:           TierKeyword,
			})
			break
		}
	}

	durationUS := time.Since(start).Microseconds()
	if len(matches) == 0 {
		return Safe(durationUS)
	}
	return WithMatches(matches, durationUS)
}

func buildCategoryPatterns(category Category, patterns []string, confidence float64) categoryPatterns {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	pre := regexp.MustCompile(strings.Join(patterns, "|"))
	return categoryPatterns{category: category, preCheck: pre, patterns: compiled, confidence: confidence}
}

func defaultPatternSets() []categoryPatterns {
	return []categoryPatterns{
		buildCategoryPatterns(CategoryViolence, violencePatterns, 0.95),
		buildCategoryPatterns(CategorySelfHarm, selfHarmPatterns, 0.95),
		buildCategoryPatterns(CategoryAdult, adultPatterns, 0.95),
		buildCategoryPatterns(CategoryJailbreak, jailbreakPatterns, 0.90),
		buildCategoryPatterns(CategoryHate, hatePatterns, 0.95),
		buildCategoryPatterns(CategoryIllegal, illegalPatterns, 0.95),
	}
}

// Pattern lists below are ported from the pre-Go keyword classifier, word
// boundary anchored throughout to avoid matches inside unrelated words
// ("skill" must not match "kill").
var violencePatterns = []string{
	`\b(kill|murder|assassinate)\s+(someone|people|him|her|them)\b`,
	`\bhow\s+to\s+(kill|murder|assassinate)\b`,
	`\b(bomb|explosive)\s+(making|instructions|build)\b`,
	`\bmake\s+a\s+(bomb|explosive|weapon)\b`,
	`\b(mass\s+shooting|school\s+shooting|terrorist\s+attack)\b`,
	`\btorture\s+(someone|people|methods)\b`,
}

var selfHarmPatterns = []string{
	`\bhow\s+to\s+(kill|hurt)\s+(myself|yourself)\b`,
	`\b(suicide|suicidal)\s+(methods|ways|how)\b`,
	`\bways\s+to\s+(end|take)\s+(my|your)\s+life\b`,
	`\bself[- ]harm\s+(methods|ways|tips)\b`,
	`\bbest\s+way\s+to\s+(die|end\s+it)\b`,
}

var adultPatterns = []string{
	`\b(explicit|graphic)\s+(sex|sexual)\b`,
	`\bwrite\s+(porn|erotica|smut)\b`,
	`\b(child|minor|underage)\s+(porn|sexual|nude)\b`,
	`\bsexual\s+content\s+(involving|with)\s+(child|minor)\b`,
}

var jailbreakPatterns = []string{
	`\bignore\s+(all\s+)?(previous|your)\s+(instructions|rules|guidelines)\b`,
	`\bignore\s+your\s+(instructions|rules|guidelines)\b`,
	`\bpretend\s+(you\s+are|to\s+be|you're)\s+(evil|unrestricted|unfiltered)\b`,
	`\b(dan|developer)\s*mode\b`,
	`\byou\s+are\s+now\s+(free|unrestricted|unfiltered)\b`,
	`\bbypass\s+(safety|content|ethical)\s*(filters?|restrictions?|guidelines?)?\b`,
	`\bdisable\s+(safety|content|ethical)\s*(filters?|mode)?\b`,
	`\bact\s+as\s+(an?\s+)?(evil|unethical|unrestricted)\b`,
	`\broleplay\s+as\s+(an?\s+)?(evil|villain|criminal)\b`,
	`\bjailbreak\s*(prompt|mode)?\b`,
}

var hatePatterns = []string{
	`\b(hate|kill|eliminate)\s+(all\s+)?(jews|muslims|blacks|whites|asians|gays|immigrants)\b`,
	`\b(racial|ethnic)\s+(cleansing|genocide|extermination)\b`,
	`\b(master\s+race|white\s+power|racial\s+purity)\b`,
	`\bwrite\s+(hate\s+)?speech\s+(against|targeting)\b`,
}

var illegalPatterns = []string{
	`\bhow\s+to\s+(make|cook|synthesize)\s+(meth|cocaine|heroin|fentanyl)\b`,
	`\b(drug|meth)\s+(recipe|synthesis|manufacturing)\b`,
	`\bhack\s+into\s+(\S+\s+)?(bank|account|computer|system)\b`,
	`\bhack\s+someone'?s\s+(bank|account|computer|email)\b`,
	`\bsteal\s+(identity|credit\s+card|personal\s+data)\b`,
	`\bcreate\s+(fake|counterfeit)\s+(id|passport|money)\b`,
	`\blaunder\s+money\b`,
	`\bhuman\s+trafficking\b`,
}
