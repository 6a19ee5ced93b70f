package classifier

import (
	"strings"
)

// SentimentFlag is the closed set of advisory-only flags the sentiment tier
// can raise. Unlike the Tier-1/Tier-2/Tier-3 categories, these never feed
// into a block decision — only "flag for review".
type SentimentFlag string

const (
	SentimentDistress          SentimentFlag = "distress"
	SentimentCrisisIndicator   SentimentFlag = "crisis_indicator"
	SentimentBullying          SentimentFlag = "bullying"
	SentimentNegativeSentiment SentimentFlag = "negative_sentiment"
)

func allSentimentFlags() []SentimentFlag {
	return []SentimentFlag{SentimentDistress, SentimentCrisisIndicator, SentimentBullying, SentimentNegativeSentiment}
}

// Name returns the human-readable flag name.
func (f SentimentFlag) Name() string {
	switch f {
	case SentimentDistress:
		return "Emotional Distress"
	case SentimentCrisisIndicator:
		return "Crisis Indicator"
	case SentimentBullying:
		return "Bullying"
	case SentimentNegativeSentiment:
		return "Negative Sentiment"
	default:
		return string(f)
	}
}

// SentimentMatch is one flagged outcome from the sentiment tier.
type SentimentMatch struct {
	Flag            SentimentFlag
	Confidence      float64
	MatchedPhrases  []string
}

// DefaultSentimentThreshold is the minimum confidence for a flag to be
// reported.
const DefaultSentimentThreshold = 0.6

type lexiconEntry struct {
	valence float64
	weight  float64
	flags   []SentimentFlag
}

type phrasePattern struct {
	phrase     string
	confidence float64
}

// SentimentClassifier is the lexicon-driven, advisory-only sentiment tier.
// Ported from the original source's word/phrase/intensifier/negation
// lexicons; see keyword.go's header comment for the same porting approach.
type SentimentClassifier struct {
	threshold     float64
	lexicon       map[string]lexiconEntry
	intensifiers  map[string]float64
	negations     map[string]struct{}
	phrasePattern map[SentimentFlag][]phrasePattern
}

// NewSentimentClassifier builds the sentiment tier with default lexicons.
func NewSentimentClassifier(threshold float64) *SentimentClassifier {
	s := &SentimentClassifier{
		threshold:     threshold,
		lexicon:       map[string]lexiconEntry{},
		intensifiers:  map[string]float64{},
		negations:     map[string]struct{}{},
		phrasePattern: map[SentimentFlag][]phrasePattern{},
	}
	s.loadIntensifiers()
	s.loadNegations()
	s.loadWordLexicon()
	s.loadPhrasePatterns()
	return s
}

// Classify runs the sentiment pipeline and returns every flag whose
// confidence meets the configured threshold.
func (s *SentimentClassifier) Classify(text string) []SentimentMatch {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)

	overall := s.overallSentiment(words)

	var matches []SentimentMatch
	matchedFlags := map[SentimentFlag]bool{}

	for _, flag := range allSentimentFlags() {
		patterns := s.phrasePattern[flag]
		var matchedPhrases []string
		maxConfidence := 0.0
		for _, p := range patterns {
			if strings.Contains(lower, p.phrase) {
				matchedPhrases = append(matchedPhrases, p.phrase)
				if p.confidence > maxConfidence {
					maxConfidence = p.confidence
				}
			}
		}
		if len(matchedPhrases) > 0 && maxConfidence >= s.threshold {
			matches = append(matches, SentimentMatch{Flag: flag, Confidence: maxConfidence, MatchedPhrases: matchedPhrases})
			matchedFlags[flag] = true
		}
	}

	for _, flag := range allSentimentFlags() {
		if matchedFlags[flag] {
			continue
		}
		confidence, words := s.flagScore(words, flag)
		if confidence >= s.threshold && len(words) > 0 {
			matches = append(matches, SentimentMatch{Flag: flag, Confidence: confidence, MatchedPhrases: words})
			matchedFlags[flag] = true
		}
	}

	if !matchedFlags[SentimentNegativeSentiment] && overall < -0.5 {
		confidence := -overall
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence >= s.threshold {
			matches = append(matches, SentimentMatch{
				Flag:           SentimentNegativeSentiment,
				Confidence:     confidence,
				MatchedPhrases: []string{"overall negative tone"},
			})
		}
	}

	return matches
}

func (s *SentimentClassifier) overallSentiment(words []string) float64 {
	if len(words) == 0 {
		return 0
	}

	var totalScore, totalWeight float64
	negationActive := false
	negationDistance := 0
	pendingIntensifier := 1.0

	for _, word := range words {
		if _, ok := s.negations[word]; ok {
			negationActive = true
			negationDistance = 0
			continue
		}
		if boost, ok := s.intensifiers[word]; ok {
			pendingIntensifier = boost
			continue
		}
		if entry, ok := s.lexicon[word]; ok {
			score := entry.valence * entry.weight * pendingIntensifier
			if negationActive && negationDistance < 3 {
				score = -score * 0.7
			}
			totalScore += score
			totalWeight += entry.weight
			pendingIntensifier = 1.0
		}
		if negationActive {
			negationDistance++
			if negationDistance >= 3 {
				negationActive = false
			}
		}
	}

	if totalWeight == 0 {
		return 0
	}
	v := totalScore / totalWeight
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func (s *SentimentClassifier) flagScore(words []string, flag SentimentFlag) (float64, []string) {
	var matched []string
	totalWeight := 0.0
	for _, word := range words {
		entry, ok := s.lexicon[word]
		if !ok {
			continue
		}
		for _, f := range entry.flags {
			if f == flag {
				matched = append(matched, word)
				totalWeight += entry.weight
				break
			}
		}
	}
	if len(matched) == 0 {
		return 0, nil
	}
	base := 0.5 + float64(len(matched))*0.1
	weightBonus := totalWeight / 5.0
	if weightBonus > 0.3 {
		weightBonus = 0.3
	}
	confidence := base + weightBonus
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence, matched
}

func (s *SentimentClassifier) loadIntensifiers() {
	for word, boost := range map[string]float64{
		"very": 1.3, "really": 1.3, "extremely": 1.5, "absolutely": 1.5,
		"totally": 1.3, "so": 1.2, "incredibly": 1.4, "terribly": 1.4,
		"deeply": 1.3, "always": 1.2, "never": 1.2, "completely": 1.4,
	} {
		s.intensifiers[word] = boost
	}
}

func (s *SentimentClassifier) loadNegations() {
	for _, word := range []string{
		"not", "no", "never", "none", "nobody", "nothing", "neither", "nowhere",
		"cannot", "can't", "don't", "doesn't", "didn't", "won't", "wouldn't",
		"couldn't", "shouldn't", "isn't", "aren't", "wasn't", "weren't",
		"haven't", "hasn't", "hadn't",
	} {
		s.negations[word] = struct{}{}
	}
}

type wordEntry struct {
	word    string
	valence float64
	weight  float64
}

func (s *SentimentClassifier) loadWordLexicon() {
	distress := []wordEntry{
		{"sad", -0.7, 1.0}, {"depressed", -0.9, 1.2}, {"lonely", -0.8, 1.1},
		{"alone", -0.6, 1.0}, {"hopeless", -0.9, 1.2}, {"worthless", -0.9, 1.2},
		{"helpless", -0.8, 1.1}, {"miserable", -0.8, 1.1}, {"empty", -0.6, 0.9},
		{"anxious", -0.7, 1.0}, {"worried", -0.5, 0.8}, {"scared", -0.6, 0.9},
		{"afraid", -0.6, 0.9}, {"terrified", -0.8, 1.1}, {"crying", -0.6, 1.0},
		{"tears", -0.5, 0.9}, {"heartbroken", -0.8, 1.1}, {"devastated", -0.9, 1.2},
		{"exhausted", -0.5, 0.8}, {"overwhelmed", -0.7, 1.0}, {"struggling", -0.6, 0.9},
		{"suffering", -0.8, 1.1}, {"pain", -0.6, 0.9}, {"hurt", -0.6, 0.9},
		{"broken", -0.7, 1.0}, {"lost", -0.5, 0.8}, {"confused", -0.4, 0.7},
		{"trapped", -0.7, 1.0}, {"stuck", -0.5, 0.8}, {"failure", -0.7, 1.0},
		{"failed", -0.6, 0.9}, {"rejected", -0.7, 1.0}, {"abandoned", -0.8, 1.1},
		{"ignored", -0.6, 0.9}, {"invisible", -0.6, 0.9}, {"unwanted", -0.8, 1.1},
		{"unloved", -0.8, 1.1},
	}
	for _, e := range distress {
		s.lexicon[e.word] = lexiconEntry{valence: e.valence, weight: e.weight, flags: []SentimentFlag{SentimentDistress}}
	}

	crisis := []wordEntry{
		{"suicide", -1.0, 1.5}, {"suicidal", -1.0, 1.5}, {"die", -0.8, 1.2},
		{"dying", -0.8, 1.2}, {"death", -0.7, 1.0}, {"dead", -0.7, 1.0},
		{"kill", -0.9, 1.3}, {"cutting", -0.8, 1.2}, {"harm", -0.7, 1.0},
		{"ending", -0.5, 0.9}, {"disappear", -0.6, 1.0}, {"goodbye", -0.4, 0.8},
		{"burden", -0.7, 1.1}, {"pills", -0.5, 0.9}, {"overdose", -0.9, 1.4},
	}
	for _, e := range crisis {
		s.lexicon[e.word] = lexiconEntry{valence: e.valence, weight: e.weight, flags: []SentimentFlag{SentimentCrisisIndicator}}
	}

	bullying := []wordEntry{
		{"bully", -0.8, 1.2}, {"bullied", -0.8, 1.2}, {"bullying", -0.8, 1.2},
		{"mean", -0.5, 0.8}, {"cruel", -0.7, 1.0}, {"harass", -0.8, 1.1},
		{"harassed", -0.8, 1.1}, {"harassment", -0.8, 1.1}, {"teasing", -0.5, 0.8},
		{"teased", -0.5, 0.8}, {"mocking", -0.6, 0.9}, {"mocked", -0.6, 0.9},
		{"laughing", -0.3, 0.6}, {"excluded", -0.7, 1.0}, {"outcast", -0.7, 1.0},
		{"rumors", -0.6, 0.9}, {"gossip", -0.5, 0.8}, {"spreading", -0.4, 0.7},
		{"embarrassed", -0.6, 0.9}, {"humiliated", -0.8, 1.1}, {"threatened", -0.8, 1.1},
		{"intimidated", -0.7, 1.0}, {"picked", -0.4, 0.7},
	}
	for _, e := range bullying {
		s.lexicon[e.word] = lexiconEntry{valence: e.valence, weight: e.weight, flags: []SentimentFlag{SentimentBullying}}
	}

	negative := []wordEntry{
		{"hate", -0.8, 1.0}, {"angry", -0.7, 0.9}, {"furious", -0.9, 1.1},
		{"annoyed", -0.5, 0.7}, {"frustrated", -0.6, 0.8}, {"irritated", -0.5, 0.7},
		{"mad", -0.6, 0.8}, {"upset", -0.6, 0.8}, {"terrible", -0.7, 0.9},
		{"awful", -0.7, 0.9}, {"horrible", -0.8, 1.0}, {"worst", -0.8, 1.0},
		{"bad", -0.5, 0.7}, {"stupid", -0.5, 0.7}, {"dumb", -0.5, 0.7},
		{"idiot", -0.6, 0.8}, {"ugly", -0.6, 0.8}, {"fat", -0.5, 0.7},
		{"loser", -0.7, 0.9}, {"useless", -0.7, 0.9}, {"pathetic", -0.7, 0.9},
		{"disgusting", -0.7, 0.9}, {"sick", -0.4, 0.6}, {"tired", -0.3, 0.5},
	}
	for _, e := range negative {
		if _, exists := s.lexicon[e.word]; exists {
			continue
		}
		s.lexicon[e.word] = lexiconEntry{valence: e.valence, weight: e.weight, flags: []SentimentFlag{SentimentNegativeSentiment}}
	}

	positive := []wordEntry{
		{"happy", 0.8, 1.0}, {"joy", 0.9, 1.1}, {"love", 0.8, 1.0},
		{"great", 0.7, 0.9}, {"good", 0.6, 0.8}, {"wonderful", 0.8, 1.0},
		{"amazing", 0.8, 1.0}, {"awesome", 0.8, 1.0}, {"excellent", 0.8, 1.0},
		{"fantastic", 0.8, 1.0}, {"beautiful", 0.7, 0.9}, {"nice", 0.5, 0.7},
		{"kind", 0.6, 0.8}, {"caring", 0.6, 0.8}, {"helpful", 0.6, 0.8},
		{"friend", 0.5, 0.7}, {"friends", 0.5, 0.7}, {"fun", 0.6, 0.8},
		{"excited", 0.7, 0.9}, {"proud", 0.7, 0.9}, {"confident", 0.6, 0.8},
		{"calm", 0.5, 0.7}, {"peaceful", 0.6, 0.8}, {"grateful", 0.7, 0.9},
		{"thankful", 0.7, 0.9}, {"hopeful", 0.6, 0.8}, {"optimistic", 0.6, 0.8},
	}
	for _, e := range positive {
		if _, exists := s.lexicon[e.word]; exists {
			continue
		}
		s.lexicon[e.word] = lexiconEntry{valence: e.valence, weight: e.weight}
	}
}

func (s *SentimentClassifier) loadPhrasePatterns() {
	add := func(flag SentimentFlag, phrases map[string]float64) {
		list := make([]phrasePattern, 0, len(phrases))
		for phrase, confidence := range phrases {
			list = append(list, phrasePattern{phrase: phrase, confidence: confidence})
		}
		s.phrasePattern[flag] = list
	}

	add(SentimentDistress, map[string]float64{
		"i feel so alone": 0.85, "nobody cares": 0.80, "nobody understands": 0.75,
		"no one understands": 0.75, "i feel empty": 0.80, "i feel worthless": 0.85,
		"i feel hopeless": 0.85, "i feel like a failure": 0.80, "i hate myself": 0.85,
		"i'm so tired of": 0.70, "i can't take it anymore": 0.85,
		"i can't do this anymore": 0.85, "what's the point": 0.75,
		"why even try": 0.75, "nothing matters": 0.80, "i feel trapped": 0.80,
		"i feel stuck": 0.75, "no way out": 0.80, "i'm a burden": 0.85,
		"everyone would be better": 0.85, "no one would miss me": 0.90,
		"i don't belong": 0.80, "i feel invisible": 0.75,
	})

	add(SentimentCrisisIndicator, map[string]float64{
		"want to die": 0.95, "want to end it": 0.95, "end my life": 0.95,
		"kill myself": 0.95, "don't want to be here": 0.85,
		"don't want to exist": 0.90, "better off dead": 0.95,
		"better off without me": 0.90, "hurt myself": 0.90, "harm myself": 0.90,
		"cutting myself": 0.90, "not worth living": 0.90, "life isn't worth": 0.85,
		"goodbye forever": 0.85, "final goodbye": 0.85, "ending it all": 0.95,
		"no reason to live": 0.90, "give up on life": 0.85,
	})

	add(SentimentBullying, map[string]float64{
		"they make fun of me": 0.85, "everyone laughs at me": 0.85,
		"they call me names": 0.85, "they won't let me": 0.75,
		"they exclude me": 0.80, "no one wants to": 0.75,
		"they spread rumors": 0.85, "they're saying things": 0.70,
		"they pick on me": 0.85, "they bully me": 0.90, "being bullied": 0.90,
		"getting bullied": 0.90, "they threaten me": 0.90, "they hurt me": 0.85,
		"they pushed me": 0.85, "they hit me": 0.90,
		"afraid to go to school": 0.85, "scared of them": 0.80,
	})
}
