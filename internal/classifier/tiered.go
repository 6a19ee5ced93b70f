package classifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/sujitn/aegis/internal/cache"
)

// Config controls the tiered classifier's behavior.
type Config struct {
	// ShortCircuitThreshold is the minimum Tier-1 confidence that skips
	// Tier-2 entirely. Default 0.85.
	ShortCircuitThreshold float64
	// EnableML turns Tier-2 on. If true but ML is nil, Tier-2 is still
	// skipped — enabling without wiring a model is not an error.
	EnableML bool
	ML       MLClassifier
	// EnableSentiment turns the advisory sentiment tier on.
	EnableSentiment bool
	Sentiment       *SentimentClassifier
	// ResultCache, if set, short-circuits the whole pipeline (including
	// Tier-1) for previously-seen prompt text. Optional; nil disables
	// caching. Safe to point at a Redis-backed cache.New shared across
	// multiple Aegis instances.
	ResultCache cache.Cache
	// ResultCacheTTL bounds how long a cached result stays valid. Zero
	// uses the cache backend's own default.
	ResultCacheTTL time.Duration
}

// DefaultConfig returns the pipeline's default tuning.
func DefaultConfig() Config {
	return Config{
		ShortCircuitThreshold: 0.85,
		EnableML:              true,
		EnableSentiment:       true,
		Sentiment:             NewSentimentClassifier(DefaultSentimentThreshold),
	}
}

// Stats tracks per-tier invocation counts, exposed to the metrics layer.
type Stats struct {
	Tier1Count        int64
	Tier2Count        int64
	Tier2SkippedCount int64
	ImageCount        int64
}

// Classifier is the tiered text classification pipeline: Tier-1 keyword
// match, short-circuit, Tier-2 ML, merge, then an advisory sentiment pass.
//
// Guarded by an RWMutex — per spec.md §5, classification takes a write lock
// only around the Tier-2 call, because Tier-2 may mutate internal session
// buffers; the Tier-1 keyword pass runs under a read lock.
type Classifier struct {
	mu        sync.RWMutex
	keyword   *KeywordClassifier
	cfg       Config
	statsMu   sync.Mutex
	stats     Stats
}

// New builds a tiered classifier with the given config.
func New(cfg Config) *Classifier {
	return &Classifier{keyword: NewKeywordClassifier(), cfg: cfg}
}

// HasML reports whether Tier-2 is actually wired (not just enabled).
func (c *Classifier) HasML() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.EnableML && c.cfg.ML != nil
}

// Stats returns a snapshot of per-tier invocation counters.
func (c *Classifier) Stats() Stats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.stats
}

// Classify runs the full pipeline: Tier-1, short-circuit check, Tier-2,
// merge by category (higher confidence wins on collision). If a
// ResultCache is configured, a hit skips every tier and returns the
// cached result with a fresh DurationUS of ~0.
func (c *Classifier) Classify(ctx context.Context, text string) ClassificationResult {
	start := time.Now()

	if cached, ok := c.lookupCache(ctx, text); ok {
		cached.DurationUS = time.Since(start).Microseconds()
		return cached
	}

	result := c.classifyUncached(ctx, text, start)
	c.storeCache(ctx, text, result)
	return result
}

func (c *Classifier) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "aegis:classify:" + hex.EncodeToString(sum[:])
}

func (c *Classifier) lookupCache(ctx context.Context, text string) (ClassificationResult, bool) {
	c.mu.RLock()
	rc := c.cfg.ResultCache
	c.mu.RUnlock()
	if rc == nil {
		return ClassificationResult{}, false
	}
	raw, ok, err := rc.Get(ctx, c.cacheKey(text))
	if err != nil || !ok {
		return ClassificationResult{}, false
	}
	var result ClassificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ClassificationResult{}, false
	}
	return result, true
}

func (c *Classifier) storeCache(ctx context.Context, text string, result ClassificationResult) {
	c.mu.RLock()
	rc := c.cfg.ResultCache
	ttl := c.cfg.ResultCacheTTL
	c.mu.RUnlock()
	if rc == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := rc.Set(ctx, c.cacheKey(text), raw, ttl); err != nil {
		slog.Warn("classifier result cache write failed", "error", err)
	}
}

func (c *Classifier) classifyUncached(ctx context.Context, text string, start time.Time) ClassificationResult {
	c.mu.RLock()
	keywordResult := c.keyword.Classify(text)
	c.mu.RUnlock()

	c.statsMu.Lock()
	c.stats.Tier1Count++
	c.statsMu.Unlock()

	if highest, ok := highestConfidence(keywordResult.Matches); ok && highest.Confidence >= c.cfg.ShortCircuitThreshold {
		return ClassificationResult{
			Matches:     keywordResult.Matches,
			ShouldBlock: keywordResult.ShouldBlock,
			DurationUS:  time.Since(start).Microseconds(),
		}
	}

	var mlMatches []CategoryMatch
	c.mu.RLock()
	ml := c.cfg.ML
	enableML := c.cfg.EnableML
	c.mu.RUnlock()

	if enableML && ml != nil {
		c.mu.Lock()
		c.statsMu.Lock()
		c.stats.Tier2Count++
		c.statsMu.Unlock()
		matches, err := ml.Classify(ctx, text)
		c.mu.Unlock()
		if err != nil {
			// Graceful degradation: Tier-2 error never fails the pipeline.
			slog.Warn("ml classifier error, degrading to keyword-only", "error", err)
		} else {
			mlMatches = matches
		}
	} else {
		c.statsMu.Lock()
		c.stats.Tier2SkippedCount++
		c.statsMu.Unlock()
	}

	merged := mergeByCategory(append(append([]CategoryMatch{}, keywordResult.Matches...), mlMatches...))
	durationUS := time.Since(start).Microseconds()
	if len(merged) == 0 {
		return Safe(durationUS)
	}
	return WithMatches(merged, durationUS)
}

// ClassifyImage runs the Tier-3 NSFW classifier against the given profile
// threshold. Returns (result, ran) — ran is false when no NSFW classifier is
// wired, so callers can distinguish "not NSFW" from "tier skipped".
func (c *Classifier) ClassifyImage(ctx context.Context, img []byte, nsfw NSFWClassifier, threshold float64) (CategoryMatch, bool) {
	if nsfw == nil {
		return CategoryMatch{}, false
	}
	c.statsMu.Lock()
	c.stats.ImageCount++
	c.statsMu.Unlock()

	result, err := nsfw.ClassifyImage(ctx, img)
	if err != nil {
		slog.Warn("nsfw classifier error, skipping image tier", "error", err)
		return CategoryMatch{}, false
	}
	if result.NSFWProbability < threshold {
		return CategoryMatch{}, false
	}
	return CategoryMatch{
		Category:   CategoryAdult,
		Confidence: result.NSFWProbability,
		Tier:       TierImage,
	}, true
}

// ClassifySentiment runs the advisory-only sentiment tier. Never
// contributes to ShouldBlock — callers route its output to "flag for
// review", matching spec.md §4.5.
func (c *Classifier) ClassifySentiment(text string) []SentimentMatch {
	c.mu.RLock()
	enabled := c.cfg.EnableSentiment
	s := c.cfg.Sentiment
	c.mu.RUnlock()
	if !enabled || s == nil {
		return nil
	}
	return s.Classify(text)
}

func highestConfidence(matches []CategoryMatch) (CategoryMatch, bool) {
	var best CategoryMatch
	found := false
	for _, m := range matches {
		if !found || m.Confidence > best.Confidence {
			best = m
			found = true
		}
	}
	return best, found
}
