package classifier

import (
	"context"
	"errors"
	"testing"

	"github.com/sujitn/aegis/internal/cache"
)

type countingML struct {
	calls int
}

func (m *countingML) Classify(ctx context.Context, text string) ([]CategoryMatch, error) {
	m.calls++
	return []CategoryMatch{{Category: CategoryProfanity, Confidence: 0.6, Tier: TierML}}, nil
}

func (m *countingML) Close() error { return nil }

func TestShortCircuitSkipsTier2(t *testing.T) {
	ml := &countingML{}
	cfg := DefaultConfig()
	cfg.ML = ml
	c := New(cfg)

	result := c.Classify(context.Background(), "how to kill someone")
	if !result.ShouldBlock {
		t.Fatalf("expected block")
	}
	if ml.calls != 0 {
		t.Errorf("expected Tier-2 to be skipped on short-circuit, got %d calls", ml.calls)
	}
}

func TestTier2RunsWhenNoShortCircuit(t *testing.T) {
	ml := &countingML{}
	cfg := DefaultConfig()
	cfg.ML = ml
	c := New(cfg)

	c.Classify(context.Background(), "a perfectly ordinary sentence")
	if ml.calls != 1 {
		t.Errorf("expected Tier-2 to run once, got %d calls", ml.calls)
	}
}

func TestGracefulMLDegradation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ML = nil
	c := New(cfg)

	if c.HasML() {
		t.Fatalf("expected HasML() false with nil ML classifier")
	}

	result := c.Classify(context.Background(), "how to kill someone")
	if !result.ShouldBlock {
		t.Fatalf("expected keyword tier alone to still block")
	}
}

type erroringML struct{}

func (erroringML) Classify(ctx context.Context, text string) ([]CategoryMatch, error) {
	return nil, errors.New("model session failure")
}
func (erroringML) Close() error { return nil }

func TestMLErrorDegradesGracefully(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ML = erroringML{}
	c := New(cfg)

	result := c.Classify(context.Background(), "a perfectly ordinary sentence")
	if result.ShouldBlock {
		t.Fatalf("expected no block on ML error with no keyword match, got %+v", result.Matches)
	}
}

func TestResultCacheSkipsRecomputation(t *testing.T) {
	ml := &countingML{}
	cfg := DefaultConfig()
	cfg.ML = ml
	cfg.ShortCircuitThreshold = 1.1 // never short-circuit, force Tier-2 every call
	resultCache, err := cache.New(cache.Config{})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	cfg.ResultCache = resultCache
	c := New(cfg)

	first := c.Classify(context.Background(), "a perfectly ordinary sentence")
	second := c.Classify(context.Background(), "a perfectly ordinary sentence")

	if ml.calls != 1 {
		t.Errorf("expected Tier-2 to run once across two identical prompts, got %d calls", ml.calls)
	}
	if len(first.Matches) != len(second.Matches) {
		t.Errorf("expected cached result to match original: %+v vs %+v", first, second)
	}
}

func TestResultCacheDistinguishesDifferentPrompts(t *testing.T) {
	ml := &countingML{}
	cfg := DefaultConfig()
	cfg.ML = ml
	cfg.ShortCircuitThreshold = 1.1
	resultCache, err := cache.New(cache.Config{})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	cfg.ResultCache = resultCache
	c := New(cfg)

	c.Classify(context.Background(), "first prompt")
	c.Classify(context.Background(), "second prompt")

	if ml.calls != 2 {
		t.Errorf("expected Tier-2 to run once per distinct prompt, got %d calls", ml.calls)
	}
}
