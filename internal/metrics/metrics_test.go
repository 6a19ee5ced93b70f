package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)
	var total float64
	for m := range ch {
		var pb dto.Metric
		if err := m.Write(&pb); err != nil {
			t.Fatalf("write metric: %v", err)
		}
		if pb.Counter != nil {
			total += pb.Counter.GetValue()
		}
	}
	return total
}

func TestRecordDecisionIncrementsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDecision("allow")
	m.RecordDecision("block")
	m.RecordDecision("block")

	if got := counterValue(t, m.PromptsTotal); got != 3 {
		t.Errorf("PromptsTotal = %v, want 3", got)
	}
	if got := counterValue(t, m.PromptsBlockedTotal); got != 2 {
		t.Errorf("PromptsBlockedTotal = %v, want 2", got)
	}
}

func TestObserveClassificationDoesNotPanic(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveClassification("tier1_keyword", 5*time.Millisecond)
}

func TestRecordCertMint(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordCertMint("cache_hit")
	m.RecordCertMint("signed")

	if got := counterValue(t, m.MITMCertMintTotal); got != 2 {
		t.Errorf("MITMCertMintTotal = %v, want 2", got)
	}
}

func TestNewPanicsOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic registering metrics twice against the same registry")
		}
	}()
	New(reg)
}
