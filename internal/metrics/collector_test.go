package metrics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Mock StatsProvider
// =============================================================================

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	err   error
	calls int
}

func (m *mockStatsProvider) GetStats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats, m.err
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// =============================================================================
// Collector Tests
// =============================================================================

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	collector := NewCollector(map[string]StatsProvider{"uploads": provider}, 5*time.Second)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", collector.interval)
	}
	if len(collector.providers) != 1 {
		t.Errorf("providers = %d, want 1", len(collector.providers))
	}
}

func TestCollector_CollectSetsGauges(t *testing.T) {
	uploads := &mockStatsProvider{stats: Stats{TotalFiles: 5, TotalVideos: 3, TotalImages: 2, TotalBytes: 4096}}
	output := &mockStatsProvider{stats: Stats{TotalFiles: 1, TotalVideos: 1, TotalBytes: 100}}

	c := NewCollector(map[string]StatsProvider{"uploads": uploads, "output": output}, time.Hour)
	c.collect()

	if got := gaugeValue(t, StoreFiles.WithLabelValues("uploads", "video")); got != 3 {
		t.Errorf("uploads video = %v, want 3", got)
	}
	if got := gaugeValue(t, StoreFiles.WithLabelValues("uploads", "image")); got != 2 {
		t.Errorf("uploads image = %v, want 2", got)
	}
	if got := gaugeValue(t, StoreBytes.WithLabelValues("uploads")); got != 4096 {
		t.Errorf("uploads bytes = %v, want 4096", got)
	}
	if got := gaugeValue(t, StoreBytes.WithLabelValues("output")); got != 100 {
		t.Errorf("output bytes = %v, want 100", got)
	}
}

func TestCollector_ProviderErrorCountsAndContinues(t *testing.T) {
	failing := &mockStatsProvider{err: errors.New("readdir failed")}
	ok := &mockStatsProvider{stats: Stats{TotalBytes: 7}}

	before := counterValue(t, StoreScanErrors.WithLabelValues("broken"))

	c := NewCollector(map[string]StatsProvider{"broken": failing, "fine": ok}, time.Hour)
	c.collect()

	if got := counterValue(t, StoreScanErrors.WithLabelValues("broken")) - before; got != 1 {
		t.Errorf("scan errors delta = %v, want 1", got)
	}
	if got := gaugeValue(t, StoreBytes.WithLabelValues("fine")); got != 7 {
		t.Errorf("fine bytes = %v, want 7", got)
	}
}

func TestCollector_StartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(map[string]StatsProvider{"uploads": provider}, 10*time.Millisecond)

	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("expected at least 2 collections, got %d", provider.callCount())
	}

	calls := provider.callCount()
	time.Sleep(30 * time.Millisecond)
	if provider.callCount() != calls {
		t.Error("collector kept running after Stop")
	}

	// Second Stop must not panic or block.
	c.Stop()
}
