package memory

import (
	"testing"
	"time"
)

func newTestMonitor(limit int64, alloc *uint64) *Monitor {
	config := DefaultConfig()
	config.LimitBytes = limit
	m := NewMonitor(config)
	m.readAlloc = func() uint64 { return *alloc }
	return m
}

func TestMonitorPauseAndResume(t *testing.T) {
	var alloc uint64
	m := newTestMonitor(1000, &alloc)

	steps := []struct {
		alloc      uint64
		wantPaused bool
	}{
		{100, false},
		{800, false}, // between the marks, not yet paused
		{850, true},
		{750, true}, // still above the resume mark
		{699, false},
		{900, true},
	}

	for i, step := range steps {
		alloc = step.alloc
		m.check()
		if got := m.IsPaused(); got != step.wantPaused {
			t.Fatalf("step %d (alloc %d): IsPaused = %v, want %v", i, step.alloc, got, step.wantPaused)
		}
	}

	current, limit := m.Usage()
	if current != 900 || limit != 1000 {
		t.Errorf("Usage() = %d/%d, want 900/1000", current, limit)
	}
}

func TestMonitorWithoutLimitNeverPauses(t *testing.T) {
	alloc := uint64(1 << 40)
	m := newTestMonitor(0, &alloc)
	m.limit = 0 // ignore any GOMEMLIMIT in the test environment

	m.check()
	if m.IsPaused() {
		t.Error("monitor without a limit paused")
	}

	m.Start()
	m.Stop()
}

func TestMonitorStartStop(t *testing.T) {
	alloc := uint64(950)
	config := DefaultConfig()
	config.LimitBytes = 1000
	config.CheckInterval = 10 * time.Millisecond
	m := NewMonitor(config)
	m.readAlloc = func() uint64 { return alloc }

	m.Start()
	deadline := time.Now().Add(2 * time.Second)
	for !m.IsPaused() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
	m.Stop()

	if !m.IsPaused() {
		t.Error("monitor did not pause above the pause mark")
	}
}
