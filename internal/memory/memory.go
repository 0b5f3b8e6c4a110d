package memory

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"movie-maker/internal/logging"
	"movie-maker/internal/metrics"
)

// Config holds the monitor thresholds.
type Config struct {
	// LimitBytes overrides the runtime memory limit. Zero reads GOMEMLIMIT.
	LimitBytes int64

	// ResumeMark is the usage ratio below which a paused monitor resumes.
	ResumeMark float64

	// PauseMark is the usage ratio at which the monitor pauses.
	PauseMark float64

	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the server.
func DefaultConfig() Config {
	return Config{
		ResumeMark:    0.7,
		PauseMark:     0.85,
		CheckInterval: 5 * time.Second,
	}
}

// Monitor samples heap usage against the memory limit and reports when
// in-process image work should be refused.
type Monitor struct {
	config Config
	limit  int64

	mu      sync.RWMutex
	current uint64
	paused  bool

	stopOnce sync.Once
	stopChan chan struct{}

	// readAlloc is swapped in tests.
	readAlloc func() uint64
}

// NewMonitor creates a Monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < 1<<62 {
			limit = l
		}
	}

	if limit == 0 {
		logging.Debug("Memory monitor disabled: no memory limit configured")
	} else {
		logging.Info("Memory monitor watching a %s limit", humanize.IBytes(uint64(limit)))
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		stopChan:  make(chan struct{}),
		readAlloc: heapAlloc,
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins periodic sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) check() {
	if m.limit == 0 {
		return
	}

	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	switch {
	case !m.paused && usage >= m.config.PauseMark:
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCTriggered.Inc()
		logging.Warn("Memory critical (%.1f%% of %s), refusing previews",
			usage*100, humanize.IBytes(uint64(m.limit)))
		go runtime.GC()
	case m.paused && usage < m.config.ResumeMark:
		m.paused = false
		metrics.MemoryPaused.Set(0)
		logging.Info("Memory recovered (%.1f%% of limit), previews resumed", usage*100)
	}
}

// IsPaused reports whether memory is above the pause mark and has not yet
// fallen below the resume mark.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled allocation and the limit.
func (m *Monitor) Usage() (current uint64, limit int64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.limit
}
