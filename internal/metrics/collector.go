package metrics

import (
	"context"
	"sort"
	"sync"
	"time"

	"movie-maker/internal/logging"
)

// StatsProvider reports the current contents of one store.
type StatsProvider interface {
	GetStats(ctx context.Context) (Stats, error)
}

// Stats holds a point-in-time summary of a store directory.
type Stats struct {
	TotalFiles  int
	TotalVideos int
	TotalImages int
	TotalOther  int
	TotalBytes  int64
}

// Collector periodically scans the stores and updates the store gauges.
type Collector struct {
	providers map[string]StatsProvider
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewCollector creates a new metrics collector. providers is keyed by the
// store label ("uploads", "output").
func NewCollector(providers map[string]StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		providers: providers,
		interval:  interval,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection and waits for the loop to exit.
// It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	names := make([]string, 0, len(c.providers))
	for name := range c.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(context.Background(), c.interval)
		stats, err := c.providers[name].GetStats(ctx)
		cancel()
		if err != nil {
			StoreScanErrors.WithLabelValues(name).Inc()
			logging.Warn("Metrics collection failed for %s store: %v", name, err)
			continue
		}

		StoreFiles.WithLabelValues(name, "video").Set(float64(stats.TotalVideos))
		StoreFiles.WithLabelValues(name, "image").Set(float64(stats.TotalImages))
		StoreFiles.WithLabelValues(name, "unknown").Set(float64(stats.TotalOther))
		StoreBytes.WithLabelValues(name).Set(float64(stats.TotalBytes))

		logging.Debug("Metrics collected for %s: files=%d, bytes=%d", name, stats.TotalFiles, stats.TotalBytes)
	}
}
