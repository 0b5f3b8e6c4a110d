package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"movie-maker/internal/assets"
	"movie-maker/internal/editor"
	"movie-maker/internal/filesystem"
	"movie-maker/internal/handlers"
	"movie-maker/internal/jobs"
	"movie-maker/internal/logging"
	"movie-maker/internal/memory"
	"movie-maker/internal/metrics"
	"movie-maker/internal/middleware"
	"movie-maker/internal/plan"
	"movie-maker/internal/preview"
	"movie-maker/internal/probe"
	"movie-maker/internal/startup"
)

const (
	shutdownTimeout         = 30 * time.Second
	metricsCollectInterval  = time.Minute
	engineProbeTimeout      = 30 * time.Second
	serverReadHeaderTimeout = 15 * time.Second
)

// storeStatsAdapter exposes an assets.Store to the metrics collector.
type storeStatsAdapter struct {
	store interface {
		Stats(ctx context.Context) (assets.Stats, error)
	}
}

// GetStats implements metrics.StatsProvider
func (a storeStatsAdapter) GetStats(ctx context.Context) (metrics.Stats, error) {
	st, err := a.store.Stats(ctx)
	if err != nil {
		return metrics.Stats{}, err
	}
	return metrics.Stats{
		TotalFiles:  st.Files,
		TotalVideos: st.Videos,
		TotalImages: st.Images,
		TotalOther:  st.Other,
		TotalBytes:  st.Bytes,
	}, nil
}

// components are the long-lived pieces shut down in reverse start order.
type components struct {
	server        *http.Server
	metricsServer *http.Server
	handlers      *handlers.Handlers
	executor      *jobs.Executor
	collector     *metrics.Collector
	monitor       *memory.Monitor
	lock          *startup.InstanceLock
}

func main() {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	memory.ConfigureFromEnv()

	lock, err := startup.AcquireLock(config.OutputDir)
	if err != nil {
		startup.LogFatal("%v", err)
	}

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"uploads": config.UploadDir,
		"output":  config.OutputDir,
	}))

	uploads, err := assets.New(config.UploadDir, "uploads")
	if err != nil {
		startup.LogFatal("Failed to open upload directory: %v", err)
	}
	outputs, err := assets.New(config.OutputDir, "output")
	if err != nil {
		startup.LogFatal("Failed to open output directory: %v", err)
	}
	logStoreContents(uploads, outputs)

	engines := startup.CheckEngines(context.Background(), config)

	execConfig := jobs.DefaultConfig()
	execConfig.Workers = config.TranscodeWorkers
	execConfig.Backlog = config.JobBacklog
	execConfig.Binary = config.FFmpegPath
	execConfig.JobTimeout = config.JobTimeout
	startup.LogExecutorInit(execConfig.Workers, execConfig.Backlog, execConfig.JobTimeout)

	executor := jobs.New(execConfig, outputs)
	executor.Start()

	prober := probe.New(config.FFprobePath)
	prober.Timeout = engineProbeTimeout

	svc := editor.New(uploads, outputs, plan.NewBuilder(outputs.Dir()), executor, prober)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	previews := preview.New(config.FFmpegPath)
	previews.SetPressure(monitor)

	h := handlers.New(svc, previews, config, engines)

	router := handlers.NewRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	c := &components{
		handlers: h,
		executor: executor,
		monitor:  monitor,
		lock:     lock,
		server: &http.Server{
			Addr:              ":" + config.Port,
			Handler:           setupHandler(router, config),
			ReadHeaderTimeout: serverReadHeaderTimeout,
			// Edit requests are answered when the job finishes and
			// uploads stream large bodies, so no read or write deadline.
			ReadTimeout:  0,
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		},
	}

	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())

		c.collector = metrics.NewCollector(map[string]metrics.StatsProvider{
			"uploads": storeStatsAdapter{store: uploads},
			"output":  storeStatsAdapter{store: outputs},
		}, metricsCollectInterval)
		c.collector.Start()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		c.metricsServer = &http.Server{
			Addr:         ":" + config.MetricsPort,
			Handler:      metricsMux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  30 * time.Second,
		}

		go func() {
			if err := c.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(c)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lock.Release()
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for the rest.
	select {}
}

// setupHandler wraps the router in the middleware chain. The outermost
// layer is listed last.
func setupHandler(router http.Handler, config *startup.Config) http.Handler {
	corsConfig := middleware.DefaultCORSConfig()
	if len(config.CORSOrigins) > 0 {
		corsConfig.AllowedOrigins = config.CORSOrigins
	}
	handler := middleware.CORS(corsConfig)(router)

	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(loggingConfig)(handler)

	return middleware.Compression(middleware.DefaultCompressionConfig())(handler)
}

func logStoreContents(uploads, outputs *assets.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, store := range []*assets.Store{uploads, outputs} {
		st, err := store.Stats(ctx)
		if err != nil {
			logging.Warn("Could not scan %s: %v", store.Dir(), err)
			continue
		}
		startup.LogStoreContents(store.Volume(), st.Files, st.Bytes)
	}
}

func handleShutdown(c *components) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())
	c.handlers.SetShuttingDown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// In-flight edit requests wait for their jobs, so the HTTP server drains
	// before the executor is stopped.
	startup.LogShutdownStep("Shutting down HTTP server")
	if err := c.server.Shutdown(ctx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping job executor")
	if err := c.executor.Stop(ctx); err != nil {
		logging.Error("Job executor stop error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Job executor stopped")
	}

	c.monitor.Stop()

	if c.collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		c.collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if c.metricsServer != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			logging.Error("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	c.lock.Release()

	startup.LogShutdownComplete()
	os.Exit(0)
}
