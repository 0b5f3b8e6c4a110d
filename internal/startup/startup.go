package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"movie-maker/internal/engine"
	"movie-maker/internal/logging"
	"movie-maker/internal/workers"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Defaults for values not set in the environment or config file.
const (
	DefaultPort           = "5000"
	DefaultMetricsPort    = "9090"
	DefaultUploadDir      = "./uploads"
	DefaultOutputDir      = "./output"
	DefaultJobBacklog     = 32
	DefaultMaxUploadBytes = 100 << 20
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	Port           string
	MetricsPort    string
	MetricsEnabled bool

	UploadDir string
	OutputDir string

	FFmpegPath  string
	FFprobePath string

	TranscodeWorkers int
	JobBacklog       int
	JobTimeout       time.Duration
	MaxUploadBytes   int64
	CORSOrigins      []string

	LogStaticFiles  bool
	LogHealthChecks bool

	// ConfigFile is the TOML file values were read from, if any.
	ConfigFile string
}

// LoadConfig loads .env files and the optional CONFIG_FILE, resolves the
// configuration from the environment and prepares the upload and output
// directories. Both directories must be writable.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	for _, name := range loadEnvFiles() {
		logging.Info("  Loaded environment from %s", name)
	}

	fc := &FileConfig{}
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		var err error
		fc, err = LoadFileConfig(configFile)
		if err != nil {
			return nil, err
		}
		logging.Info("  Loaded config file %s", configFile)
	}

	config, err := resolve(fc)
	if err != nil {
		return nil, err
	}
	config.ConfigFile = configFile

	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  UPLOAD_DIR:          %s", config.UploadDir)
	logging.Info("  OUTPUT_DIR:          %s", config.OutputDir)
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", config.FFprobePath)
	logging.Info("  TRANSCODE_WORKERS:   %d", config.TranscodeWorkers)
	logging.Info("  JOB_BACKLOG:         %d", config.JobBacklog)
	logging.Info("  JOB_TIMEOUT:         %s", durationString(config.JobTimeout))
	logging.Info("  MAX_UPLOAD_BYTES:    %s", humanize.IBytes(uint64(config.MaxUploadBytes)))
	logging.Info("  CORS_ORIGINS:        %s", strings.Join(config.CORSOrigins, ","))
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	section("DIRECTORY SETUP")

	for _, dir := range []struct{ path, name string }{
		{config.UploadDir, "upload"},
		{config.OutputDir, "output"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return nil, fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return nil, fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", strings.ToUpper(dir.name[:1])+dir.name[1:], dir.path)
	}

	return config, nil
}

// resolve builds a Config from the file config and the environment.
func resolve(fc *FileConfig) (*Config, error) {
	metricsDefault := true
	if fc.MetricsEnabled != nil {
		metricsDefault = *fc.MetricsEnabled
	}

	jobTimeout := time.Duration(0)
	if fc.JobTimeout != "" {
		d, err := time.ParseDuration(fc.JobTimeout)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid job_timeout %q in config file", fc.JobTimeout)
		}
		jobTimeout = d
	}

	maxUpload := int64(DefaultMaxUploadBytes)
	if fc.MaxUploadSize != "" {
		n, err := parseBytes(fc.MaxUploadSize)
		if err != nil {
			return nil, fmt.Errorf("invalid max_upload_size %q in config file: %w", fc.MaxUploadSize, err)
		}
		maxUpload = n
	}

	backlog := DefaultJobBacklog
	if fc.JobBacklog > 0 {
		backlog = fc.JobBacklog
	}

	cors := []string{"*"}
	if len(fc.CORSOrigins) > 0 {
		cors = fc.CORSOrigins
	}

	config := &Config{
		Port:             getEnv("PORT", orDefault(fc.Port, DefaultPort)),
		MetricsPort:      getEnv("METRICS_PORT", orDefault(fc.MetricsPort, DefaultMetricsPort)),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", metricsDefault),
		UploadDir:        getEnv("UPLOAD_DIR", orDefault(fc.UploadDir, DefaultUploadDir)),
		OutputDir:        getEnv("OUTPUT_DIR", orDefault(fc.OutputDir, DefaultOutputDir)),
		FFmpegPath:       getEnv("FFMPEG_PATH", orDefault(fc.FFmpegPath, "ffmpeg")),
		FFprobePath:      getEnv("FFPROBE_PATH", orDefault(fc.FFprobePath, "ffprobe")),
		TranscodeWorkers: getEnvInt(workers.TranscodeEnv, fc.TranscodeWorkers),
		JobBacklog:       getEnvInt("JOB_BACKLOG", backlog),
		JobTimeout:       getEnvDuration("JOB_TIMEOUT", jobTimeout),
		MaxUploadBytes:   getEnvBytes("MAX_UPLOAD_BYTES", maxUpload),
		CORSOrigins:      getEnvList("CORS_ORIGINS", cors),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
	}

	if config.TranscodeWorkers == 0 {
		config.TranscodeWorkers = workers.ForTranscode()
	}
	if config.JobBacklog == 0 {
		config.JobBacklog = DefaultJobBacklog
	}

	var err error
	if config.UploadDir, err = filepath.Abs(config.UploadDir); err != nil {
		return nil, fmt.Errorf("failed to resolve upload directory path: %w", err)
	}
	if config.OutputDir, err = filepath.Abs(config.OutputDir); err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	if config.UploadDir == config.OutputDir {
		return nil, fmt.Errorf("UPLOAD_DIR and OUTPUT_DIR must differ (both %s)", config.UploadDir)
	}

	return config, nil
}

func durationString(d time.Duration) string {
	if d == 0 {
		return "none"
	}
	return d.String()
}

// EngineInfo reports the engine versions found at startup. An empty version
// means the binary could not be run.
type EngineInfo struct {
	FFmpeg  string `json:"ffmpeg,omitempty"`
	FFprobe string `json:"ffprobe,omitempty"`
}

// Available reports whether both binaries responded.
func (e EngineInfo) Available() bool {
	return e.FFmpeg != "" && e.FFprobe != ""
}

// CheckEngines runs both engine binaries once and logs their versions. A
// missing binary is logged as a warning; the server still starts and the
// affected operations fail with engine errors.
func CheckEngines(ctx context.Context, config *Config) EngineInfo {
	logging.Info("")
	section("ENGINE CHECK")

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var info EngineInfo
	for _, bin := range []struct {
		name, path string
		dst        *string
	}{
		{"FFmpeg", config.FFmpegPath, &info.FFmpeg},
		{"FFprobe", config.FFprobePath, &info.FFprobe},
	} {
		version, err := engine.Version(ctx, bin.path)
		if err != nil {
			logging.Warn("  %s check failed: %v", bin.name, err)
			continue
		}
		*bin.dst = version
		logging.Info("  [OK] %s: %s", bin.name, version)
	}

	if !info.Available() {
		logging.Warn("  Media operations will fail until both binaries are available")
	}
	return info
}

// LogExecutorInit logs the job executor configuration
func LogExecutorInit(workers, backlog int, timeout time.Duration) {
	logging.Info("")
	section("JOB EXECUTOR")
	logging.Info("  Workers:  %d (max concurrent ffmpeg processes)", workers)
	logging.Info("  Backlog:  %d", backlog)
	logging.Info("  Timeout:  %s", durationString(timeout))
}

// LogStoreContents logs a summary of an asset directory
func LogStoreContents(name string, files int, bytes int64) {
	logging.Info("  %-8s %d files, %s", name+":", files, humanize.IBytes(uint64(bytes)))
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}

			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func section(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___           _          __  ___      __
   /  |/  /___ _   __(_)__      /  |/  /___ _/ /_____  _____
  / /|_/ / __ \ | / / / _ \    / /|_/ / __ '/ //_/ _ \/ ___/
 / /  / / /_/ / |/ / /  __/   / /  / / /_/ / ,< /  __/ /
/_/  /_/\____/|___/_/\___/   /_/  /_/\__,_/_/|_|\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
