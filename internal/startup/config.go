package startup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"movie-maker/internal/logging"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// envFiles are loaded in order before configuration is read. Variables
// already present in the environment are never overwritten, so the first
// file to set a key wins.
var envFiles = []string{".env.local", ".env"}

// FileConfig mirrors the keys accepted in the optional CONFIG_FILE. Empty
// values fall through to the built-in defaults; environment variables
// override everything.
type FileConfig struct {
	Port             string   `toml:"port"`
	MetricsPort      string   `toml:"metrics_port"`
	MetricsEnabled   *bool    `toml:"metrics_enabled"`
	UploadDir        string   `toml:"upload_dir"`
	OutputDir        string   `toml:"output_dir"`
	FFmpegPath       string   `toml:"ffmpeg_path"`
	FFprobePath      string   `toml:"ffprobe_path"`
	TranscodeWorkers int      `toml:"transcode_workers"`
	JobBacklog       int      `toml:"job_backlog"`
	JobTimeout       string   `toml:"job_timeout"`
	MaxUploadSize    string   `toml:"max_upload_size"`
	CORSOrigins      []string `toml:"cors_origins"`
}

// loadEnvFiles loads whichever of envFiles exist in the working directory.
func loadEnvFiles() []string {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			logging.Warn("  Failed to load %s: %v", name, err)
			continue
		}
		loaded = append(loaded, name)
	}
	return loaded
}

// LoadFileConfig decodes a TOML configuration file. Unknown keys are an
// error so typos do not silently fall back to defaults.
func LoadFileConfig(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var fc FileConfig
	decoder := toml.NewDecoder(f)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// getEnvBytes reads a size such as "100MiB", "2 GB" or "1048576".
func getEnvBytes(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parseBytes(value)
	if err != nil {
		logging.Warn("Invalid size for %s: %q, using default: %s", key, value, humanize.IBytes(uint64(defaultValue)))
		return defaultValue
	}
	return parsed
}

func parseBytes(value string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, err
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("size out of range: %q", value)
	}
	return int64(n), nil
}

// getEnvList splits a comma-separated variable, dropping empty entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
