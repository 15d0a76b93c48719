package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Level is a named insert concurrency tier.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// DefaultLevel is used for any unrecognized level name.
const DefaultLevel = LevelHigh

var levelWorkers = map[Level]int{
	LevelLow:    5,
	LevelMedium: 10,
	LevelHigh:   20,
}

// ParseLevel maps an exact, case-sensitive level name to a Level. Unknown
// names map to DefaultLevel with recognized=false so callers can warn.
func ParseLevel(s string) (l Level, recognized bool) {
	l = Level(s)
	if _, ok := levelWorkers[l]; ok {
		return l, true
	}
	return DefaultLevel, false
}

// Workers is the maximum number of concurrent insert calls for the tier.
func (l Level) Workers() int {
	if n, ok := levelWorkers[l]; ok {
		return n
	}
	return levelWorkers[DefaultLevel]
}

// NumArgs is the number of required positional arguments.
const NumArgs = 7

// Usage lists the positional arguments in order.
const Usage = "<api_endpoint> <project_id> <api_key> <database_id> <collection_id> <record_count> <concurrency_level>"

// Config is everything one seeding run needs.
type Config struct {
	Endpoint     string
	ProjectID    string
	APIKey       string
	DatabaseID   string
	CollectionID string
	RecordCount  int
	Level        Level
	// LevelName is the level exactly as given; it differs from Level when
	// the name was not recognized.
	LevelName string

	Tuning
}

// Tuning holds the optional knobs that come from the config file, environment
// or flags.
type Tuning struct {
	// VerifyWorkers caps concurrent verification reads; 0 means one
	// goroutine per inserted document.
	VerifyWorkers int `yaml:"verify_workers"`
	// RateLimit caps inserts per second; 0 means unlimited.
	RateLimit        int           `yaml:"rate_limit"`
	ProgressInterval time.Duration `yaml:"progress_interval"`
	// HTTPTimeout bounds each REST call; 0 means no timeout.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	LogLevel    string        `yaml:"log_level"`
}

// DefaultTuning returns the built-in defaults.
func DefaultTuning() Tuning {
	return Tuning{
		ProgressInterval: 5 * time.Second,
		LogLevel:         "info",
	}
}

// FromArgs builds a Config from the positional arguments.
func FromArgs(args []string, t Tuning) (Config, error) {
	if len(args) != NumArgs {
		return Config{}, fmt.Errorf("expected %d arguments %s, got %d", NumArgs, Usage, len(args))
	}
	count, err := strconv.Atoi(args[5])
	if err != nil {
		return Config{}, fmt.Errorf("record_count %q: %w", args[5], err)
	}
	if count < 0 {
		return Config{}, fmt.Errorf("record_count must be >= 0, got %d", count)
	}
	level, _ := ParseLevel(args[6])
	cfg := Config{
		Endpoint:     args[0],
		ProjectID:    args[1],
		APIKey:       args[2],
		DatabaseID:   args[3],
		CollectionID: args[4],
		RecordCount:  count,
		Level:        level,
		LevelName:    args[6],
		Tuning:       t,
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LevelRecognized reports whether the given level name was one of the tiers.
func (c Config) LevelRecognized() bool {
	return string(c.Level) == c.LevelName
}

// Validate rejects negative knobs and unknown log levels.
func (t Tuning) Validate() error {
	if t.VerifyWorkers < 0 {
		return fmt.Errorf("verify_workers must be >= 0, got %d", t.VerifyWorkers)
	}
	if t.RateLimit < 0 {
		return fmt.Errorf("rate_limit must be >= 0, got %d", t.RateLimit)
	}
	if t.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must be >= 0, got %s", t.HTTPTimeout)
	}
	if _, err := ParseLogLevel(t.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadFile overlays the YAML file at path onto t. Keys absent from the file
// keep their current values.
func LoadFile(path string, t *Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SEEDER_* environment variables onto t.
func ApplyEnv(t *Tuning, getenv func(string) string) error {
	if v := getenv("SEEDER_VERIFY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEEDER_VERIFY_WORKERS: %w", err)
		}
		t.VerifyWorkers = n
	}
	if v := getenv("SEEDER_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SEEDER_RATE_LIMIT: %w", err)
		}
		t.RateLimit = n
	}
	if v := getenv("SEEDER_PROGRESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SEEDER_PROGRESS_INTERVAL: %w", err)
		}
		t.ProgressInterval = d
	}
	if v := getenv("SEEDER_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SEEDER_HTTP_TIMEOUT: %w", err)
		}
		t.HTTPTimeout = d
	}
	if v := getenv("SEEDER_LOG_LEVEL"); v != "" {
		t.LogLevel = v
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// ClickHouseStoragePolicy for the documents table; empty uses the server default.
func ClickHouseStoragePolicy() string {
	return os.Getenv("CLICKHOUSE_STORAGE_POLICY")
}
