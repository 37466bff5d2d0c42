package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"adsbtrack/internal/logging"
)

// Input formats
const (
	FormatSamples   = "samples"   // little-endian 12-bit samples biased by 2048
	FormatRecording = "recording" // timestamped frames
	FormatBeast     = "beast"     // Beast binary stream
)

// Registry types
const (
	RegistryZip    = "zip"
	RegistrySQLite = "sqlite"
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Default configuration constants
const (
	DefaultInput            = "-" // stdin
	DefaultInputFormat      = FormatSamples
	DefaultLogDir           = "./logs"
	DefaultLogPattern       = logging.DefaultPattern
	DefaultPurgeInterval    = 1 * time.Second
	DefaultStatsInterval    = 30 * time.Second
	DefaultRegistryCacheTTL = 10 * time.Minute
)

// Config holds application configuration
type Config struct {
	Input       string `yaml:"input"`
	InputFormat string `yaml:"input_format"`
	Realtime    bool   `yaml:"realtime"`

	RegistryPath     string        `yaml:"registry_path"`
	RegistryType     string        `yaml:"registry_type"`
	RegistryCacheTTL time.Duration `yaml:"registry_cache_ttl"`

	LogDir       string `yaml:"log_dir"`
	LogPattern   string `yaml:"log_pattern"`
	LogRotateUTC bool   `yaml:"log_rotate_utc"`
	LogMaxDays   int    `yaml:"log_max_days"`
	Stdout       bool   `yaml:"stdout"`

	RecordPath  string `yaml:"record_path"`
	BeastListen string `yaml:"beast_listen"`
	MetricsAddr string `yaml:"metrics_addr"`

	PurgeInterval time.Duration `yaml:"purge_interval"`
	StatsInterval time.Duration `yaml:"stats_interval"`

	LogFormat   string `yaml:"log_format"`
	Verbose     bool   `yaml:"verbose"`
	ShowVersion bool   `yaml:"-"`
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Input:            DefaultInput,
		InputFormat:      DefaultInputFormat,
		RegistryCacheTTL: DefaultRegistryCacheTTL,
		LogDir:           DefaultLogDir,
		LogPattern:       DefaultLogPattern,
		LogRotateUTC:     true,
		PurgeInterval:    DefaultPurgeInterval,
		StatsInterval:    DefaultStatsInterval,
		LogFormat:        LogFormatText,
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// Validate checks the configuration before the application starts
func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}

	switch c.InputFormat {
	case FormatSamples, FormatRecording, FormatBeast:
	default:
		return fmt.Errorf("unknown input format %q", c.InputFormat)
	}

	switch c.RegistryType {
	case "", RegistryZip, RegistrySQLite:
	default:
		return fmt.Errorf("unknown registry type %q", c.RegistryType)
	}

	switch c.LogFormat {
	case "", LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.LogDir != "" && c.LogPattern == "" {
		return fmt.Errorf("log file pattern cannot be empty")
	}

	if c.PurgeInterval <= 0 {
		return fmt.Errorf("purge interval must be positive, got %s", c.PurgeInterval)
	}

	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive, got %s", c.StatsInterval)
	}

	if c.LogMaxDays < 0 {
		return fmt.Errorf("log max days cannot be negative")
	}

	return nil
}

// registryType returns the configured registry type, or the one implied by the file extension
func (c Config) registryType() string {
	if c.RegistryType != "" {
		return c.RegistryType
	}
	switch strings.ToLower(filepath.Ext(c.RegistryPath)) {
	case ".db", ".sqlite", ".sqlite3":
		return RegistrySQLite
	default:
		return RegistryZip
	}
}
