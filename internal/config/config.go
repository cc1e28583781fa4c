package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"datasteward/internal/quality"
)

// EnvPrefix namespaces every environment variable, e.g. DATASTEWARD_SERVER_PORT
const EnvPrefix = "DATASTEWARD"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Paths     PathsConfig     `yaml:"paths"`
	Quality   QualityConfig   `yaml:"quality"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" split_words:"true"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" split_words:"true"`
	EnableCORS     bool            `yaml:"enable_cors" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled"`
	RPS     float64 `yaml:"rps"`
	Burst   int     `yaml:"burst"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Output      string `yaml:"output"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	TempDir string `yaml:"temp_dir" split_words:"true"`
	LogsDir string `yaml:"logs_dir" split_words:"true"`
}

// QualityConfig holds the detection and fix engine defaults
type QualityConfig struct {
	CountryCode      string   `yaml:"country_code" split_words:"true"`
	PhoneLength      int      `yaml:"phone_length" split_words:"true"`
	DupThreshold     float64  `yaml:"dup_threshold" split_words:"true"`
	DupKeyColumns    []string `yaml:"dup_key_columns" split_words:"true"`
	DateOutputLayout string   `yaml:"date_output_layout" split_words:"true"`
	PreviewMaxRows   int      `yaml:"preview_max_rows" split_words:"true"`
	SampleSize       int      `yaml:"sample_size" split_words:"true"`
	SampleSeed       int64    `yaml:"sample_seed" split_words:"true"`
}

// TelemetryConfig controls tracing and metrics
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" split_words:"true"`
	TracingEnabled bool   `yaml:"tracing_enabled" split_words:"true"`
	MetricsEnabled bool   `yaml:"metrics_enabled" split_words:"true"`
}

// Load resolves configuration from defaults, a .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
func Load() (*Config, error) {
	return LoadFrom(".env", getConfigFilePath())
}

// LoadFrom is Load with explicit file locations. Missing files are skipped;
// an empty path disables that source.
func LoadFrom(envFile, configFile string) (*Config, error) {
	if envFile != "" {
		// Variables already present in the environment win over the file
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the keys present in a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// normalize canonicalizes values that have a single valid spelling
func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = "json"
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/datasteward.log"
	}

	if cc := strings.TrimSpace(c.Quality.CountryCode); cc != "" && !strings.HasPrefix(cc, "+") {
		c.Quality.CountryCode = "+" + cc
	}
	keys := make([]string, 0, len(c.Quality.DupKeyColumns))
	for _, k := range c.Quality.DupKeyColumns {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	c.Quality.DupKeyColumns = keys
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server max body bytes must be positive")
	}
	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}
	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output: %q", c.Logging.Output)
	}

	if c.Paths.TempDir == "" {
		return fmt.Errorf("paths temp dir is required")
	}

	q := c.Quality
	if len(q.CountryCode) < 2 {
		return fmt.Errorf("invalid phone country code: %q", q.CountryCode)
	}
	if q.PhoneLength <= 0 {
		return fmt.Errorf("phone length must be positive")
	}
	if q.DupThreshold <= 0 || q.DupThreshold > 1 {
		return fmt.Errorf("duplicate threshold must be in (0, 1], got %v", q.DupThreshold)
	}
	if q.PreviewMaxRows <= 0 {
		return fmt.Errorf("preview max rows must be positive")
	}
	if q.SampleSize <= 0 {
		return fmt.Errorf("sample size must be positive")
	}
	if q.DateOutputLayout == "" {
		return fmt.Errorf("date output layout is required")
	}

	return nil
}

// QualitySettings converts the quality section into engine settings
func (c *Config) QualitySettings() quality.Settings {
	return quality.Settings{
		CountryCode:      c.Quality.CountryCode,
		PhoneLength:      c.Quality.PhoneLength,
		DupThreshold:     c.Quality.DupThreshold,
		DupKeyColumns:    append([]string(nil), c.Quality.DupKeyColumns...),
		DateOutputLayout: c.Quality.DateOutputLayout,
		PreviewMaxRows:   c.Quality.PreviewMaxRows,
		SampleSize:       c.Quality.SampleSize,
		SampleSeed:       c.Quality.SampleSeed,
	}
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getConfigFilePath returns the first config file found, or ""
func getConfigFilePath() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG_FILE"); p != "" {
		return p
	}
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	q := quality.DefaultSettings()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  60 * time.Second,
			MaxBodyBytes:    64 << 20,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/datasteward.log",
		},
		Paths: PathsConfig{
			TempDir: "./.quality_tmp",
			LogsDir: "logs",
		},
		Quality: QualityConfig{
			CountryCode:      q.CountryCode,
			PhoneLength:      q.PhoneLength,
			DupThreshold:     q.DupThreshold,
			DupKeyColumns:    q.DupKeyColumns,
			DateOutputLayout: q.DateOutputLayout,
			PreviewMaxRows:   q.PreviewMaxRows,
			SampleSize:       q.SampleSize,
			SampleSeed:       q.SampleSeed,
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "datasteward",
			MetricsEnabled: true,
		},
	}
}
