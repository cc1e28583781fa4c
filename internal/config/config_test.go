package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "./.quality_tmp", cfg.Paths.TempDir)
	assert.Equal(t, "+34", cfg.Quality.CountryCode)
	assert.Equal(t, 9, cfg.Quality.PhoneLength)
	assert.Equal(t, 0.90, cfg.Quality.DupThreshold)
	assert.Equal(t, []string{"nombre", "email"}, cfg.Quality.DupKeyColumns)
	assert.Equal(t, "2006-01-02", cfg.Quality.DateOutputLayout)
	assert.Equal(t, 100, cfg.Quality.PreviewMaxRows)
	assert.Equal(t, int64(42), cfg.Quality.SampleSeed)
	assert.Equal(t, 50, cfg.Quality.SampleSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.validate())
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		yaml   string
		check  func(t *testing.T, cfg *Config)
		errMsg string
	}{
		{
			name: "defaults only",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"DATASTEWARD_SERVER_PORT":             "9090",
				"DATASTEWARD_SERVER_READ_TIMEOUT":     "5s",
				"DATASTEWARD_LOGGING_LEVEL":           "DEBUG",
				"DATASTEWARD_QUALITY_COUNTRY_CODE":    "52",
				"DATASTEWARD_QUALITY_DUP_THRESHOLD":   "0.85",
				"DATASTEWARD_QUALITY_DUP_KEY_COLUMNS": "Nombre, telefono",
				"DATASTEWARD_SECURITY_ENABLE_CORS":    "false",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "+52", cfg.Quality.CountryCode)
				assert.Equal(t, 0.85, cfg.Quality.DupThreshold)
				assert.Equal(t, []string{"nombre", "telefono"}, cfg.Quality.DupKeyColumns)
				assert.False(t, cfg.Security.EnableCORS)
			},
		},
		{
			name: "yaml overlays defaults",
			yaml: "server:\n  port: 8100\n  write_timeout: 2m\nquality:\n  phone_length: 10\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8100, cfg.Server.Port)
				assert.Equal(t, 2*time.Minute, cfg.Server.WriteTimeout)
				assert.Equal(t, 10, cfg.Quality.PhoneLength)
				assert.Equal(t, "+34", cfg.Quality.CountryCode)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
			},
		},
		{
			name: "environment wins over yaml",
			env:  map[string]string{"DATASTEWARD_SERVER_PORT": "9200"},
			yaml: "server:\n  port: 8100\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9200, cfg.Server.Port)
			},
		},
		{
			name:   "invalid port",
			env:    map[string]string{"DATASTEWARD_SERVER_PORT": "70000"},
			errMsg: "invalid server port",
		},
		{
			name:   "unparsable value",
			env:    map[string]string{"DATASTEWARD_SERVER_PORT": "eighty"},
			errMsg: "failed to load config from env",
		},
		{
			name:   "threshold out of range",
			yaml:   "quality:\n  dup_threshold: 1.5\n",
			errMsg: "duplicate threshold",
		},
		{
			name:   "malformed yaml",
			yaml:   "server: [",
			errMsg: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			configFile := ""
			if tt.yaml != "" {
				configFile = writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			}

			cfg, err := LoadFrom("", configFile)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFilesAreSkipped(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFrom(filepath.Join(dir, ".env"), filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoadFrom_DotEnv(t *testing.T) {
	const key = "DATASTEWARD_QUALITY_PREVIEW_MAX_ROWS"
	t.Cleanup(func() { os.Unsetenv(key) })

	envFile := writeFile(t, t.TempDir(), ".env", key+"=25\n")
	cfg, err := LoadFrom(envFile, "")
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Quality.PreviewMaxRows)
}

func TestLoadFrom_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("DATASTEWARD_QUALITY_SAMPLE_SIZE", "7")

	envFile := writeFile(t, t.TempDir(), ".env", "DATASTEWARD_QUALITY_SAMPLE_SIZE=99\n")
	cfg, err := LoadFrom(envFile, "")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Quality.SampleSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid", func(c *Config) {}, ""},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read timeout"},
		{"cors without origins", func(c *Config) { c.Security.AllowedOrigins = nil }, "allowed origin"},
		{"rate limit without rps", func(c *Config) { c.Security.RateLimit.RPS = 0 }, "rate limit"},
		{"rate limit disabled", func(c *Config) {
			c.Security.RateLimit.Enabled = false
			c.Security.RateLimit.RPS = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "invalid log level"},
		{"bad log output", func(c *Config) { c.Logging.Output = "syslog" }, "invalid log output"},
		{"empty temp dir", func(c *Config) { c.Paths.TempDir = "" }, "temp dir"},
		{"zero phone length", func(c *Config) { c.Quality.PhoneLength = 0 }, "phone length"},
		{"zero threshold", func(c *Config) { c.Quality.DupThreshold = 0 }, "duplicate threshold"},
		{"threshold of one", func(c *Config) { c.Quality.DupThreshold = 1 }, ""},
		{"zero preview cap", func(c *Config) { c.Quality.PreviewMaxRows = 0 }, "preview max rows"},
		{"empty date layout", func(c *Config) { c.Quality.DateOutputLayout = "" }, "date output layout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestQualitySettings(t *testing.T) {
	cfg := Default()
	cfg.Quality.DupKeyColumns = []string{"email"}

	s := cfg.QualitySettings()
	assert.Equal(t, "+34", s.CountryCode)
	assert.Equal(t, []string{"email"}, s.DupKeyColumns)

	s.DupKeyColumns[0] = "mutated"
	assert.Equal(t, "email", cfg.Quality.DupKeyColumns[0])
}

func TestAddress(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8123
	assert.Equal(t, "127.0.0.1:8123", cfg.Address())
}

func TestGetConfigFilePath(t *testing.T) {
	t.Setenv(EnvPrefix+"_CONFIG_FILE", "/etc/datasteward/config.yaml")
	assert.Equal(t, "/etc/datasteward/config.yaml", getConfigFilePath())
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Paths.TempDir = filepath.Join(dir, "tmp")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")

	paths, err := cfg.GetPaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tmp", "clean"), paths.CleanDir)

	require.NoError(t, paths.EnsureDirectories())
	assert.True(t, FileExists(paths.CleanDir))
	assert.True(t, FileExists(paths.LogsDir))

	tests := []struct {
		original string
		want     string
	}{
		{"clientes.csv", "abc_clean_clientes.csv"},
		{"/data/in/clientes.xlsx", "abc_clean_clientes.xlsx"},
		{`C:\uploads\ventas.csv`, "abc_clean_ventas.csv"},
		{"", "abc_clean_dataset"},
	}
	for _, tt := range tests {
		assert.Equal(t, filepath.Join(paths.CleanDir, tt.want), paths.CleanFilePath("abc", tt.original))
	}
}

func TestGetPaths_LogsDirFallsBackToLogFile(t *testing.T) {
	cfg := Default()
	cfg.Paths.LogsDir = ""
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "var", "app.log")

	paths, err := cfg.GetPaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(cfg.Logging.FilePath), paths.LogsDir)
}
