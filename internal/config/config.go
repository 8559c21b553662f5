package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bengalcodingacademy-dev/admin/internal/apiclient"
)

// Config holds configuration for bcaadmin.
type Config struct {
	APIBase   string        `yaml:"api_base"`   // Backend base URL (default http://localhost:4000/api)
	LoginPath string        `yaml:"login_path"` // /auth/login or /auth/admin/login
	Timeout   time.Duration `yaml:"timeout"`    // Per-request timeout (default 30s)
	Addr      string        `yaml:"addr"`       // Dashboard listen address (default "127.0.0.1:8080")
	StateDir  string        `yaml:"state_dir"`  // Holds state.db (default ~/.bcaadmin)
	LogLevel  string        `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string        `yaml:"log_format"` // Log format: text, json
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		APIBase:   apiclient.DefaultBaseURL,
		LoginPath: apiclient.PathLogin,
		Timeout:   apiclient.DefaultTimeout,
		Addr:      "127.0.0.1:8080",
		StateDir:  DefaultStateDir(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// DefaultStateDir returns ~/.bcaadmin, or .bcaadmin when the home directory
// is unknown.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bcaadmin"
	}
	return filepath.Join(home, ".bcaadmin")
}

// DefaultPath is the config file read when no --config is given.
func DefaultPath() string {
	return filepath.Join(DefaultStateDir(), "config.yaml")
}

// StatePath returns the SQLite state database path.
func (c Config) StatePath() string {
	return filepath.Join(c.StateDir, "state.db")
}

// Load builds a Config from defaults, then the YAML file at path, then the
// environment. A missing file is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("BCA_API_BASE"); v != "" {
		c.APIBase = v
	}
	if v := getenv("BCA_LOGIN_PATH"); v != "" {
		c.LoginPath = v
	}
	if v := getenv("BCA_ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv("BCA_STATE_DIR"); v != "" {
		c.StateDir = v
	}
}

// Validate checks fields that have a fixed set of values.
func (c Config) Validate() error {
	switch c.LoginPath {
	case apiclient.PathLogin, apiclient.PathAdminLogin:
	default:
		return fmt.Errorf("login_path must be %s or %s, got %q", apiclient.PathLogin, apiclient.PathAdminLogin, c.LoginPath)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}
