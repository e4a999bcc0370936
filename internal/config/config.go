package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains the backend endpoints. The meetings API serves everything under
// /clients/{id}/meetings plus /upload-url; the clients API serves /clients.
type API struct {
	BaseURL               string `toml:"base_url"`
	ClientsBaseURL        string `toml:"clients_base_url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Poll controls how long generation actions wait for the backend worker.
type Poll struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	IntervalMillis int `toml:"interval_millis"`
}

// Paths contains local state and log locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Dashboard contains settings for the interactive terminal view.
type Dashboard struct {
	RefreshSeconds int `toml:"refresh_seconds"`
}

// Config encapsulates all configuration values for meetingassist.
//
// Configuration sections:
//   - API: backend base URLs and request timeout
//   - Poll: generation poll timeout and interval
//   - Paths: workspace state and log directories
//   - Logging: log format and level
//   - Dashboard: refresh cadence of the terminal dashboard
type Config struct {
	API       API       `toml:"api"`
	Poll      Poll      `toml:"poll"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Dashboard Dashboard `toml:"dashboard"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequestTimeout is the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.API.RequestTimeoutSeconds) * time.Second
}

// PollTimeout is the wall-clock limit for a generation poll.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Poll.TimeoutSeconds) * time.Second
}

// PollInterval is the delay between generation poll ticks.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMillis) * time.Millisecond
}

// DashboardRefresh is the dashboard's background refresh cadence.
func (c *Config) DashboardRefresh() time.Duration {
	return time.Duration(c.Dashboard.RefreshSeconds) * time.Second
}

// StatePath is the location of the workspace database.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, "workspace.db")
}

// LockPath is the location of the workspace lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "workspace.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
