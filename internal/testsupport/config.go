package testsupport

import (
	"path/filepath"
	"testing"

	"meetingassist/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Polling is shortened so generation workflows finish quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.BaseURL = "http://127.0.0.1:0"
	cfgVal.API.ClientsBaseURL = cfgVal.API.BaseURL
	cfgVal.API.RequestTimeoutSeconds = 5
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Poll.TimeoutSeconds = 2
	cfgVal.Poll.IntervalMillis = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBaseURL points both API base URLs at url.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
		b.cfg.API.ClientsBaseURL = url
	}
}

// WithBackend points the config at a fake backend.
func WithBackend(backend *Backend) ConfigOption {
	return WithBaseURL(backend.URL())
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
