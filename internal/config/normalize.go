package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeAPI()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePoll()
	c.normalizeLogging()
	if c.Dashboard.RefreshSeconds <= 0 {
		c.Dashboard.RefreshSeconds = defaultDashboardRefresh
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		if value, ok := os.LookupEnv(envAPIBaseURL); ok {
			c.API.BaseURL = value
		}
	}
	if strings.TrimSpace(c.API.ClientsBaseURL) == "" {
		if value, ok := os.LookupEnv(envClientsAPIBaseURL); ok {
			c.API.ClientsBaseURL = value
		}
	}
	c.API.BaseURL = trimBaseURL(c.API.BaseURL)
	c.API.ClientsBaseURL = trimBaseURL(c.API.ClientsBaseURL)
	if c.API.ClientsBaseURL == "" {
		c.API.ClientsBaseURL = c.API.BaseURL
	}
	if c.API.RequestTimeoutSeconds <= 0 {
		c.API.RequestTimeoutSeconds = defaultRequestTimeoutSeconds
	}
}

func trimBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizePoll() {
	if c.Poll.TimeoutSeconds == 0 {
		c.Poll.TimeoutSeconds = defaultPollTimeoutSeconds
	}
	if c.Poll.IntervalMillis == 0 {
		c.Poll.IntervalMillis = defaultPollIntervalMillis
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
