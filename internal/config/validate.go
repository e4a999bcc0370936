package config

import (
	"errors"
	"fmt"
	"net/url"

	"meetingassist/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validatePoll(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("%w: api.base_url is required. Set %s or edit %s (create with 'meetingassist config init')",
			services.ErrConfiguration, envAPIBaseURL, defaultPath)
	}
	if err := validateBaseURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("api.clients_base_url", c.API.ClientsBaseURL); err != nil {
		return err
	}
	return nil
}

func validateBaseURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", services.ErrConfiguration, field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", services.ErrConfiguration, field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: %s is missing a host", services.ErrConfiguration, field)
	}
	return nil
}

func (c *Config) validatePoll() error {
	if c.Poll.TimeoutSeconds < 0 {
		return errors.New("poll.timeout_seconds must be positive")
	}
	if c.Poll.IntervalMillis < 0 {
		return errors.New("poll.interval_millis must be positive")
	}
	if c.Poll.IntervalMillis > c.Poll.TimeoutSeconds*1000 {
		return errors.New("poll.interval_millis must not exceed poll.timeout_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
