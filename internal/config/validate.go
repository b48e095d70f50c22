package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"steam.request_timeout":         c.Steam.RequestTimeout,
		"gog.request_timeout":           c.GOG.RequestTimeout,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	e := c.Enrichment
	if e.MinDelayMS < 0 || e.MaxDelayMS < 0 {
		return errors.New("enrichment.min_delay_ms and enrichment.max_delay_ms must be >= 0")
	}
	if e.MaxDelayMS < e.MinDelayMS {
		return errors.New("enrichment.max_delay_ms must be >= enrichment.min_delay_ms")
	}
	if e.BreakChance < 0 || e.BreakChance > 1 {
		return errors.New("enrichment.break_chance must be between 0 and 1")
	}
	if e.BreakMinMS < 0 || e.BreakMaxMS < e.BreakMinMS {
		return errors.New("enrichment.break_max_ms must be >= enrichment.break_min_ms >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
