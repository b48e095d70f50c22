package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// envOverrides mirrors the GAMELIB_* environment variables. Non-empty values
// replace whatever the config file supplied.
type envOverrides struct {
	DataDir         string `env:"GAMELIB_DATA_DIR"`
	LogDir          string `env:"GAMELIB_LOG_DIR"`
	APIBind         string `env:"GAMELIB_API_BIND"`
	APIToken        string `env:"GAMELIB_API_TOKEN"`
	SteamAPIKey     string `env:"GAMELIB_STEAM_API_KEY"`
	SteamID         string `env:"GAMELIB_STEAM_ID"`
	GOGSessionToken string `env:"GAMELIB_GOG_SESSION_TOKEN"`
	NtfyTopic       string `env:"GAMELIB_NTFY_TOPIC"`
	LogLevel        string `env:"GAMELIB_LOG_LEVEL"`
	LogFormat       string `env:"GAMELIB_LOG_FORMAT"`
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setIfPresent(&c.Paths.DataDir, overrides.DataDir)
	setIfPresent(&c.Paths.LogDir, overrides.LogDir)
	setIfPresent(&c.Paths.APIBind, overrides.APIBind)
	setIfPresent(&c.Paths.APIToken, overrides.APIToken)
	setIfPresent(&c.Steam.APIKey, overrides.SteamAPIKey)
	setIfPresent(&c.Steam.SteamID, overrides.SteamID)
	setIfPresent(&c.GOG.SessionToken, overrides.GOGSessionToken)
	setIfPresent(&c.Notifications.NtfyTopic, overrides.NtfyTopic)
	setIfPresent(&c.Logging.Level, overrides.LogLevel)
	setIfPresent(&c.Logging.Format, overrides.LogFormat)
	return nil
}

func setIfPresent(target *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*target = value
	}
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSteam()
	if err := c.normalizeGOG(); err != nil {
		return err
	}
	c.normalizeEnrichment()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeSteam() {
	if value, ok := os.LookupEnv("STEAM_API_KEY"); ok && strings.TrimSpace(c.Steam.APIKey) == "" {
		c.Steam.APIKey = value
	}
	if value, ok := os.LookupEnv("STEAM_ID"); ok && strings.TrimSpace(c.Steam.SteamID) == "" {
		c.Steam.SteamID = value
	}
	c.Steam.APIKey = strings.TrimSpace(c.Steam.APIKey)
	c.Steam.SteamID = strings.TrimSpace(c.Steam.SteamID)
	c.Steam.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.Steam.APIBaseURL), "/")
	if c.Steam.APIBaseURL == "" {
		c.Steam.APIBaseURL = defaultSteamAPIBaseURL
	}
	c.Steam.StoreBaseURL = strings.TrimRight(strings.TrimSpace(c.Steam.StoreBaseURL), "/")
	if c.Steam.StoreBaseURL == "" {
		c.Steam.StoreBaseURL = defaultSteamStoreBaseURL
	}
	if c.Steam.RequestTimeout <= 0 {
		c.Steam.RequestTimeout = defaultSteamRequestTimeout
	}
}

func (c *Config) normalizeGOG() error {
	if value, ok := os.LookupEnv("GOG_SESSION_TOKEN"); ok && strings.TrimSpace(c.GOG.SessionToken) == "" {
		c.GOG.SessionToken = value
	}
	c.GOG.SessionToken = strings.TrimSpace(c.GOG.SessionToken)
	c.GOG.BaseURL = strings.TrimRight(strings.TrimSpace(c.GOG.BaseURL), "/")
	if c.GOG.BaseURL == "" {
		c.GOG.BaseURL = defaultGOGBaseURL
	}
	if c.GOG.RequestTimeout <= 0 {
		c.GOG.RequestTimeout = defaultGOGRequestTimeout
	}
	if strings.TrimSpace(c.GOG.ExportPath) != "" {
		expanded, err := expandPath(strings.TrimSpace(c.GOG.ExportPath))
		if err != nil {
			return fmt.Errorf("gog.export_path: %w", err)
		}
		c.GOG.ExportPath = expanded
	}
	return nil
}

func (c *Config) normalizeEnrichment() {
	c.Enrichment.Sentinel = strings.TrimSpace(c.Enrichment.Sentinel)
	if c.Enrichment.Sentinel == "" {
		c.Enrichment.Sentinel = defaultEnrichmentSentinel
	}
	if c.Enrichment.CooldownSeconds < 0 {
		c.Enrichment.CooldownSeconds = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
