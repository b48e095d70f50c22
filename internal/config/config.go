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

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Steam contains credentials and endpoints for the Steam Web API and storefront.
type Steam struct {
	APIKey         string `toml:"api_key"`
	SteamID        string `toml:"steam_id"`
	APIBaseURL     string `toml:"api_base_url"`
	StoreBaseURL   string `toml:"store_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// GOG contains the session token used for the embed.gog.com account endpoints.
type GOG struct {
	SessionToken   string `toml:"session_token"`
	BaseURL        string `toml:"base_url"`
	ExportPath     string `toml:"export_path"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Enrichment contains pacing and backoff settings for metadata hydration.
type Enrichment struct {
	// AutoStart launches a background run after every Steam sync.
	AutoStart       bool    `toml:"auto_start"`
	Sentinel        string  `toml:"sentinel"`
	MinDelayMS      int     `toml:"min_delay_ms"`
	MaxDelayMS      int     `toml:"max_delay_ms"`
	BreakChance     float64 `toml:"break_chance"`
	BreakMinMS      int     `toml:"break_min_ms"`
	BreakMaxMS      int     `toml:"break_max_ms"`
	CooldownSeconds int     `toml:"cooldown_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Sync           bool   `toml:"sync"`
	Enrichment     bool   `toml:"enrichment"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for gamelib.
//
// Configuration sections by subsystem:
//   - Paths: database/log directories and API bind address
//   - Steam: owned-games and appdetails endpoints
//   - GOG: account product listing
//   - Enrichment: hydration pacing, break and cooldown settings
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Steam         Steam         `toml:"steam"`
	GOG           GOG           `toml:"gog"`
	Enrichment    Enrichment    `toml:"enrichment"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
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

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
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

	projectPath, err := filepath.Abs("gamelib.toml")
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

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite library database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "library.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "gamelibd.lock")
}

// PIDPath returns the file the running daemon records its process id in.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "gamelibd.pid")
}

// RequireSteam reports whether the Steam credentials needed for a library sync are present.
func (c *Config) RequireSteam() error {
	if strings.TrimSpace(c.Steam.APIKey) == "" {
		return fmt.Errorf("steam.api_key is required. Set GAMELIB_STEAM_API_KEY or edit %s (create with 'gamelib config init')", displayConfigPath())
	}
	if strings.TrimSpace(c.Steam.SteamID) == "" {
		return fmt.Errorf("steam.steam_id is required. Set GAMELIB_STEAM_ID or edit %s", displayConfigPath())
	}
	return nil
}

// RequireGOG reports whether a GOG session token is available for an online sync.
func (c *Config) RequireGOG() error {
	if strings.TrimSpace(c.GOG.SessionToken) == "" {
		return fmt.Errorf("gog.session_token is required for online sync. Set GAMELIB_GOG_SESSION_TOKEN, edit %s, or pass an export file", displayConfigPath())
	}
	return nil
}

// SteamTimeout returns the per-request timeout for Steam calls.
func (c *Config) SteamTimeout() time.Duration {
	return time.Duration(c.Steam.RequestTimeout) * time.Second
}

// GOGTimeout returns the per-request timeout for GOG calls.
func (c *Config) GOGTimeout() time.Duration {
	return time.Duration(c.GOG.RequestTimeout) * time.Second
}

// Cooldown returns the pause applied after a rate-limited metadata fetch.
func (e Enrichment) Cooldown() time.Duration {
	return time.Duration(e.CooldownSeconds) * time.Second
}

func displayConfigPath() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return defaultConfigPath
	}
	return path
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
