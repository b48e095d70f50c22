package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"gamelib/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "gamelib")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "library.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Paths.APIBind != "127.0.0.1:7488" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Enrichment.Sentinel != "Steam Hydrate" {
		t.Fatalf("unexpected sentinel: %q", cfg.Enrichment.Sentinel)
	}
	if cfg.Enrichment.MinDelayMS != 2000 || cfg.Enrichment.MaxDelayMS != 4500 {
		t.Fatalf("unexpected pacing window: %d-%d", cfg.Enrichment.MinDelayMS, cfg.Enrichment.MaxDelayMS)
	}
	if cfg.Enrichment.Cooldown().Seconds() != 60 {
		t.Fatalf("unexpected cooldown: %s", cfg.Enrichment.Cooldown())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gamelib.toml")

	type payload struct {
		Steam struct {
			APIKey  string `toml:"api_key"`
			SteamID string `toml:"steam_id"`
		} `toml:"steam"`
		Enrichment struct {
			MinDelayMS int `toml:"min_delay_ms"`
			MaxDelayMS int `toml:"max_delay_ms"`
		} `toml:"enrichment"`
	}
	custom := payload{}
	custom.Steam.APIKey = "abc123"
	custom.Steam.SteamID = "76561197960287930"
	custom.Enrichment.MinDelayMS = 10
	custom.Enrichment.MaxDelayMS = 20
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Steam.APIKey != "abc123" {
		t.Fatalf("expected Steam key from file, got %q", cfg.Steam.APIKey)
	}
	if err := cfg.RequireSteam(); err != nil {
		t.Fatalf("RequireSteam returned error: %v", err)
	}
	if cfg.Enrichment.MaxDelayMS != 20 {
		t.Fatalf("expected max delay 20, got %d", cfg.Enrichment.MaxDelayMS)
	}
	if cfg.Steam.StoreBaseURL != "https://store.steampowered.com" {
		t.Fatalf("expected default store url, got %q", cfg.Steam.StoreBaseURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "gamelib.toml")
	contents := "[steam]\napi_key = \"file-key\"\n[notifications]\nntfy_topic = \"file-topic\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("GAMELIB_STEAM_API_KEY", "env-key")
	t.Setenv("GAMELIB_NTFY_TOPIC", "env-topic")
	t.Setenv("STEAM_ID", "legacy-id")
	t.Setenv("GOG_SESSION_TOKEN", "legacy-gog")
	t.Setenv("GAMELIB_LOG_FORMAT", "JSON")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Steam.APIKey != "env-key" {
		t.Errorf("expected Steam key from GAMELIB_ env, got %q", cfg.Steam.APIKey)
	}
	if cfg.Notifications.NtfyTopic != "env-topic" {
		t.Errorf("expected ntfy topic from env, got %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Steam.SteamID != "legacy-id" {
		t.Errorf("expected steam id fallback from STEAM_ID, got %q", cfg.Steam.SteamID)
	}
	if cfg.GOG.SessionToken != "legacy-gog" {
		t.Errorf("expected gog token fallback, got %q", cfg.GOG.SessionToken)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected json log format, got %q", cfg.Logging.Format)
	}
}

func TestRequireCredentials(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireSteam(); err == nil {
		t.Fatal("expected error when steam api key missing")
	}
	cfg.Steam.APIKey = "key"
	if err := cfg.RequireSteam(); err == nil {
		t.Fatal("expected error when steam id missing")
	}
	if err := cfg.RequireGOG(); err == nil {
		t.Fatal("expected error when gog session token missing")
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_steam_api_key_here") {
		t.Fatalf("sample config missing placeholder Steam key: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.DataDir, "gamelib") {
		t.Fatalf("expected data dir to contain gamelib, got %q", cfg.Paths.DataDir)
	}
	if cfg.Enrichment.BreakChance != 0.08 {
		t.Fatalf("unexpected break chance in sample: %v", cfg.Enrichment.BreakChance)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cfg := config.Default()
	cfg.Steam.RequestTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive timeout")
	}

	cfg = config.Default()
	cfg.Enrichment.MaxDelayMS = cfg.Enrichment.MinDelayMS - 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when max delay < min delay")
	}

	cfg = config.Default()
	cfg.Enrichment.BreakChance = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for break chance above 1")
	}

	cfg = config.Default()
	cfg.Paths.APIBind = "no-port"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for api bind without port")
	}

	cfg = config.Default()
	cfg.Logging.Level = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown log level")
	}
}
