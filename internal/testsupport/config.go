package testsupport

import (
	"path/filepath"
	"testing"

	"gamelib/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Enrichment pacing is zeroed so pipelines run without sleeping.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Enrichment.MinDelayMS = 0
	cfgVal.Enrichment.MaxDelayMS = 0
	cfgVal.Enrichment.BreakChance = 0
	cfgVal.Enrichment.BreakMinMS = 0
	cfgVal.Enrichment.BreakMaxMS = 0
	cfgVal.Enrichment.CooldownSeconds = 0
	cfgVal.Enrichment.AutoStart = false

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

// WithSteamCredentials sets the Steam API key and account id.
func WithSteamCredentials(apiKey, steamID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Steam.APIKey = apiKey
		b.cfg.Steam.SteamID = steamID
	}
}

// WithSteamEndpoints points the Steam client at test servers.
func WithSteamEndpoints(apiBase, storeBase string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Steam.APIBaseURL = apiBase
		b.cfg.Steam.StoreBaseURL = storeBase
	}
}

// WithGOG sets the GOG session token and base URL.
func WithGOG(token, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.GOG.SessionToken = token
		if baseURL != "" {
			b.cfg.GOG.BaseURL = baseURL
		}
	}
}

// WithAPIToken enables bearer authentication on the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithNtfyTopic enables ntfy notifications against the provided topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the temp directory backing the config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
