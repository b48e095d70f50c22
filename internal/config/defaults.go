package config

const (
	defaultConfigPath            = "~/.config/gamelib/config.toml"
	defaultDataDir               = "~/.local/share/gamelib"
	defaultLogDir                = "~/.local/share/gamelib/logs"
	defaultAPIBind               = "127.0.0.1:7488"
	defaultSteamAPIBaseURL       = "https://api.steampowered.com"
	defaultSteamStoreBaseURL     = "https://store.steampowered.com"
	defaultSteamRequestTimeout   = 15
	defaultGOGBaseURL            = "https://embed.gog.com"
	defaultGOGRequestTimeout     = 15
	defaultEnrichmentSentinel    = "Steam Hydrate"
	defaultEnrichmentMinDelayMS  = 2000
	defaultEnrichmentMaxDelayMS  = 4500
	defaultEnrichmentBreakChance = 0.08
	defaultEnrichmentBreakMinMS  = 7000
	defaultEnrichmentBreakMaxMS  = 12000
	defaultEnrichmentCooldown    = 60
	defaultNotifyRequestTimeout  = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Steam: Steam{
			APIBaseURL:     defaultSteamAPIBaseURL,
			StoreBaseURL:   defaultSteamStoreBaseURL,
			RequestTimeout: defaultSteamRequestTimeout,
		},
		GOG: GOG{
			BaseURL:        defaultGOGBaseURL,
			RequestTimeout: defaultGOGRequestTimeout,
		},
		Enrichment: Enrichment{
			AutoStart:       true,
			Sentinel:        defaultEnrichmentSentinel,
			MinDelayMS:      defaultEnrichmentMinDelayMS,
			MaxDelayMS:      defaultEnrichmentMaxDelayMS,
			BreakChance:     defaultEnrichmentBreakChance,
			BreakMinMS:      defaultEnrichmentBreakMinMS,
			BreakMaxMS:      defaultEnrichmentBreakMaxMS,
			CooldownSeconds: defaultEnrichmentCooldown,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Sync:           true,
			Enrichment:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
