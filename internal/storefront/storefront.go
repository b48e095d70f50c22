// Package storefront builds the configured GOG and Steam sources and the
// Steam metadata client from config.
package storefront

import (
	"strings"

	"gamelib/internal/config"
	"gamelib/internal/gog"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/services"
	"gamelib/internal/steam"
)

// SteamClient builds a Steam client. Credentials are attached when present so
// the same client serves both library sync and appdetails lookups.
func SteamClient(cfg *config.Config) (*steam.Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "storefront", "steam client", "configuration unavailable", nil)
	}
	client, err := steam.New(cfg.Steam.APIBaseURL, cfg.Steam.StoreBaseURL,
		steam.WithTimeout(cfg.SteamTimeout()),
		steam.WithCredentials(cfg.Steam.APIKey, cfg.Steam.SteamID),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "storefront", "steam client", "", err)
	}
	return client, nil
}

// Source resolves the ingest source for storeName ("gog" or "steam", any case).
// For GOG an explicit exportPath wins over the session token, which wins over
// the configured export file.
func Source(cfg *config.Config, storeName, exportPath string) (ingest.Source, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "storefront", "resolve", "configuration unavailable", nil)
	}
	name, ok := library.CanonicalStore(storeName)
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "storefront", "resolve", "unknown store "+strings.TrimSpace(storeName), nil)
	}

	switch name {
	case library.StoreSteam:
		if err := cfg.RequireSteam(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "storefront", "resolve", "steam credentials", err)
		}
		client, err := SteamClient(cfg)
		if err != nil {
			return nil, err
		}
		return steam.NewSource(client, cfg.Enrichment.Sentinel), nil
	default:
		if path := strings.TrimSpace(exportPath); path != "" {
			return gog.NewExportSource(path), nil
		}
		if cfg.RequireGOG() == nil {
			client, err := gog.New(cfg.GOG.SessionToken, cfg.GOG.BaseURL, gog.WithTimeout(cfg.GOGTimeout()))
			if err != nil {
				return nil, err
			}
			return gog.NewSource(client), nil
		}
		if path := strings.TrimSpace(cfg.GOG.ExportPath); path != "" {
			return gog.NewExportSource(path), nil
		}
		return nil, services.Wrap(services.ErrConfiguration, "storefront", "resolve", "gog session", cfg.RequireGOG())
	}
}
