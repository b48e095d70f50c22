// Package config loads, normalizes, and validates gamelib configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies environment overrides: GAMELIB_*
// variables always win, while STEAM_API_KEY, STEAM_ID and GOG_SESSION_TOKEN
// fill in credentials the file left empty.
//
// Storefront credentials are not validated at load time because most commands
// (stats, games, serve) never touch a storefront; callers use RequireSteam and
// RequireGOG before a sync.
package config
