package steam

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"gamelib/internal/services"
)

// OwnedGame is one entry of IPlayerService/GetOwnedGames.
type OwnedGame struct {
	AppID           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

// OwnedGames lists the account's games with app info included.
func (c *Client) OwnedGames(ctx context.Context) ([]OwnedGame, error) {
	if c.apiKey == "" || c.steamID == "" {
		return nil, services.Wrap(services.ErrConfiguration, "steam", "owned games", "api key and steam id are required", nil)
	}
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("steamid", c.steamID)
	params.Set("format", "json")
	params.Set("include_appinfo", "true")
	endpoint, err := buildURL(c.apiBaseURL, "/IPlayerService/GetOwnedGames/v1/", params)
	if err != nil {
		return nil, err
	}

	var payload ownedGamesResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	return payload.Response.Games, nil
}

// Slug mirrors the storefront's simple slug form: lowercase, spaces to underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func appIDString(id int64) string {
	return strconv.FormatInt(id, 10)
}
