package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"gamelib/internal/enrichment"
	"gamelib/internal/services"
)

type appDetailsEntry struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type appDetailsData struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Genres []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"genres"`
	ReleaseDate struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Platforms map[string]any `json:"platforms"`
}

// FetchMetadata looks up an app on the storefront appdetails endpoint.
// A 429 response surfaces as enrichment.ErrRateLimited.
func (c *Client) FetchMetadata(ctx context.Context, appID string) (enrichment.Metadata, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return enrichment.Metadata{}, services.Wrap(services.ErrValidation, "steam", "appdetails", "app id is required", nil)
	}
	params := url.Values{}
	params.Set("appids", appID)
	endpoint, err := buildURL(c.storeBaseURL, "/api/appdetails", params)
	if err != nil {
		return enrichment.Metadata{}, err
	}

	var payload map[string]appDetailsEntry
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return enrichment.Metadata{}, err
	}
	entry, ok := payload[appID]
	if !ok || !entry.Success || len(entry.Data) == 0 {
		return enrichment.Metadata{}, services.Wrap(services.ErrExternal, "steam", "appdetails",
			fmt.Sprintf("no details for app %s", appID), nil)
	}
	var data appDetailsData
	if err := json.Unmarshal(entry.Data, &data); err != nil {
		return enrichment.Metadata{}, services.Wrap(services.ErrExternal, "steam", "appdetails", "malformed data", err)
	}

	meta := enrichment.Metadata{
		Name:        data.Name,
		ReleaseDate: data.ReleaseDate.Date,
		ComingSoon:  data.ReleaseDate.ComingSoon,
		Platforms:   data.Platforms,
	}
	for _, genre := range data.Genres {
		meta.Genres = append(meta.Genres, genre.Description)
	}
	return meta, nil
}
