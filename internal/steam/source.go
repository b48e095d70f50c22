package steam

import (
	"context"

	"gamelib/internal/ingest"
	"gamelib/internal/library"
)

// Source adapts OwnedGames to ingest.Source. Steam's owned-games listing
// carries no genre, date or platform data, so every entry is marked with the
// hydration sentinel for the enrichment pipeline to fill in. Platforms stay nil
// so a re-sync never overwrites platform support that enrichment stored.
type Source struct {
	client   *Client
	sentinel string
}

var _ ingest.Source = (*Source)(nil)

// NewSource wraps client. An empty sentinel uses library.HydrateSentinel.
func NewSource(client *Client, sentinel string) *Source {
	if sentinel == "" {
		sentinel = library.HydrateSentinel
	}
	return &Source{client: client, sentinel: sentinel}
}

// Name returns the storefront name.
func (s *Source) Name() string { return library.StoreSteam }

// FetchListings returns the owned games as raw listings.
func (s *Source) FetchListings(ctx context.Context) ([]ingest.RawListing, error) {
	games, err := s.client.OwnedGames(ctx)
	if err != nil {
		return nil, err
	}
	listings := make([]ingest.RawListing, 0, len(games))
	for _, game := range games {
		listings = append(listings, ingest.RawListing{
			ID:          appIDString(game.AppID),
			Title:       game.Name,
			Slug:        Slug(game.Name),
			Category:    s.sentinel,
			ReleaseDate: s.sentinel,
			IsGame:      true,
		})
	}
	return listings, nil
}
