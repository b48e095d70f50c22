package gog

import (
	"context"

	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/services"
)

// Source adapts either a live Client or a saved export to ingest.Source.
type Source struct {
	client     *Client
	exportPath string
}

var _ ingest.Source = (*Source)(nil)

// NewSource reads listings from the live account listing.
func NewSource(client *Client) *Source {
	return &Source{client: client}
}

// NewExportSource reads listings from a saved export file.
func NewExportSource(path string) *Source {
	return &Source{exportPath: path}
}

// Name returns the storefront name.
func (s *Source) Name() string { return library.StoreGOG }

// FetchListings returns every product as a raw listing.
func (s *Source) FetchListings(ctx context.Context) ([]ingest.RawListing, error) {
	var (
		pages []Page
		err   error
	)
	if s.exportPath != "" {
		pages, err = LoadExport(s.exportPath)
	} else if s.client != nil {
		pages, err = s.client.Products(ctx)
	} else {
		err = services.Wrap(services.ErrConfiguration, "gog", "fetch listings", "no client or export configured", nil)
	}
	if err != nil {
		return nil, err
	}
	return Listings(pages), nil
}
