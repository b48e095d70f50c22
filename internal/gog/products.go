package gog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"gamelib/internal/canon"
	"gamelib/internal/ingest"
)

// Product is one entry of account/getFilteredProducts.
type Product struct {
	ID          json.Number     `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Category    string          `json:"category"`
	WorksOn     map[string]any  `json:"worksOn"`
	IsGame      bool            `json:"isGame"`
	IsMovie     bool            `json:"isMovie"`
	ReleaseDate json.RawMessage `json:"releaseDate,omitempty"`
}

// Page is one getFilteredProducts response document.
type Page struct {
	Page          int       `json:"page"`
	TotalPages    int       `json:"totalPages"`
	TotalProducts int       `json:"totalProducts"`
	Products      []Product `json:"products"`
}

// Listing converts a product into a raw listing for ingest.
func (p Product) Listing() ingest.RawListing {
	return ingest.RawListing{
		ID:          p.ID.String(),
		Title:       strings.TrimSpace(p.Title),
		Slug:        strings.TrimSpace(p.Slug),
		Category:    strings.TrimSpace(p.Category),
		ReleaseDate: releaseDateText(p.ReleaseDate),
		Platforms:   p.WorksOn,
		IsGame:      p.IsGame,
	}
}

// releaseDateText accepts the shapes GOG has used for releaseDate: a unix
// timestamp, a date string, or an object with a "date" field.
func releaseDateText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return normalizeDateText(text)
		}
	case '{':
		var obj struct {
			Date string `json:"date"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			return normalizeDateText(obj.Date)
		}
	default:
		if seconds, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
			if date, ok := canon.ReleaseDateFromUnix(seconds); ok {
				return date
			}
		}
	}
	return ""
}

// normalizeDateText trims a "2015-05-18 00:00:00.000000" style timestamp to its date.
func normalizeDateText(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > 10 && text[4] == '-' && text[7] == '-' {
		return text[:10]
	}
	return text
}

// Listings converts every product across pages, preserving order.
func Listings(pages []Page) []ingest.RawListing {
	var out []ingest.RawListing
	for _, page := range pages {
		for _, product := range page.Products {
			out = append(out, product.Listing())
		}
	}
	return out
}
