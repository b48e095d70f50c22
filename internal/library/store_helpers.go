package library

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"gamelib/internal/canon"
)

const gameColumns = "id, normalized_title, title, slug, category, release_date, created_at, updated_at"

const listingColumns = "id, game_id, store_name, store_specific_id, os_supported, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(scanner rowScanner) (Game, error) {
	var (
		game        Game
		slug        sql.NullString
		category    sql.NullString
		releaseDate sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)
	if err := scanner.Scan(
		&game.ID,
		&game.NormalizedTitle,
		&game.Title,
		&slug,
		&category,
		&releaseDate,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return Game{}, err
	}
	game.Slug = slug.String
	game.Category = category.String
	game.ReleaseDate = releaseDate.String
	game.CreatedAt, game.UpdatedAt = parseTimestamps(createdRaw, updatedRaw)
	return game, nil
}

func scanListing(scanner rowScanner) (StoreListing, error) {
	var (
		listing    StoreListing
		osRaw      sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&listing.ID,
		&listing.GameID,
		&listing.StoreName,
		&listing.StoreSpecificID,
		&osRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return StoreListing{}, err
	}
	listing.OS = decodeOS(osRaw)
	listing.CreatedAt, listing.UpdatedAt = parseTimestamps(createdRaw, updatedRaw)
	return listing, nil
}

// decodeOS returns nil for NULL or undecodable values.
func decodeOS(raw sql.NullString) *canon.OSSupport {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var support canon.OSSupport
	if err := json.Unmarshal([]byte(raw.String), &support); err != nil {
		return nil
	}
	return &support
}

func parseTimestamps(createdRaw, updatedRaw sql.NullString) (time.Time, time.Time) {
	var created, updated time.Time
	if t, err := parseTimeString(createdRaw.String); err == nil {
		created = t
	}
	if t, err := parseTimeString(updatedRaw.String); err == nil {
		updated = t
	}
	return created, updated
}

func encodeOS(support *canon.OSSupport) (any, error) {
	if support == nil {
		return nil, nil
	}
	data, err := json.Marshal(support)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func sameOS(a, b *canon.OSSupport) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
