package library

import (
	"context"
	"fmt"
)

// Stats aggregates listing counts per storefront and the number of games owned
// on more than one storefront. KnownStores always appear in PerStore.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{PerStore: make(map[string]int, len(KnownStores))}
	for _, name := range KnownStores {
		stats.PerStore[name] = 0
	}

	rows, err := s.db.QueryContext(ctx, "SELECT store_name, COUNT(*) FROM store_listings GROUP BY store_name")
	if err != nil {
		return Stats{}, fmt.Errorf("count listings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return Stats{}, fmt.Errorf("scan listing count: %w", err)
		}
		stats.PerStore[name] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate listing counts: %w", err)
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (
			SELECT game_id FROM store_listings GROUP BY game_id HAVING COUNT(*) > 1
		)`,
	).Scan(&stats.Duplicates)
	if err != nil {
		return Stats{}, fmt.Errorf("count duplicates: %w", err)
	}
	return stats, nil
}

// CountGames returns the number of canonical games.
func (s *Store) CountGames(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return 0, fmt.Errorf("count games: %w", err)
	}
	return count, nil
}
