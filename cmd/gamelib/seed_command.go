package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gamelib/internal/config"
	"gamelib/internal/daemonrun"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
)

// seedListings is a small fixture library with one exact cross-store match and
// one title that differs only by punctuation.
var seedListings = map[string][]ingest.RawListing{
	library.StoreSteam: {
		{ID: "12345", Title: "Hades ", Category: "Roguelike", ReleaseDate: "2020-09-17", Platforms: map[string]any{"windows": true, "mac": true}, IsGame: true},
		{ID: "12346", Title: "Cyberpunk 2077", Category: "RPG", ReleaseDate: "2020-12-10", Platforms: map[string]any{"windows": true}, IsGame: true},
		{ID: "12348", Title: "The Witcher 3 - The Wild Hunt", Category: "RPG", ReleaseDate: "2015-05-18", Platforms: map[string]any{"windows": true}, IsGame: true},
	},
	library.StoreGOG: {
		{ID: "12346", Title: "Cyberpunk 2077", Category: "RPG", ReleaseDate: "2020-12-10", Platforms: map[string]any{"Windows": true}, IsGame: true},
		{ID: "12347", Title: "The Witcher 3: The Wild Hunt", Category: "RPG", ReleaseDate: "2015-05-18", Platforms: map[string]any{"Windows": true, "Linux": false}, IsGame: true},
	},
}

func newSeedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a small sample library for trying out the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services, logger *slog.Logger) error {
				for _, storeName := range library.KnownStores {
					result, err := svcs.Processor.ProcessBatch(cmd.Context(), storeName, seedListings[storeName])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d added, %d updated\n", storeName, result.Added, result.Updated)
				}
				return nil
			})
		},
	}
}
