package main

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gamelib/internal/config"
	"gamelib/internal/daemonrun"
	"gamelib/internal/library"
)

var categoryCaser = cases.Title(language.English)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show listing counts per storefront and cross-store duplicates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services, logger *slog.Logger) error {
				stats, err := svcs.Store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, stats)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStats(stats))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output stats as JSON")
	return cmd
}

func renderStats(stats library.Stats) string {
	names := make([]string, 0, len(stats.PerStore))
	for name := range stats.PerStore {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+2)
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(stats.PerStore[name])})
	}
	rows = append(rows,
		[]string{"Total listings", strconv.Itoa(stats.Total)},
		[]string{"Owned on 2+ stores", strconv.Itoa(stats.Duplicates)},
	)
	return renderTable([]string{"Store", "Count"}, rows, []columnAlignment{alignLeft, alignRight}) + "\n"
}

func newGamesCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOut        bool
		duplicatesOnly bool
	)
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List catalog games with their storefront listings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services, logger *slog.Logger) error {
				games, err := svcs.Store.ListGames(cmd.Context())
				if err != nil {
					return err
				}
				if duplicatesOnly {
					filtered := games[:0]
					for _, g := range games {
						if g.Duplicate {
							filtered = append(filtered, g)
						}
					}
					games = filtered
				}
				if jsonOut {
					if games == nil {
						games = []library.GameWithListings{}
					}
					return writeJSON(cmd, games)
				}
				if len(games) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No games in the library")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderGames(games))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output games as JSON")
	cmd.Flags().BoolVar(&duplicatesOnly, "duplicates", false, "Only show games owned on more than one storefront")
	return cmd
}

func renderGames(games []library.GameWithListings) string {
	rows := make([][]string, 0, len(games))
	for _, g := range games {
		stores := make([]string, 0, len(g.Listings))
		platforms := "-"
		for _, l := range g.Listings {
			stores = append(stores, l.StoreName)
			if l.OS != nil && l.OS.Any() {
				platforms = l.OS.String()
			}
		}
		rows = append(rows, []string{
			strconv.FormatInt(g.ID, 10),
			g.Title,
			displayCategory(g.Category),
			displayOrDash(g.ReleaseDate),
			strings.Join(stores, ", "),
			platforms,
		})
	}
	return renderTable(
		[]string{"ID", "Title", "Category", "Released", "Stores", "Platforms"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

// displayCategory title-cases storefront genres such as "role-playing" while
// leaving already-cased values like "RPG" alone.
func displayCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "-"
	}
	if strings.ToLower(category) != category {
		return category
	}
	return categoryCaser.String(category)
}

func displayOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
