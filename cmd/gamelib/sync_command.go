package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"gamelib/internal/config"
	"gamelib/internal/daemonrun"
	"gamelib/internal/enrichment"
	"gamelib/internal/events"
	"gamelib/internal/ingest"
	"gamelib/internal/library"
	"gamelib/internal/storefront"
)

type syncReport struct {
	ingest.Result
	Enrichment *enrichment.Summary `json:"enrichment,omitempty"`
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		exportFile string
		noEnrich   bool
		jsonOut    bool
	)
	cmd := &cobra.Command{
		Use:   "sync <gog|steam>",
		Short: "Fetch a storefront library and reconcile it into the catalog",
		Long: "Fetch the owned library for one storefront and merge it into the catalog.\n" +
			"Steam syncs are followed by metadata enrichment unless --no-enrich is set.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"gog", "steam"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services, logger *slog.Logger) error {
				source, err := storefront.Source(cfg, args[0], exportFile)
				if err != nil {
					return err
				}
				result, err := svcs.Processor.Sync(cmd.Context(), source)
				if err != nil {
					return err
				}
				enrich := result.Store == library.StoreSteam && !noEnrich && cfg.Enrichment.AutoStart
				if jsonOut {
					report := syncReport{Result: result}
					if enrich {
						summary, err := svcs.Pipeline.Run(cmd.Context(), result.Store)
						if err != nil {
							return err
						}
						report.Enrichment = &summary
					}
					return writeJSON(cmd, report)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s sync: %d added, %d updated, %d skipped, %d failed (%d total)\n",
					result.Store, result.Added, result.Updated, result.Skipped, result.Failed, result.Total)
				if !enrich {
					return nil
				}
				_, err = runEnrichment(cmd, svcs, result.Store)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&exportFile, "file", "f", "", "Read GOG listings from a JSON export instead of the API")
	cmd.Flags().BoolVar(&noEnrich, "no-enrich", false, "Skip metadata enrichment after a Steam sync")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the sync result as JSON")
	return cmd
}

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var (
		storeFlag string
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Fetch metadata for games still awaiting enrichment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			storeName, ok := library.CanonicalStore(storeFlag)
			if !ok {
				return fmt.Errorf("unknown store %q", storeFlag)
			}
			return ctx.withServices(func(cfg *config.Config, svcs *daemonrun.Services, logger *slog.Logger) error {
				if jsonOut {
					summary, err := svcs.Pipeline.Run(cmd.Context(), storeName)
					if err != nil {
						return err
					}
					return writeJSON(cmd, summary)
				}
				_, err := runEnrichment(cmd, svcs, storeName)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&storeFlag, "store", library.StoreSteam, "Storefront whose listings drive enrichment")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")
	return cmd
}

// runEnrichment runs the pipeline in the foreground and prints one line per
// hydrated game followed by the run summary.
func runEnrichment(cmd *cobra.Command, svcs *daemonrun.Services, storeName string) (enrichment.Summary, error) {
	out := cmd.OutOrStdout()
	feed, unsubscribe := svcs.Hub.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for evt := range feed {
			printEnrichmentEvent(cmd, evt)
		}
	}()

	summary, err := svcs.Pipeline.Run(cmd.Context(), storeName)
	unsubscribe()
	<-done
	if err != nil && !errors.Is(err, context.Canceled) {
		return summary, err
	}

	status := "complete"
	if err != nil {
		status = "cancelled"
	}
	fmt.Fprintf(out, "Enrichment %s: %d of %d games hydrated, %d failed\n",
		status, summary.Hydrated, summary.Selected, summary.Failed)
	return summary, err
}

func printEnrichmentEvent(cmd *cobra.Command, evt events.Event) {
	out := cmd.OutOrStdout()
	switch msg := evt.Payload.(type) {
	case events.EnrichmentStarted:
		fmt.Fprintf(out, "Enriching %d %s games\n", msg.Total, msg.Store)
	case events.ItemHydrated:
		if msg.Err != "" {
			fmt.Fprintf(out, "  ! %s (%s): %s\n", msg.Title, msg.AppID, msg.Err)
			return
		}
		fmt.Fprintf(out, "  + %s: %s, %s\n", msg.Title, displayCategory(msg.Category), displayOrDash(msg.ReleaseDate))
	}
}

