package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamelib/internal/events"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/services"
)

// Result aggregates the outcome of one batch.
type Result struct {
	Store   string `json:"store"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
	Total   int    `json:"total"`
}

// Processor reconciles storefront batches into the library.
type Processor struct {
	store     *library.Store
	logger    *slog.Logger
	publisher events.Publisher
	enricher  EnrichmentStarter
	sentinel  string
	autoStart map[string]bool
}

// Option customizes a Processor.
type Option func(*Processor)

// WithPublisher emits a SyncCompleted event after each batch.
func WithPublisher(p events.Publisher) Option {
	return func(proc *Processor) { proc.publisher = p }
}

// WithEnrichment fires a detached enrichment run after a sync of any listed store.
func WithEnrichment(starter EnrichmentStarter, stores ...string) Option {
	return func(proc *Processor) {
		proc.enricher = starter
		for _, name := range stores {
			proc.autoStart[name] = true
		}
	}
}

// WithSentinel overrides the category marking games awaiting enrichment.
func WithSentinel(sentinel string) Option {
	return func(proc *Processor) {
		if strings.TrimSpace(sentinel) != "" {
			proc.sentinel = sentinel
		}
	}
}

// NewProcessor constructs a processor backed by store.
func NewProcessor(store *library.Store, logger *slog.Logger, opts ...Option) *Processor {
	proc := &Processor{
		store:     store,
		logger:    logging.NewComponentLogger(logger, "ingest"),
		sentinel:  library.HydrateSentinel,
		autoStart: make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(proc)
		}
	}
	return proc
}

// ProcessBatch reconciles listings for storeName in input order. Per-item
// failures are logged and counted; only setup failures return an error.
func (p *Processor) ProcessBatch(ctx context.Context, storeName string, listings []RawListing) (Result, error) {
	storeName = strings.TrimSpace(storeName)
	result := Result{Store: storeName, Total: len(listings)}
	if p == nil || p.store == nil {
		return result, services.Wrap(services.ErrConfiguration, "ingest", "process batch", "library store unavailable", nil)
	}
	if storeName == "" {
		return result, services.Wrap(services.ErrValidation, "ingest", "process batch", "store name is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	ctx = services.WithStore(ctx, storeName)
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	for idx, raw := range listings {
		if !raw.IsGame {
			result.Skipped++
			continue
		}
		added, updated, err := p.processOne(ctx, storeName, raw)
		if err != nil {
			result.Failed++
			logging.WarnWithContext(logger, "listing reconcile failed; continuing batch", "listing_failed",
				logging.Int("index", idx),
				logging.String("title", raw.Title),
				logging.String("external_id", raw.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the listing title and database permissions"),
				logging.String(logging.FieldImpact, "listing not recorded for this sync"),
			)
			continue
		}
		if added {
			result.Added++
		}
		if updated {
			result.Updated++
		}
	}

	logger.Info("batch processed",
		logging.String(logging.FieldEventType, "batch_complete"),
		logging.Int("added", result.Added),
		logging.Int("updated", result.Updated),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Int("total", result.Total),
		logging.Duration("duration", time.Since(started)),
	)
	if p.publisher != nil {
		p.publisher.Publish(ctx, events.SyncCompleted{
			Store:   result.Store,
			Added:   result.Added,
			Updated: result.Updated,
			Skipped: result.Skipped,
			Failed:  result.Failed,
			Total:   result.Total,
		})
	}
	return result, nil
}

func (p *Processor) processOne(ctx context.Context, storeName string, raw RawListing) (added, updated bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reconciling listing: %v", r)
		}
	}()
	game, created, err := p.store.FindOrCreateGame(ctx, gameInput(raw, p.sentinel))
	if err != nil {
		return false, false, err
	}
	_, _, changed, err := p.store.UpsertStoreListing(ctx, library.ListingInput{
		GameID:          game.ID,
		StoreName:       storeName,
		StoreSpecificID: raw.ID,
		OS:              listingOS(raw),
	})
	if err != nil {
		return created, false, err
	}
	return created, changed, nil
}

// Sync fetches listings from source and reconciles them. Enrichment for the
// store, when configured, is started detached after the batch.
func (p *Processor) Sync(ctx context.Context, source Source) (Result, error) {
	if source == nil {
		return Result{}, services.Wrap(services.ErrValidation, "ingest", "sync", "source is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	storeName := source.Name()
	ctx = services.WithRunID(services.WithStore(ctx, storeName), uuid.NewString())
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("sync started", logging.String(logging.FieldEventType, "sync_start"))

	listings, err := source.FetchListings(ctx)
	if err != nil {
		if !errors.Is(err, services.ErrConfiguration) && !errors.Is(err, services.ErrValidation) &&
			!errors.Is(err, services.ErrTransient) && !errors.Is(err, services.ErrExternal) {
			err = services.Wrap(services.ErrTransient, "ingest", "fetch listings", storeName, err)
		}
		logging.ErrorWithContext(logger, "sync fetch failed", "sync_fetch_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check storefront credentials and network access"),
		)
		return Result{Store: storeName}, err
	}

	result, err := p.ProcessBatch(ctx, storeName, listings)
	if err != nil {
		return result, err
	}

	if p.enricher != nil && p.autoStart[storeName] {
		// Detached: the sync result does not wait for enrichment.
		if startErr := p.enricher.Start(context.WithoutCancel(ctx), storeName); startErr != nil {
			logger.Info("enrichment not started",
				logging.String(logging.FieldEventType, "enrichment_skip"),
				logging.String("reason", startErr.Error()),
			)
		}
	}
	return result, nil
}
