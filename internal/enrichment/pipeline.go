package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gamelib/internal/canon"
	"gamelib/internal/events"
	"gamelib/internal/library"
	"gamelib/internal/logging"
	"gamelib/internal/services"
)

// UnknownGenre is stored when the catalog lists no genres.
const UnknownGenre = "Unknown"

// Summary aggregates one run.
type Summary struct {
	RunID     string        `json:"runId"`
	Store     string        `json:"store"`
	Selected  int           `json:"selected"`
	Processed int           `json:"processed"`
	Hydrated  int           `json:"hydrated"`
	Failed    int           `json:"failed"`
	Cooldowns int           `json:"cooldowns"`
	Duration  time.Duration `json:"duration"`
}

// Pipeline fills in metadata for games still carrying the hydration sentinel.
type Pipeline struct {
	store     *library.Store
	fetcher   Fetcher
	publisher events.Publisher
	logger    *slog.Logger
	pacing    Pacing
	sentinel  string
	sleep     SleepFunc
	rng       *rand.Rand

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPublisher emits started, item and finished events.
func WithPublisher(p events.Publisher) Option {
	return func(pl *Pipeline) { pl.publisher = p }
}

// WithPacing overrides the default delay settings.
func WithPacing(p Pacing) Option {
	return func(pl *Pipeline) { pl.pacing = p }
}

// WithSleep replaces the context-aware sleep, mainly for tests.
func WithSleep(fn SleepFunc) Option {
	return func(pl *Pipeline) {
		if fn != nil {
			pl.sleep = fn
		}
	}
}

// WithRand seeds the pacing jitter.
func WithRand(r *rand.Rand) Option {
	return func(pl *Pipeline) { pl.rng = r }
}

// WithSentinel overrides the category that marks games awaiting hydration.
func WithSentinel(sentinel string) Option {
	return func(pl *Pipeline) {
		if strings.TrimSpace(sentinel) != "" {
			pl.sentinel = sentinel
		}
	}
}

// NewPipeline constructs a pipeline with the default pacing.
func NewPipeline(store *library.Store, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Pipeline {
	pl := &Pipeline{
		store:    store,
		fetcher:  fetcher,
		logger:   logging.NewComponentLogger(logger, "enrichment"),
		sentinel: library.HydrateSentinel,
		sleep:    sleepContext,
		pacing: Pacing{
			MinDelay:    2000 * time.Millisecond,
			MaxDelay:    4500 * time.Millisecond,
			BreakChance: 0.08,
			BreakMin:    7000 * time.Millisecond,
			BreakMax:    12000 * time.Millisecond,
			Cooldown:    60 * time.Second,
		},
		active: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(pl)
		}
	}
	pl.rng = newSharedRand(pl.rng)
	return pl
}

// Start launches a detached run for storeName. It returns ErrRunInProgress if
// one is already active for that store. The run stops early when ctx ends or
// Cancel is called.
func (p *Pipeline) Start(ctx context.Context, storeName string) error {
	if err := p.ready(); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	if !p.acquire(storeName, cancel) {
		cancel()
		return fmt.Errorf("%w: %s", ErrRunInProgress, storeName)
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(storeName)
		defer cancel()
		if _, err := p.run(runCtx, storeName); err != nil && !errors.Is(err, context.Canceled) {
			logging.WarnWithContext(p.logger, "enrichment run ended with error", "enrichment_run_failed",
				logging.String(logging.FieldStore, storeName),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-run enrichment once the store or network recovers"),
				logging.String(logging.FieldImpact, "remaining games keep placeholder metadata"),
			)
		}
	}()
	return nil
}

// Run executes one enrichment pass synchronously.
func (p *Pipeline) Run(ctx context.Context, storeName string) (Summary, error) {
	if err := p.ready(); err != nil {
		return Summary{Store: storeName}, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !p.acquire(storeName, cancel) {
		return Summary{Store: storeName}, fmt.Errorf("%w: %s", ErrRunInProgress, storeName)
	}
	defer p.release(storeName)
	return p.run(runCtx, storeName)
}

// Cancel stops the active run for storeName, if any.
func (p *Pipeline) Cancel(storeName string) bool {
	p.mu.Lock()
	cancel, ok := p.active[storeName]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Active reports the stores with a run in flight.
func (p *Pipeline) Active() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	stores := make([]string, 0, len(p.active))
	for name := range p.active {
		stores = append(stores, name)
	}
	return stores
}

// Wait blocks until every detached run has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) ready() error {
	if p == nil || p.store == nil {
		return services.Wrap(services.ErrConfiguration, "enrichment", "start", "library store unavailable", nil)
	}
	if p.fetcher == nil {
		return services.Wrap(services.ErrConfiguration, "enrichment", "start", "metadata fetcher unavailable", nil)
	}
	return nil
}

func (p *Pipeline) acquire(storeName string, cancel context.CancelFunc) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.active[storeName]; busy {
		return false
	}
	p.active[storeName] = cancel
	return true
}

func (p *Pipeline) release(storeName string) {
	p.mu.Lock()
	delete(p.active, storeName)
	p.mu.Unlock()
}

func (p *Pipeline) run(ctx context.Context, storeName string) (Summary, error) {
	summary := Summary{RunID: uuid.NewString(), Store: storeName}
	started := time.Now()
	ctx = services.WithRunID(services.WithStore(ctx, storeName), summary.RunID)
	logger := logging.WithContext(ctx, p.logger)

	targets, err := p.store.ListingsNeedingEnrichment(ctx, storeName, p.sentinel)
	if err != nil {
		return summary, err
	}
	summary.Selected = len(targets)
	if len(targets) == 0 {
		logger.Info("no games to enrich", logging.String(logging.FieldEventType, "enrichment_empty"))
		return summary, nil
	}

	logger.Info("enrichment started",
		logging.String(logging.FieldEventType, "enrichment_start"),
		logging.Int("total", len(targets)),
	)
	p.publish(ctx, events.EnrichmentStarted{Store: storeName, Total: len(targets)})

	pace := newPacer(p.pacing, p.rng)
	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}
		if err := p.sleep(ctx, pace.next()); err != nil {
			break
		}
		item, cooled, err := p.hydrate(ctx, target)
		summary.Cooldowns += cooled
		if err != nil && ctx.Err() != nil {
			break
		}
		summary.Processed++
		if err != nil {
			summary.Failed++
			item.Err = err.Error()
			logging.WarnWithContext(logger, "game enrichment failed; continuing", "enrichment_item_failed",
				logging.Int64(logging.FieldGameID, target.Game.ID),
				logging.String("app_id", target.Listing.StoreSpecificID),
				logging.String("title", target.Game.Title),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the next enrichment run retries this game"),
				logging.String(logging.FieldImpact, "game keeps placeholder metadata"),
			)
		} else {
			summary.Hydrated++
			logger.Debug("game enriched",
				logging.Int64(logging.FieldGameID, target.Game.ID),
				logging.String("title", target.Game.Title),
				logging.String("category", item.Category),
			)
		}
		p.publish(ctx, item)
	}

	summary.Duration = time.Since(started)
	cancelled := ctx.Err() != nil
	p.publish(context.WithoutCancel(ctx), events.EnrichmentFinished{
		Store:     storeName,
		Processed: summary.Processed,
		Hydrated:  summary.Hydrated,
		Failed:    summary.Failed,
		Cancelled: cancelled,
	})
	logger.Info("enrichment finished",
		logging.String(logging.FieldEventType, "enrichment_finish"),
		logging.Int("processed", summary.Processed),
		logging.Int("hydrated", summary.Hydrated),
		logging.Int("failed", summary.Failed),
		logging.Int("cooldowns", summary.Cooldowns),
		logging.Bool("cancelled", cancelled),
		logging.Duration("duration", summary.Duration),
	)
	if cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

// hydrate fetches and applies metadata for one listing. A rate-limited fetch
// is retried exactly once after the cooldown.
func (p *Pipeline) hydrate(ctx context.Context, target library.HydrationTarget) (events.ItemHydrated, int, error) {
	item := events.ItemHydrated{
		GameID:        target.Game.ID,
		Store:         target.Listing.StoreName,
		AppID:         target.Listing.StoreSpecificID,
		Title:         target.Game.Title,
		FieldsChanged: []string{},
	}
	cooldowns := 0
	meta, err := p.fetch(ctx, target.Listing.StoreSpecificID)
	if errors.Is(err, ErrRateLimited) {
		cooldowns++
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "rate limited; cooling down before single retry", "enrichment_rate_limited",
			logging.String("app_id", target.Listing.StoreSpecificID),
			logging.Duration("cooldown", p.pacing.Cooldown),
			logging.String(logging.FieldErrorHint, "lower request pacing if this repeats"),
			logging.String(logging.FieldImpact, "enrichment paused"),
		)
		if sleepErr := p.sleep(ctx, p.pacing.Cooldown); sleepErr != nil {
			return item, cooldowns, sleepErr
		}
		meta, err = p.fetch(ctx, target.Listing.StoreSpecificID)
	}
	if err != nil {
		return item, cooldowns, err
	}
	applied, err := p.apply(ctx, target, meta)
	if err != nil {
		return item, cooldowns, err
	}
	return applied, cooldowns, nil
}

func (p *Pipeline) fetch(ctx context.Context, id string) (meta Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic fetching metadata: %v", r)
		}
	}()
	return p.fetcher.FetchMetadata(ctx, id)
}

func (p *Pipeline) apply(ctx context.Context, target library.HydrationTarget, meta Metadata) (events.ItemHydrated, error) {
	category := UnknownGenre
	if len(meta.Genres) > 0 && strings.TrimSpace(meta.Genres[0]) != "" {
		category = strings.TrimSpace(meta.Genres[0])
	}
	releaseDate := ""
	if !meta.ComingSoon {
		if date, ok := canon.ReleaseDate(meta.ReleaseDate); ok {
			releaseDate = date
		}
	}
	support := canon.OS(meta.Platforms)

	game, err := p.store.UpdateGameFields(ctx, target.Game.ID, library.GamePatch{
		Category:    &category,
		ReleaseDate: &releaseDate,
	})
	if err != nil {
		return events.ItemHydrated{}, fmt.Errorf("update game: %w", err)
	}
	_, _, osChanged, err := p.store.UpsertStoreListing(ctx, library.ListingInput{
		GameID:          target.Game.ID,
		StoreName:       target.Listing.StoreName,
		StoreSpecificID: target.Listing.StoreSpecificID,
		OS:              &support,
	})
	if err != nil {
		return events.ItemHydrated{}, fmt.Errorf("update listing: %w", err)
	}

	changed := make([]string, 0, 3)
	if target.Game.Category != game.Category {
		changed = append(changed, "category")
	}
	if target.Game.ReleaseDate != game.ReleaseDate {
		changed = append(changed, "releaseDate")
	}
	if osChanged {
		changed = append(changed, "os")
	}
	return events.ItemHydrated{
		GameID:        game.ID,
		Store:         target.Listing.StoreName,
		AppID:         target.Listing.StoreSpecificID,
		Title:         game.Title,
		FieldsChanged: changed,
		Category:      game.Category,
		ReleaseDate:   game.ReleaseDate,
		OS:            &support,
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, msg events.Message) {
	if p.publisher != nil {
		p.publisher.Publish(ctx, msg)
	}
}
