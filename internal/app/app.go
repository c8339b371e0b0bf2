// Package app assembles the engine from configuration. The server, the CLI
// and the embeddable client all build their services through New.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/config"
	"github.com/kailas-cloud/linkdex/internal/db"
	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/item"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/search/result"
	"github.com/kailas-cloud/linkdex/internal/metrics"
	"github.com/kailas-cloud/linkdex/internal/repository/embcache"
	"github.com/kailas-cloud/linkdex/internal/repository/snapshot"
	"github.com/kailas-cloud/linkdex/internal/rules"
	openaiEmb "github.com/kailas-cloud/linkdex/internal/transport/openai"
	"github.com/kailas-cloud/linkdex/internal/usecase/analyzer"
	"github.com/kailas-cloud/linkdex/internal/usecase/cache"
	"github.com/kailas-cloud/linkdex/internal/usecase/catalog"
	embeddinguc "github.com/kailas-cloud/linkdex/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/linkdex/internal/usecase/health"
	"github.com/kailas-cloud/linkdex/internal/usecase/learning"
	"github.com/kailas-cloud/linkdex/internal/usecase/linking"
	"github.com/kailas-cloud/linkdex/internal/usecase/ranking"
	searchuc "github.com/kailas-cloud/linkdex/internal/usecase/search"
	"github.com/kailas-cloud/linkdex/internal/usecase/similarity"
)

const (
	restoreTimeout  = 10 * time.Second
	embedFailures   = 3
	embedCooldown   = 30 * time.Second
	learnScore      = 0.7
	confirmScore    = 0.6
	searchCacheName = "search"
	linkCacheName   = "links"
)

// Dataset supplies the collection vectors and the full link records.
type Dataset interface {
	Items(kind collection.Kind) ([]item.Raw, error)
	Records(kind collection.Kind) ([]link.Record, error)
}

// Params are the inputs of New. Store is required; the rest may be zero.
// Empty Config fields take their defaults.
type Params struct {
	Config   config.Config
	Store    db.Store
	Embedder domain.Embedder
	Rules    *rules.Holder
	Dataset  Dataset
	Logger   *zap.Logger
}

// App holds the wired services.
type App struct {
	Rules       *rules.Holder
	Catalog     *catalog.Service
	Analyzer    *analyzer.Service
	Learning    *learning.Store
	Linker      *linking.Service
	Search      *searchuc.Service
	Health      *healthuc.Service
	SearchCache *cache.Cache[result.Response]
	LinkCache   *cache.Cache[link.Result]

	dataset Dataset
	pool    *ants.Pool
	logger  *zap.Logger
}

// New wires the engine, restores persisted state and loads the dataset.
func New(ctx context.Context, p Params) (*App, error) {
	if p.Store == nil {
		return nil, errors.New("app: store is required")
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	holder := p.Rules
	if holder == nil {
		holder = rules.NewHolder(nil)
	}
	emb := p.Embedder
	if emb == nil {
		emb = domain.NoopEmbedder{}
	}
	cfg := p.Config
	cfg.ApplyDefaults()

	pool, err := ants.NewPool(max(cfg.Engine.Workers, 1))
	if err != nil {
		return nil, fmt.Errorf("app: worker pool: %w", err)
	}

	snap := snapshot.New(p.Store, cfg.Storage.KeyPrefix, logger)

	searchCache := cache.New[result.Response](cacheOptions(searchCacheName, cfg.Cache), snap, pool, logger)
	// The linker schedules its own persistence by attempt count.
	linkOpts := cacheOptions(linkCacheName, cfg.Cache)
	linkOpts.PersistEvery = 0
	linkCache := cache.New[link.Result](linkOpts, snap, pool, logger)

	cat := catalog.New(holder, cfg.Engine.Dimensions, logger)
	learn := learning.New(holder, snap, logger)
	an := analyzer.New(holder, learn)
	linker := linking.New(holder, linkCache, linking.Options{
		LowScore:     cfg.Engine.LinkLowScore,
		AcceptScore:  cfg.Engine.LinkAcceptScore,
		EarlyStop:    cfg.Engine.LinkEarlyStop,
		PatternScore: cfg.Engine.PatternScore,
		PersistEvery: cfg.Cache.PersistEvery,
	}, logger)
	ranker := ranking.New(similarity.New(cat, cfg.Engine.ScanCap), holder, linker, pool, ranking.Config{
		FastLimit:  cfg.Engine.FastLimit,
		DeepLimit:  cfg.Engine.DeepLimit,
		FinalLimit: cfg.Engine.FinalLimit,
		LinkTopN:   cfg.Engine.LinkTopN,
		Weights:    ranking.DefaultWeights(),
	}, logger)

	svc := searchuc.New(searchuc.Deps{
		Analyzer:  an,
		Embedder:  emb,
		Ranker:    ranker,
		Learning:  learn,
		Cache:     searchCache,
		LinkCache: linkCache,
		Linker:    linker,
		Catalog:   cat,
		Rules:     holder,
		Sessions:  snap,
		Pool:      pool,
		Logger:    logger,
	}, searchuc.Config{
		EmbedTimeout:       time.Duration(cfg.Embedding.TimeoutMs) * time.Millisecond,
		RequestTimeout:     time.Duration(cfg.Engine.RequestTimeoutMs) * time.Millisecond,
		MinConfidence:      cfg.Engine.MinConfidence,
		MaxThreshold:       cfg.Engine.MaxThreshold,
		MaxNotes:           cfg.Engine.MaxNotes,
		CrossLinkTopN:      cfg.Engine.CrossLinkTopN,
		LearnScore:         learnScore,
		ConfirmScore:       confirmScore,
		HistoryLimit:       cfg.Cache.HistoryLimit,
		ConversationWindow: cfg.Cache.ConversationWindow,
	})

	var embChecker healthuc.EmbeddingChecker
	if hc, ok := emb.(domain.HealthChecker); ok {
		embChecker = hc
	}

	a := &App{
		Rules:       holder,
		Catalog:     cat,
		Analyzer:    an,
		Learning:    learn,
		Linker:      linker,
		Search:      svc,
		Health:      healthuc.New(p.Store, embChecker, cat),
		SearchCache: searchCache,
		LinkCache:   linkCache,
		dataset:     p.Dataset,
		pool:        pool,
		logger:      logger,
	}

	a.restore(ctx)
	if err := a.Reload(); err != nil {
		pool.Release()
		return nil, err
	}
	holder.OnSwap(func(*rules.Set) {
		if err := a.Reload(); err != nil {
			logger.Error("Dataset reload after rules swap failed", zap.Error(err))
		}
		searchCache.Clear()
	})
	return a, nil
}

func (a *App) restore(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, restoreTimeout)
	defer cancel()

	restorers := map[string]func(context.Context) error{
		searchCacheName: a.SearchCache.Restore,
		linkCacheName:   a.LinkCache.Restore,
		"learning":      a.Learning.Restore,
	}
	for name, restore := range restorers {
		if err := restore(ctx); err != nil {
			a.logger.Warn("Failed to restore persisted state, starting empty",
				zap.String("component", name), zap.Error(err))
		}
	}
}

// Reload reads every collection and record file again. Tags are derived
// with the active rule set. A missing file leaves its collection empty.
func (a *App) Reload() error {
	if a.dataset == nil {
		return nil
	}
	for _, kind := range collection.All() {
		raws, err := a.dataset.Items(kind)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.logger.Warn("Dataset file missing, collection left empty",
				zap.String("collection", kind.String()), zap.Error(err))
		case err != nil:
			return fmt.Errorf("load %s: %w", kind, err)
		}
		a.Catalog.Load(kind, raws)

		recs, err := a.dataset.Records(kind)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.logger.Debug("No link records", zap.String("collection", kind.String()))
		case err != nil:
			return fmt.Errorf("load %s records: %w", kind, err)
		}
		a.Linker.Load(kind, recs)
	}
	return nil
}

// Close persists the caches and the learning state and stops the worker pool.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.SearchCache.Persist(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.LinkCache.Persist(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.Learning.Persist(ctx); err != nil {
		errs = append(errs, err)
	}
	a.pool.Release()
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("app close: %w", err)
	}
	return nil
}

func cacheOptions(name string, c config.CacheConfig) cache.Options {
	opts := cache.DefaultOptions(name)
	opts.SessionTTL = time.Duration(c.SessionTTLSec) * time.Second
	opts.DurableMaxAge = time.Duration(c.DurableMaxAgeHours) * time.Hour
	opts.DurableThreshold = c.DurableThreshold
	opts.Capacity = c.Capacity
	opts.EvictFraction = c.EvictFraction
	opts.PersistEvery = c.PersistEvery
	return opts
}

// BuildEmbedder assembles the query embedder chain:
// OpenAI -> Cached -> Instrumented -> Instruction. Provider "none" yields
// domain.NoopEmbedder, which limits searches to the keyword index.
func BuildEmbedder(cfg config.EmbeddingConfig, prefix string, store db.KVStore, logger *zap.Logger) domain.Embedder {
	if cfg.Provider != config.ProviderOpenAI {
		return domain.NoopEmbedder{}
	}

	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Config{
			KeyPrefix: prefix,
			Model:     cfg.Model,
			TTL:       time.Duration(cfg.CacheTTLHours) * time.Hour,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, embeddinguc.Options{
		Timeout:          time.Duration(cfg.TimeoutMs) * time.Millisecond,
		FailureThreshold: embedFailures,
		Cooldown:         embedCooldown,
	}, logger)

	if cfg.QueryInstruction != "" {
		return domain.NewInstructionEmbedder(embedder, cfg.QueryInstruction)
	}
	return embedder
}
