package linkdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/app"
	"github.com/kailas-cloud/linkdex/internal/db"
	"github.com/kailas-cloud/linkdex/internal/domain"
	"github.com/kailas-cloud/linkdex/internal/domain/collection"
	"github.com/kailas-cloud/linkdex/internal/domain/link"
	"github.com/kailas-cloud/linkdex/internal/domain/search/request"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

const closeTimeout = 10 * time.Second

// Client is the linkdex SDK entry point.
type Client struct {
	store db.Store
	app   *app.App
}

// New loads the dataset, restores persisted state and returns a ready client.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, o := range opts {
		o.apply(cfg)
	}
	if err := cfg.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("linkdex: %w", err)
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg.cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("linkdex: %w", err)
	}

	holder := rules.NewHolder(nil)
	if path := cfg.cfg.Rules.Path; path != "" {
		if err := holder.LoadFile(path); err != nil {
			store.Close()
			return nil, fmt.Errorf("linkdex: load rules: %w", err)
		}
	}

	var emb domain.Embedder
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	} else {
		emb = app.BuildEmbedder(cfg.cfg.Embedding, cfg.cfg.Storage.KeyPrefix, store, logger)
	}

	a, err := app.New(ctx, app.Params{
		Config:   cfg.cfg,
		Store:    store,
		Embedder: emb,
		Rules:    holder,
		Dataset:  app.NewDataset(cfg.cfg.Dataset, logger),
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("linkdex: %w", err)
	}
	return &Client{store: store, app: a}, nil
}

// Close persists caches and learned state and releases all resources.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := c.app.Close(ctx)
	c.store.Close()
	if err != nil {
		return fmt.Errorf("linkdex: %w", err)
	}
	return nil
}

// Search answers a free-text query across the three collections. Only an
// empty or oversized query is an error; engine failures yield a fallback
// response with IsFallback set.
func (c *Client) Search(ctx context.Context, q string, opts SearchOptions) (Response, error) {
	req, err := request.New(q, opts.ContextType, opts.SessionID, opts.RequireConfirmation)
	if err != nil {
		return Response{}, err
	}
	return c.app.Search.IntelligentSearch(ctx, req.Query(), SearchOptions{
		ContextType:         req.ContextType(),
		RequireConfirmation: req.RequireConfirmation(),
		SessionID:           req.SessionID(),
	}), nil
}

// Link resolves a candidate preview to its full record.
func (c *Client) Link(ctx context.Context, req LinkRequest) (LinkResult, error) {
	kind, err := collection.Parse(req.Collection)
	if err != nil {
		return LinkResult{}, err
	}
	res, err := c.app.Linker.Link(ctx, link.Request{
		CandidateID:  req.CandidateID,
		Text:         req.Text,
		Collection:   kind,
		Conversation: req.Conversation,
	})
	if err != nil {
		return LinkResult{}, fmt.Errorf("link: %w", err)
	}
	return res, nil
}

// Learn records that text resolves to recordID so later links of the same
// text hit the pattern cache.
func (c *Client) Learn(coll, text, recordID string) error {
	kind, err := collection.Parse(coll)
	if err != nil {
		return err
	}
	return c.app.Linker.Learn(text, kind, recordID)
}

// Analyze classifies a query without searching.
func (c *Client) Analyze(q, contextType string) (Analysis, error) {
	req, err := request.New(q, contextType, "", false)
	if err != nil {
		return Analysis{}, err
	}
	return c.app.Analyzer.Analyze(req.Query(), req.ContextType()), nil
}

// Stats reports engine activity.
func (c *Client) Stats() Stats {
	return c.app.Search.Stats()
}

// Sizes reports the number of loaded items per collection.
func (c *Client) Sizes() map[Collection]int {
	return c.app.Catalog.Sizes()
}

// ClearCache drops cached search and link results. Learned patterns stay.
func (c *Client) ClearCache() {
	c.app.Search.ClearCache()
}

// ResetLearning forgets learned patterns and query history.
func (c *Client) ResetLearning(ctx context.Context) error {
	if err := c.app.Search.ResetLearning(ctx); err != nil {
		return fmt.Errorf("reset learning: %w", err)
	}
	return nil
}

// Health checks the store, the embedding provider and the catalog.
func (c *Client) Health(ctx context.Context) HealthReport {
	return c.app.Health.Check(ctx)
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	if len(r.Embedding) == 0 {
		return domain.EmbeddingResult{}, errors.New("embed: empty vector")
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
