package linkdex

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	cfg      config.Config
	embedder Embedder
	logger   *zap.Logger
}

func newClientConfig() *clientConfig {
	return &clientConfig{cfg: config.Default()}
}

// WithDataset sets the directory holding the collection vector and record
// files. File names follow the server defaults (activities.json,
// activity_records.json and so on). Missing files leave a collection empty.
func WithDataset(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Dataset.Dir = dir
	})
}

// WithRedis keeps caches, learned patterns and sessions in Redis.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverRedis
		c.cfg.Database.Addrs = []string{addr}
		c.cfg.Database.Password = password
	})
}

// WithBadger keeps state in an embedded BadgerDB at path.
// An empty path keeps it in memory.
func WithBadger(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Database.Driver = config.DriverBadger
		c.cfg.Database.Path = path
	})
}

// WithEmbedder sets the query embedding provider. It must produce vectors
// in the same space as the dataset.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithOpenAI embeds queries through an OpenAI-compatible endpoint.
// Ignored when WithEmbedder is also given.
func WithOpenAI(baseURL, apiKey, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.Provider = config.ProviderOpenAI
		c.cfg.Embedding.BaseURL = baseURL
		c.cfg.Embedding.APIKey = apiKey
		c.cfg.Embedding.Model = model
	})
}

// WithQueryInstruction prefixes every query before embedding.
func WithQueryInstruction(instruction string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Embedding.QueryInstruction = instruction
	})
}

// WithRules loads a YAML rule file over the embedded defaults.
func WithRules(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Rules.Path = path
	})
}

// WithDimensions sets the expected vector dimensionality. Default: 384.
func WithDimensions(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Engine.Dimensions = n
	})
}

// WithWorkers sizes the background worker pool. Default: 8.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cfg.Engine.Workers = n
	})
}

// WithLogger enables structured logging. Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}
