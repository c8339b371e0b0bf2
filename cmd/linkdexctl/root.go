package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkdex/internal/app"
	"github.com/kailas-cloud/linkdex/internal/config"
	"github.com/kailas-cloud/linkdex/internal/db"
	logpkg "github.com/kailas-cloud/linkdex/internal/logger"
	"github.com/kailas-cloud/linkdex/internal/rules"
)

type rootOptions struct {
	configFile string
	datasetDir string
	rulesFile  string
	store      string
	dimensions int
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "linkdexctl",
		Short: "Query the linkdex engine from the command line",
		Long: `linkdexctl runs the search engine in-process over a dataset directory.
It answers searches, links candidates to full records and inspects query
analysis without starting the HTTP server.`,
		SilenceUsage: true,
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configFile, "config", "", "YAML config file (defaults apply when empty)")
	f.StringVar(&opts.datasetDir, "dataset", "", "dataset directory, overrides the config")
	f.StringVar(&opts.rulesFile, "rules", "", "rule file, overrides the config")
	f.StringVar(&opts.store, "store", "", "state store driver: memory, badger or redis")
	f.IntVar(&opts.dimensions, "dimensions", 0, "expected vector dimensionality, overrides the config")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(
		newSearchCmd(opts),
		newLinkCmd(opts),
		newAnalyzeCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if o.configFile != "" {
		data, err := os.ReadFile(filepath.Clean(o.configFile))
		if err != nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = config.Parse(data); err != nil {
			return config.Config{}, err
		}
	}
	if o.datasetDir != "" {
		cfg.Dataset.Dir = o.datasetDir
	}
	if o.rulesFile != "" {
		cfg.Rules.Path = o.rulesFile
	}
	if o.store != "" {
		cfg.Database.Driver = o.store
	}
	if o.dimensions > 0 {
		cfg.Engine.Dimensions = o.dimensions
	}
	return cfg, nil
}

func (o *rootOptions) logger() *zap.Logger {
	level := "error"
	if o.verbose {
		level = "debug"
	}
	logger, err := logpkg.NewLogger("local", level)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// engine is an assembled App plus the store it owns.
type engine struct {
	*app.App
	store  db.Store
	logger *zap.Logger
}

func (o *rootOptions) openEngine(ctx context.Context) (*engine, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger := o.logger()

	store, err := app.OpenStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	holder := rules.NewHolder(nil)
	if cfg.Rules.Path != "" {
		if err := holder.LoadFile(cfg.Rules.Path); err != nil {
			store.Close()
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	a, err := app.New(ctx, app.Params{
		Config:   cfg,
		Store:    store,
		Embedder: app.BuildEmbedder(cfg.Embedding, cfg.Storage.KeyPrefix, store, logger),
		Rules:    holder,
		Dataset:  app.NewDataset(cfg.Dataset, logger),
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return &engine{App: a, store: store, logger: logger}, nil
}

func (e *engine) close(ctx context.Context) {
	if err := e.App.Close(ctx); err != nil {
		e.logger.Warn("Failed to persist engine state", zap.Error(err))
	}
	e.store.Close()
	_ = e.logger.Sync()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
